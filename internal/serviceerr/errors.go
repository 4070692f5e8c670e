// Package serviceerr defines the stable failure kinds shared across the
// session bridge. Flows convert these into the uniform result shape; nothing
// above the flow layer branches on anything else.
package serviceerr

import "errors"

var ErrConfigMissing = errors.New("auth backend is not configured: set BACKEND_URL and BACKEND_ANON_KEY")

var ErrIdentifierNotFound = errors.New("no account found for that username")

var ErrSchemaMissing = errors.New(`add a "usernames" table with username_normal + profile_id and a "profiles" table with contact_email, or sign in with your email`)

var ErrUsernameTaken = errors.New("that username is already taken")

var ErrVerificationFailed = errors.New("could not verify the confirmation code")

var ErrNotFound = errors.New("not found")
