package identity

import "context"

// Store is the narrow view of the backing database the bridge needs.
type Store interface {
	// LookupProfileIDByUsername resolves a normalized username to the profile
	// that owns it. Organization-owned usernames are not login identifiers
	// and must not match. Newest row wins on ties.
	LookupProfileIDByUsername(ctx context.Context, usernameNormal string) (string, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
	// UpsertProfile is create-or-update and idempotent.
	UpsertProfile(ctx context.Context, profile Profile) error
	// InsertUsername creates the row once; uniqueness conflicts surface as
	// serviceerr.ErrUsernameTaken.
	InsertUsername(ctx context.Context, username Username) error
}
