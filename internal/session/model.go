// Package session holds the session model, the cookie store that persists
// it, and the resolver that answers "is there a currently valid session"
// from cookies alone.
package session

import (
	"strconv"
	"time"

	"github.com/gdpm-dev/session-bridge/internal/token"
)

// defaultLifetime is assumed when neither the expiry-hint cookie nor the
// token claims carry an expiry, in seconds.
const defaultLifetime = 3600

const defaultRole = "authenticated"

type User struct {
	ID           string         `json:"id"`
	Audience     string         `json:"aud,omitempty"`
	Role         string         `json:"role,omitempty"`
	Email        string         `json:"email,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// Session is an immutable proof of authentication. It is never mutated in
// place; a superseding session is always a new value.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    int64  `json:"expires_at"` // seconds since epoch
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// FromTokens reconstructs a Session from raw cookie material. The effective
// expiry is the numeric hint if present, else the token's exp claim, else
// now plus the default lifetime. An already expired pair yields nil rather
// than a dead session. Tokens without a subject claim still form a session
// shell with a nil user.
func FromTokens(accessToken, refreshToken, expiresAtHint string, now time.Time) *Session {
	nowSec := now.Unix()
	claims, ok := token.DecodeClaims(accessToken)

	expiresAt, _ := strconv.ParseInt(expiresAtHint, 10, 64)
	if expiresAt == 0 && ok {
		expiresAt = claims.Expiry
	}
	if expiresAt == 0 {
		expiresAt = nowSec + defaultLifetime
	}
	if expiresAt <= nowSec {
		return nil
	}

	var user *User
	if ok && claims.Subject != "" {
		user = &User{
			ID:           claims.Subject,
			Audience:     claims.Audience,
			Role:         claims.Role,
			Email:        claims.Email,
			AppMetadata:  claims.AppMetadata,
			UserMetadata: claims.UserMetadata,
		}
		if user.Audience == "" {
			user.Audience = defaultRole
		}
		if user.Role == "" {
			user.Role = defaultRole
		}
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
		ExpiresIn:    max(0, expiresAt-nowSec),
		User:         user,
	}
}
