package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
)

// ResolveLoginEmail maps a login identifier to the canonical email required
// by the password-grant call. Anything containing "@" is assumed to already
// be an email and passes through untouched, with no store lookup.
func ResolveLoginEmail(ctx context.Context, store Store, identifier string) (string, error) {
	if strings.Contains(identifier, "@") {
		return identifier, nil
	}

	profileID, err := store.LookupProfileIDByUsername(ctx, Normalize(identifier))
	if err != nil {
		switch {
		case errors.Is(err, serviceerr.ErrNotFound):
			return "", serviceerr.ErrIdentifierNotFound
		case errors.Is(err, serviceerr.ErrSchemaMissing):
			return "", err
		default:
			return "", fmt.Errorf("looking up username: %w", err)
		}
	}

	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		switch {
		case errors.Is(err, serviceerr.ErrNotFound):
			return "", serviceerr.ErrIdentifierNotFound
		case errors.Is(err, serviceerr.ErrSchemaMissing):
			return "", err
		default:
			return "", fmt.Errorf("loading profile %s: %w", profileID, err)
		}
	}

	// a username row pointing at a profile without a contact email cannot be
	// used for login; same outcome as no row at all
	if profile.ContactEmail == "" {
		return "", serviceerr.ErrIdentifierNotFound
	}

	return profile.ContactEmail, nil
}
