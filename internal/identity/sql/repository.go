package identitysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gdpm-dev/session-bridge/internal/identity"
	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) LookupProfileIDByUsername(ctx context.Context, usernameNormal string) (string, error) {
	var profileID string
	if err := r.db.QueryRow(ctx, `SELECT profile_id
FROM usernames
WHERE username_normal = $1
	AND profile_id IS NOT NULL
ORDER BY created_at DESC
LIMIT 1;`,
		usernameNormal,
	).Scan(&profileID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", serviceerr.ErrNotFound
		}
		if serviceerr.IsUndefinedRelation(err) {
			return "", serviceerr.ErrSchemaMissing
		}

		return "", fmt.Errorf("selecting from usernames: %w", err)
	}

	return profileID, nil
}

func (r *Repository) GetProfile(ctx context.Context, id string) (identity.Profile, error) {
	var profile identity.Profile
	if err := r.db.QueryRow(ctx, `SELECT id, COALESCE(name, ''), COALESCE(contact_email, '')
FROM profiles
WHERE id = $1;`,
		id,
	).Scan(&profile.ID, &profile.Name, &profile.ContactEmail); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.Profile{}, serviceerr.ErrNotFound
		}
		if serviceerr.IsUndefinedRelation(err) {
			return identity.Profile{}, serviceerr.ErrSchemaMissing
		}

		return identity.Profile{}, fmt.Errorf("selecting from profiles: %w", err)
	}

	return profile, nil
}

func (r *Repository) UpsertProfile(ctx context.Context, profile identity.Profile) error {
	if _, err := r.db.Exec(ctx, `INSERT INTO profiles (id, name, contact_email)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET (name, contact_email) = (EXCLUDED.name, EXCLUDED.contact_email);`,
		profile.ID, nullable(profile.Name), nullable(profile.ContactEmail),
	); err != nil {
		if serviceerr.IsUndefinedRelation(err) {
			return serviceerr.ErrSchemaMissing
		}

		return fmt.Errorf("upserting into profiles: %w", err)
	}

	return nil
}

func (r *Repository) InsertUsername(ctx context.Context, username identity.Username) error {
	if err := username.Validate(); err != nil {
		return fmt.Errorf("validating username: %w", err)
	}

	if _, err := r.db.Exec(ctx, `INSERT INTO usernames (username_display, username_normal, profile_id, org_id)
VALUES ($1, $2, $3, $4);`,
		username.Display, username.Normal, nullable(username.ProfileID), nullable(username.OrgID),
	); err != nil {
		if serviceerr.IsUniqueViolation(err) {
			return serviceerr.ErrUsernameTaken
		}
		if serviceerr.IsUndefinedRelation(err) {
			return serviceerr.ErrSchemaMissing
		}

		return fmt.Errorf("inserting into usernames: %w", err)
	}

	return nil
}

// nullable maps the empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
