package identitymock

import (
	"context"
	"sort"
	"time"

	"github.com/gdpm-dev/session-bridge/internal/identity"
	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
)

type RepositoryOption func(*Repository)

// Repository is an in-memory identity.Store for tests.
type Repository struct {
	profiles  map[string]identity.Profile
	usernames []identity.Username

	lookupErr, getProfileErr, upsertProfileErr, insertUsernameErr error
}

func WithProfile(profile identity.Profile) RepositoryOption {
	return func(r *Repository) { r.profiles[profile.ID] = profile }
}

func WithUsername(username identity.Username) RepositoryOption {
	return func(r *Repository) { r.usernames = append(r.usernames, username) }
}

func WithLookupError(err error) RepositoryOption {
	return func(r *Repository) { r.lookupErr = err }
}

func WithGetProfileError(err error) RepositoryOption {
	return func(r *Repository) { r.getProfileErr = err }
}

func WithUpsertProfileError(err error) RepositoryOption {
	return func(r *Repository) { r.upsertProfileErr = err }
}

func WithInsertUsernameError(err error) RepositoryOption {
	return func(r *Repository) { r.insertUsernameErr = err }
}

var _ = identity.Store(&Repository{})

func NewInMemRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		profiles: make(map[string]identity.Profile),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Repository) LookupProfileIDByUsername(_ context.Context, usernameNormal string) (string, error) {
	if r.lookupErr != nil {
		return "", r.lookupErr
	}

	matches := make([]identity.Username, 0, 1)
	for _, u := range r.usernames {
		if u.Normal == usernameNormal && u.ProfileID != "" {
			matches = append(matches, u)
		}
	}
	if len(matches) == 0 {
		return "", serviceerr.ErrNotFound
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	return matches[0].ProfileID, nil
}

func (r *Repository) GetProfile(_ context.Context, id string) (identity.Profile, error) {
	if r.getProfileErr != nil {
		return identity.Profile{}, r.getProfileErr
	}
	if profile, ok := r.profiles[id]; ok {
		return profile, nil
	}
	return identity.Profile{}, serviceerr.ErrNotFound
}

func (r *Repository) UpsertProfile(_ context.Context, profile identity.Profile) error {
	if r.upsertProfileErr != nil {
		return r.upsertProfileErr
	}
	r.profiles[profile.ID] = profile
	return nil
}

func (r *Repository) InsertUsername(_ context.Context, username identity.Username) error {
	if r.insertUsernameErr != nil {
		return r.insertUsernameErr
	}
	if err := username.Validate(); err != nil {
		return err
	}
	for _, u := range r.usernames {
		if u.Normal == username.Normal {
			return serviceerr.ErrUsernameTaken
		}
	}
	if username.CreatedAt.IsZero() {
		username.CreatedAt = time.Now()
	}
	r.usernames = append(r.usernames, username)
	return nil
}

// Profiles returns a snapshot of the stored profiles for assertions.
func (r *Repository) Profiles() []identity.Profile {
	profiles := make([]identity.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, p)
	}
	return profiles
}

// Usernames returns a snapshot of the stored username rows for assertions.
func (r *Repository) Usernames() []identity.Username {
	return append([]identity.Username(nil), r.usernames...)
}
