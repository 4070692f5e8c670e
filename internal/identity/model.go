// Package identity maps login identifiers to canonical emails and owns the
// profile and username bookkeeping around the credential flows.
package identity

import (
	"errors"
	"strings"
	"time"
)

type Profile struct {
	ID           string
	Name         string
	ContactEmail string
}

// Username links a display string and its normalized form to exactly one of
// a profile or an organization. Rows are created once and never updated or
// deleted by the bridge.
type Username struct {
	Display   string
	Normal    string
	ProfileID string
	OrgID     string
	CreatedAt time.Time
}

// Normalize produces the lookup form of a username.
func Normalize(display string) string {
	return strings.ToLower(strings.TrimSpace(display))
}

// NewProfileUsername builds a profile-owned username row.
func NewProfileUsername(display, profileID string) Username {
	return Username{
		Display:   strings.TrimSpace(display),
		Normal:    Normalize(display),
		ProfileID: profileID,
	}
}

// Validate enforces the ownership exclusivity rule: exactly one of profile
// and organization, never both, never neither.
func (u Username) Validate() error {
	if u.Display == "" || u.Normal == "" {
		return errors.New("username must not be empty")
	}
	if u.ProfileID != "" && u.OrgID != "" {
		return errors.New("username cannot belong to both a profile and an organization")
	}
	if u.ProfileID == "" && u.OrgID == "" {
		return errors.New("username must belong to a profile or an organization")
	}

	return nil
}
