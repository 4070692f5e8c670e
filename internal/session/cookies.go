package session

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gdpm-dev/session-bridge/internal/config"
)

// refreshTTL is the fixed lifetime of the refresh and expiry-hint cookies.
// Refresh tokens outlive access tokens, so the refresh cookie must survive
// long after the access cookie is gone.
const refreshTTL = 60 * 60 * 24 * 60 // 60 days, in seconds

// Jar is the narrow cookie capability the store needs. Route handlers back
// it with a real request/response pair; tests back it with a map.
type Jar interface {
	Get(name string) (string, bool)
	Set(cookie *http.Cookie)
}

// Names holds the four cookie slots. They are derived from the backend
// endpoint so cookies from different backend projects never collide, and
// they stay stable for the lifetime of a deployment.
type Names struct {
	StorageKey string // legacy aggregate, retained only for cleanup
	Access     string
	Refresh    string
	Expires    string
}

// DeriveNames computes the cookie names from the backend endpoint's host
// reference, the leftmost label of its hostname. The port is excluded: a
// colon is not a valid cookie-name character and http.SetCookie drops
// cookies with invalid names.
func DeriveNames(backendURL string) (Names, error) {
	u, err := url.Parse(backendURL)
	if err != nil {
		return Names{}, fmt.Errorf("parsing backend URL: %w", err)
	}

	hostRef, _, _ := strings.Cut(u.Hostname(), ".")
	if hostRef == "" {
		return Names{}, fmt.Errorf("backend URL %q has no host", backendURL)
	}

	return Names{
		StorageKey: fmt.Sprintf("sb-%s-auth-token", hostRef),
		Access:     fmt.Sprintf("sb-%s-access-token", hostRef),
		Refresh:    fmt.Sprintf("sb-%s-refresh-token", hostRef),
		Expires:    fmt.Sprintf("sb-%s-expires-at", hostRef),
	}, nil
}

// Store reads and writes the session cookies. One Store serves both browser
// and server request contexts; only the Jar differs.
type Store struct {
	names  Names
	secure bool
}

// NewStore builds a Store. secure marks cookies Secure and must only be set
// in production-like environments, so local plain-HTTP development stays
// testable.
func NewStore(names Names, secure bool) *Store {
	return &Store{names: names, secure: secure}
}

func (s *Store) Names() Names {
	return s.names
}

// Read reconstructs a session from the jar. Both the access and refresh
// cookies must be present; a partial pair is no session.
func (s *Store) Read(jar Jar, now time.Time) *Session {
	accessToken, _ := jar.Get(s.names.Access)
	refreshToken, _ := jar.Get(s.names.Refresh)
	if accessToken == "" || refreshToken == "" {
		return nil
	}

	expiresAtHint, _ := jar.Get(s.names.Expires)

	return FromTokens(accessToken, refreshToken, expiresAtHint, now)
}

// Write persists sess into the jar, or clears every slot when sess is nil.
// Clearing cookies that were never set is a no-op, not an error. The legacy
// aggregate cookie is cleared on every write.
func (s *Store) Write(jar Jar, sess *Session, now time.Time) {
	if sess == nil {
		s.clear(jar, s.names.Access)
		s.clear(jar, s.names.Refresh)
		s.clear(jar, s.names.Expires)
		s.clear(jar, s.names.StorageKey)
		return
	}

	nowSec := now.Unix()

	accessTTL := sess.ExpiresAt - nowSec
	if sess.ExpiresAt == 0 {
		accessTTL = sess.ExpiresIn
		if accessTTL == 0 {
			accessTTL = defaultLifetime
		}
	}

	expiresAt := sess.ExpiresAt
	if expiresAt == 0 {
		expiresAt = nowSec + accessTTL
	}

	s.set(jar, s.names.Access, sess.AccessToken, accessTTL)
	if sess.RefreshToken != "" {
		s.set(jar, s.names.Refresh, sess.RefreshToken, refreshTTL)
	}
	// the hint rides with the refresh cookie so it survives as long as a
	// refresh is still possible
	s.set(jar, s.names.Expires, strconv.FormatInt(expiresAt, 10), refreshTTL)
	s.clear(jar, s.names.StorageKey)
}

func (s *Store) template(name string) config.CookieTemplate {
	return config.CookieTemplate{
		Name:     name,
		Path:     "/",
		Secure:   s.secure,
		HTTPOnly: true,
		SameSite: config.CookieSameSiteLax,
	}
}

func (s *Store) set(jar Jar, name, value string, maxAge int64) {
	tpl := s.template(name)
	jar.Set(tpl.ToCookie(value, int(max(0, maxAge))))
}

func (s *Store) clear(jar Jar, name string) {
	tpl := s.template(name)
	jar.Set(tpl.ToCookie("", -1))
}
