package session

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// Authenticator is the one provider round-trip the resolver needs: validate
// an access token and return the user it belongs to.
type Authenticator interface {
	GetUser(ctx context.Context, accessToken string) (*User, error)
}

// AuthStateSource emits provider auth-state changes. Attach reports false
// when a listener is already attached, so attaching is idempotent.
type AuthStateSource interface {
	OnAuthStateChange(fn func(sess *Session)) bool
}

// Resolver answers "is there a currently valid session" from cookies,
// revalidating against the auth provider when a reconstruction succeeds.
type Resolver struct {
	store *Store
	auth  Authenticator
	now   func() time.Time
}

func NewResolver(store *Store, auth Authenticator) *Resolver {
	return &Resolver{store: store, auth: auth, now: time.Now}
}

// GetServerSession resolves the session for one server request. A missing or
// partial cookie pair is a logged-out visitor, not an error; only a failed
// provider revalidation produces one.
func (r *Resolver) GetServerSession(ctx context.Context, jar Jar) (*Session, error) {
	sess := r.store.Read(jar, r.now())
	if sess == nil {
		return nil, nil
	}

	user, err := r.auth.GetUser(ctx, sess.AccessToken)
	if err != nil {
		return nil, err
	}

	// structurally valid cookies can still be stale by wall clock; treat
	// that as logged out rather than erroring
	if sess.ExpiresAt != 0 && sess.ExpiresAt <= r.now().Unix() {
		return nil, nil
	}

	live := *sess
	if user != nil {
		live.User = user
	}

	return &live, nil
}

// AttachAuthListener wires the browser path: every provider auth-state
// change re-persists the cookies. This is the only place cookies are written
// outside an explicit credential flow. Returns false when the source already
// has a listener attached.
func (r *Resolver) AttachAuthListener(ctx context.Context, src AuthStateSource, jar Jar) bool {
	attached := src.OnAuthStateChange(func(sess *Session) {
		r.store.Write(jar, sess, r.now())
	})
	if !attached {
		slogctx.Debug(ctx, "auth-state listener already attached; skipping")
	}

	return attached
}
