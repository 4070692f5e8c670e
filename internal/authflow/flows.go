// Package authflow orchestrates the three user-facing credential flows over
// the auth provider, the identity store, and the cookie store. Every flow
// reports the uniform {session, error, notice} result; nothing above this
// layer ever sees a raised failure.
package authflow

import (
	"context"
	"errors"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/gdpm-dev/session-bridge/internal/identity"
	"github.com/gdpm-dev/session-bridge/internal/provider"
	"github.com/gdpm-dev/session-bridge/internal/session"
)

// NoticeConfirmEmail is surfaced when an account needs its email confirmed
// before a session can be issued.
const NoticeConfirmEmail = "Check your email for a confirmation code to finish setting up your account."

// AuthAPI is the contract the flows consume from the auth provider.
type AuthAPI interface {
	SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*provider.SignUpResult, error)
	VerifyOTP(ctx context.Context, params provider.VerifyParams) (*session.Session, error)
	ExchangeCode(ctx context.Context, authCode string) (*session.Session, error)
	Resend(ctx context.Context, typ provider.VerifyType, email string) error
}

// AuthStateSink receives session changes so browser-context listeners stay
// in sync with flow outcomes.
type AuthStateSink interface {
	EmitAuthState(sess *session.Session)
}

// Result is the uniform flow outcome. Exactly one field is populated: a
// session, an error, or a notice requiring user action.
type Result struct {
	Session *session.Session
	Err     error
	Notice  string
}

type Service struct {
	auth    AuthAPI
	store   identity.Store
	cookies *session.Store
	notify  AuthStateSink
	now     func() time.Time
}

// NewService builds the flow service. notify may be nil when no browser
// context listens for auth-state changes.
func NewService(auth AuthAPI, store identity.Store, cookies *session.Store, notify AuthStateSink) *Service {
	return &Service{
		auth:    auth,
		store:   store,
		cookies: cookies,
		notify:  notify,
		now:     time.Now,
	}
}

// SignIn resolves the identifier, performs the password grant, and persists
// the session cookies. An unconfirmed email produces a notice, not an error.
func (s *Service) SignIn(ctx context.Context, jar session.Jar, identifier, password string) Result {
	email, err := identity.ResolveLoginEmail(ctx, s.store, identifier)
	if err != nil {
		return Result{Err: err}
	}

	sess, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		if provider.IsEmailNotConfirmed(err) {
			// best effort: the state is already "needs confirmation", a
			// failed resend does not change it
			if resendErr := s.auth.Resend(ctx, provider.VerifyTypeSignup, email); resendErr != nil {
				slogctx.Warn(ctx, "Failed to resend confirmation email", "error", resendErr)
			}
			return Result{Notice: NoticeConfirmEmail}
		}
		return Result{Err: err}
	}

	s.syncProfileEmail(ctx, sess)
	s.cookies.Write(jar, sess, s.now())
	s.emit(sess)

	return Result{Session: sess}
}

// SignUp registers the account. When the provider withholds the session
// pending email confirmation, all profile and username writes are deferred
// to the confirmation flow.
func (s *Service) SignUp(ctx context.Context, jar session.Jar, username, email, password string) Result {
	signedUp, err := s.auth.SignUp(ctx, email, password, map[string]any{"username": username})
	if err != nil {
		return Result{Err: err}
	}

	if signedUp.Session == nil {
		return Result{Notice: NoticeConfirmEmail}
	}

	userID := userIDOf(signedUp.Session, signedUp.User)
	if userID == "" {
		return Result{Err: errors.New("account created but no user was returned")}
	}

	if err := s.recordIdentity(ctx, userID, username, email); err != nil {
		return Result{Err: err}
	}

	s.cookies.Write(jar, signedUp.Session, s.now())
	s.emit(signedUp.Session)

	return Result{Session: signedUp.Session}
}

// ConfirmSignUp turns a one-time code or confirmation link into a session,
// then performs the profile and username writes deferred by sign-up.
func (s *Service) ConfirmSignUp(ctx context.Context, jar session.Jar, username, email, code string) Result {
	sess, err := s.verifyCode(ctx, email, code)
	if err != nil {
		return Result{Err: err}
	}

	if userID := userIDOf(sess, nil); userID != "" {
		if err := s.recordIdentity(ctx, userID, username, email); err != nil {
			return Result{Err: err}
		}
	} else {
		slogctx.Warn(ctx, "Verified session carries no user; skipping profile bookkeeping")
	}

	s.cookies.Write(jar, sess, s.now())
	s.emit(sess)

	return Result{Session: sess}
}

// SignOut clears the cookie slots and notifies listeners.
func (s *Service) SignOut(ctx context.Context, jar session.Jar) {
	s.cookies.Write(jar, nil, s.now())
	s.emit(nil)
}

// recordIdentity upserts the profile, then inserts the username. The two
// writes are deliberately not atomic: a username conflict after a successful
// profile upsert leaves the profile in place and surfaces ErrUsernameTaken,
// recoverable by retrying with a different username.
func (s *Service) recordIdentity(ctx context.Context, userID, username, email string) error {
	profile := identity.Profile{
		ID:           userID,
		Name:         username,
		ContactEmail: email,
	}
	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		return err
	}

	return s.store.InsertUsername(ctx, identity.NewProfileUsername(username, userID))
}

// syncProfileEmail keeps the profile's contact email aligned with the
// provider session. Failures are logged and swallowed; they must never block
// a successful sign-in.
func (s *Service) syncProfileEmail(ctx context.Context, sess *session.Session) {
	if sess.User == nil || sess.User.Email == "" {
		return
	}

	profile, err := s.store.GetProfile(ctx, sess.User.ID)
	if err != nil {
		profile = identity.Profile{ID: sess.User.ID}
	}
	if profile.ContactEmail == sess.User.Email {
		return
	}
	profile.ContactEmail = sess.User.Email

	if err := s.store.UpsertProfile(ctx, profile); err != nil {
		slogctx.Warn(ctx, "Failed to sync profile contact email", "error", err)
	}
}

func (s *Service) emit(sess *session.Session) {
	if s.notify != nil {
		s.notify.EmitAuthState(sess)
	}
}

func userIDOf(sess *session.Session, fallback *session.User) string {
	if sess != nil && sess.User != nil && sess.User.ID != "" {
		return sess.User.ID
	}
	if fallback != nil {
		return fallback.ID
	}

	return ""
}
