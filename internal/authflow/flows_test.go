package authflow_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdpm-dev/session-bridge/internal/authflow"
	"github.com/gdpm-dev/session-bridge/internal/identity"
	identitymock "github.com/gdpm-dev/session-bridge/internal/identity/mock"
	"github.com/gdpm-dev/session-bridge/internal/provider"
	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
	"github.com/gdpm-dev/session-bridge/internal/session"
)

type verifyAttempt struct {
	Type      provider.VerifyType
	Token     string
	TokenHash string
	Email     string
}

// fakeAuthAPI records every provider call; unset func fields fail the test
// when reached.
type fakeAuthAPI struct {
	t *testing.T

	signInFunc   func(email, password string) (*session.Session, error)
	signUpFunc   func(email, password string, metadata map[string]any) (*provider.SignUpResult, error)
	verifyFunc   func(params provider.VerifyParams) (*session.Session, error)
	exchangeFunc func(authCode string) (*session.Session, error)
	resendErr    error

	signIns   []string
	verifies  []verifyAttempt
	exchanges []string
	resends   []string
}

func (f *fakeAuthAPI) SignInWithPassword(_ context.Context, email, password string) (*session.Session, error) {
	f.signIns = append(f.signIns, email)
	if f.signInFunc == nil {
		f.t.Fatal("unexpected SignInWithPassword call")
	}
	return f.signInFunc(email, password)
}

func (f *fakeAuthAPI) SignUp(_ context.Context, email, password string, metadata map[string]any) (*provider.SignUpResult, error) {
	if f.signUpFunc == nil {
		f.t.Fatal("unexpected SignUp call")
	}
	return f.signUpFunc(email, password, metadata)
}

func (f *fakeAuthAPI) VerifyOTP(_ context.Context, params provider.VerifyParams) (*session.Session, error) {
	f.verifies = append(f.verifies, verifyAttempt{
		Type:      params.Type,
		Token:     params.Token,
		TokenHash: params.TokenHash,
		Email:     params.Email,
	})
	if f.verifyFunc == nil {
		return nil, &provider.APIError{Status: 403, ErrorCode: "otp_expired"}
	}
	return f.verifyFunc(params)
}

func (f *fakeAuthAPI) ExchangeCode(_ context.Context, authCode string) (*session.Session, error) {
	f.exchanges = append(f.exchanges, authCode)
	if f.exchangeFunc == nil {
		return nil, &provider.APIError{Status: 400, LegacyError: "invalid_grant"}
	}
	return f.exchangeFunc(authCode)
}

func (f *fakeAuthAPI) Resend(_ context.Context, _ provider.VerifyType, email string) error {
	f.resends = append(f.resends, email)
	return f.resendErr
}

type fakeSink struct {
	emits []*session.Session
}

func (f *fakeSink) EmitAuthState(sess *session.Session) {
	f.emits = append(f.emits, sess)
}

type fakeJar struct {
	cookies map[string]*http.Cookie
}

func newFakeJar() *fakeJar {
	return &fakeJar{cookies: map[string]*http.Cookie{}}
}

func (j *fakeJar) Get(name string) (string, bool) {
	cookie, ok := j.cookies[name]
	if !ok || cookie.MaxAge < 0 {
		return "", false
	}
	return cookie.Value, true
}

func (j *fakeJar) Set(cookie *http.Cookie) {
	j.cookies[cookie.Name] = cookie
}

func testCookieStore() *session.Store {
	return session.NewStore(session.Names{
		StorageKey: "sb-test-auth-token",
		Access:     "sb-test-access-token",
		Refresh:    "sb-test-refresh-token",
		Expires:    "sb-test-expires-at",
	}, false)
}

func activeSession(userID, email string) *session.Session {
	return &session.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		User: &session.User{
			ID:    userID,
			Email: email,
			Role:  "authenticated",
		},
	}
}

func TestSignIn(t *testing.T) {
	t.Run("email identifier bypasses the username lookup", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signInFunc: func(email, _ string) (*session.Session, error) {
			return activeSession("user-1", email), nil
		}}
		store := identitymock.NewInMemRepository(
			identitymock.WithLookupError(errors.New("lookup must not run")),
		)
		sink := &fakeSink{}
		svc := authflow.NewService(auth, store, testCookieStore(), sink)
		jar := newFakeJar()

		result := svc.SignIn(t.Context(), jar, "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		require.NotNil(t, result.Session)
		assert.Empty(t, result.Notice)
		assert.Equal(t, []string{"ada@example.com"}, auth.signIns)

		_, ok := jar.Get("sb-test-access-token")
		assert.True(t, ok)
		_, ok = jar.Get("sb-test-refresh-token")
		assert.True(t, ok)

		require.Len(t, sink.emits, 1)
		assert.Same(t, result.Session, sink.emits[0])
	})

	t.Run("username resolves to contact email", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signInFunc: func(email, _ string) (*session.Session, error) {
			return activeSession("user-1", email), nil
		}}
		store := identitymock.NewInMemRepository(
			identitymock.WithProfile(identity.Profile{ID: "user-1", Name: "Ada", ContactEmail: "ada@example.com"}),
			identitymock.WithUsername(identity.NewProfileUsername("Ada", "user-1")),
		)
		svc := authflow.NewService(auth, store, testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "ADA", "secret1")

		require.NoError(t, result.Err)
		assert.Equal(t, []string{"ada@example.com"}, auth.signIns)
	})

	t.Run("unknown username", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t}
		svc := authflow.NewService(auth, identitymock.NewInMemRepository(), testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "nobody", "secret1")

		assert.ErrorIs(t, result.Err, serviceerr.ErrIdentifierNotFound)
		assert.Nil(t, result.Session)
		assert.Empty(t, auth.signIns)
	})

	t.Run("schema missing surfaces setup guidance", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t}
		store := identitymock.NewInMemRepository(
			identitymock.WithLookupError(serviceerr.ErrSchemaMissing),
		)
		svc := authflow.NewService(auth, store, testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "ada", "secret1")

		assert.ErrorIs(t, result.Err, serviceerr.ErrSchemaMissing)
	})

	t.Run("unconfirmed email yields notice and resend", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signInFunc: func(string, string) (*session.Session, error) {
			return nil, &provider.APIError{Status: 400, ErrorCode: "email_not_confirmed"}
		}}
		sink := &fakeSink{}
		svc := authflow.NewService(auth, identitymock.NewInMemRepository(), testCookieStore(), sink)
		jar := newFakeJar()

		result := svc.SignIn(t.Context(), jar, "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		assert.Nil(t, result.Session)
		assert.Equal(t, authflow.NoticeConfirmEmail, result.Notice)
		assert.Equal(t, []string{"ada@example.com"}, auth.resends)
		assert.Empty(t, jar.cookies)
		assert.Empty(t, sink.emits)
	})

	t.Run("failed resend still yields notice", func(t *testing.T) {
		auth := &fakeAuthAPI{
			t: t,
			signInFunc: func(string, string) (*session.Session, error) {
				return nil, &provider.APIError{Status: 400, ErrorCode: "email_not_confirmed"}
			},
			resendErr: errors.New("smtp unavailable"),
		}
		svc := authflow.NewService(auth, identitymock.NewInMemRepository(), testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		assert.Equal(t, authflow.NoticeConfirmEmail, result.Notice)
	})

	t.Run("wrong password error passes through", func(t *testing.T) {
		wantErr := &provider.APIError{Status: 400, Message: "Invalid login credentials"}
		auth := &fakeAuthAPI{t: t, signInFunc: func(string, string) (*session.Session, error) {
			return nil, wantErr
		}}
		svc := authflow.NewService(auth, identitymock.NewInMemRepository(), testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "ada@example.com", "wrong")

		assert.ErrorIs(t, result.Err, wantErr)
		assert.Empty(t, auth.resends)
	})

	t.Run("contact email syncs from the live session", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signInFunc: func(string, string) (*session.Session, error) {
			return activeSession("user-1", "new@example.com"), nil
		}}
		store := identitymock.NewInMemRepository(
			identitymock.WithProfile(identity.Profile{ID: "user-1", Name: "Ada", ContactEmail: "old@example.com"}),
		)
		svc := authflow.NewService(auth, store, testCookieStore(), nil)

		result := svc.SignIn(t.Context(), newFakeJar(), "new@example.com", "secret1")

		require.NoError(t, result.Err)
		profiles := store.Profiles()
		require.Len(t, profiles, 1)
		assert.Equal(t, "new@example.com", profiles[0].ContactEmail)
		assert.Equal(t, "Ada", profiles[0].Name)
	})

	t.Run("profile sync failure never blocks sign-in", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signInFunc: func(string, string) (*session.Session, error) {
			return activeSession("user-1", "ada@example.com"), nil
		}}
		store := identitymock.NewInMemRepository(
			identitymock.WithUpsertProfileError(errors.New("db down")),
		)
		svc := authflow.NewService(auth, store, testCookieStore(), nil)
		jar := newFakeJar()

		result := svc.SignIn(t.Context(), jar, "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		require.NotNil(t, result.Session)
		_, ok := jar.Get("sb-test-access-token")
		assert.True(t, ok)
	})
}

func TestSignUp(t *testing.T) {
	t.Run("confirmation pending defers all writes", func(t *testing.T) {
		auth := &fakeAuthAPI{t: t, signUpFunc: func(_, _ string, metadata map[string]any) (*provider.SignUpResult, error) {
			assert.Equal(t, "ada", metadata["username"])
			return &provider.SignUpResult{User: &session.User{ID: "user-1"}}, nil
		}}
		store := identitymock.NewInMemRepository()
		sink := &fakeSink{}
		svc := authflow.NewService(auth, store, testCookieStore(), sink)
		jar := newFakeJar()

		result := svc.SignUp(t.Context(), jar, "ada", "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		assert.Nil(t, result.Session)
		assert.Equal(t, authflow.NoticeConfirmEmail, result.Notice)
		assert.Empty(t, store.Profiles())
		assert.Empty(t, store.Usernames())
		assert.Empty(t, jar.cookies)
		assert.Empty(t, sink.emits)
	})

	t.Run("immediate session records profile and username", func(t *testing.T) {
		sess := activeSession("user-1", "ada@example.com")
		auth := &fakeAuthAPI{t: t, signUpFunc: func(string, string, map[string]any) (*provider.SignUpResult, error) {
			return &provider.SignUpResult{Session: sess, User: sess.User}, nil
		}}
		store := identitymock.NewInMemRepository()
		sink := &fakeSink{}
		svc := authflow.NewService(auth, store, testCookieStore(), sink)
		jar := newFakeJar()

		result := svc.SignUp(t.Context(), jar, "Ada", "ada@example.com", "secret1")

		require.NoError(t, result.Err)
		assert.Same(t, sess, result.Session)

		profiles := store.Profiles()
		require.Len(t, profiles, 1)
		assert.Equal(t, identity.Profile{ID: "user-1", Name: "Ada", ContactEmail: "ada@example.com"}, profiles[0])

		usernames := store.Usernames()
		require.Len(t, usernames, 1)
		assert.Equal(t, "Ada", usernames[0].Display)
		assert.Equal(t, "ada", usernames[0].Normal)
		assert.Equal(t, "user-1", usernames[0].ProfileID)

		_, ok := jar.Get("sb-test-access-token")
		assert.True(t, ok)
		require.Len(t, sink.emits, 1)
	})

	t.Run("taken username leaves the profile in place", func(t *testing.T) {
		sess := activeSession("user-2", "grace@example.com")
		auth := &fakeAuthAPI{t: t, signUpFunc: func(string, string, map[string]any) (*provider.SignUpResult, error) {
			return &provider.SignUpResult{Session: sess, User: sess.User}, nil
		}}
		store := identitymock.NewInMemRepository(
			identitymock.WithUsername(identity.NewProfileUsername("grace", "user-1")),
		)
		svc := authflow.NewService(auth, store, testCookieStore(), nil)
		jar := newFakeJar()

		result := svc.SignUp(t.Context(), jar, "Grace", "grace@example.com", "secret1")

		assert.ErrorIs(t, result.Err, serviceerr.ErrUsernameTaken)
		assert.Nil(t, result.Session)
		// the profile upsert is not rolled back
		require.Len(t, store.Profiles(), 1)
		assert.Empty(t, jar.cookies)
	})

	t.Run("duplicate account error passes through", func(t *testing.T) {
		wantErr := &provider.APIError{Status: 422, ErrorCode: "user_already_exists"}
		auth := &fakeAuthAPI{t: t, signUpFunc: func(string, string, map[string]any) (*provider.SignUpResult, error) {
			return nil, wantErr
		}}
		svc := authflow.NewService(auth, identitymock.NewInMemRepository(), testCookieStore(), nil)

		result := svc.SignUp(t.Context(), newFakeJar(), "ada", "ada@example.com", "secret1")

		assert.True(t, provider.IsUserAlreadyExists(result.Err))
	})
}

func TestSignOut(t *testing.T) {
	jar := newFakeJar()
	jar.Set(&http.Cookie{Name: "sb-test-access-token", Value: "access-token", MaxAge: 3600})
	jar.Set(&http.Cookie{Name: "sb-test-refresh-token", Value: "refresh-token", MaxAge: 3600})

	sink := &fakeSink{}
	svc := authflow.NewService(&fakeAuthAPI{t: t}, identitymock.NewInMemRepository(), testCookieStore(), sink)
	svc.SignOut(t.Context(), jar)

	_, ok := jar.Get("sb-test-access-token")
	assert.False(t, ok)
	_, ok = jar.Get("sb-test-refresh-token")
	assert.False(t, ok)

	require.Len(t, sink.emits, 1)
	assert.Nil(t, sink.emits[0])
}
