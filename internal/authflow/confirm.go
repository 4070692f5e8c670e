package authflow

import (
	"context"
	"net/url"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/gdpm-dev/session-bridge/internal/provider"
	"github.com/gdpm-dev/session-bridge/internal/serviceerr"
	"github.com/gdpm-dev/session-bridge/internal/session"
)

// defaultVerifyTypes are every confirmation type a signup code can plausibly
// carry, in the order they are tried.
var defaultVerifyTypes = []provider.VerifyType{
	provider.VerifyTypeSignup,
	provider.VerifyTypeEmail,
	provider.VerifyTypeMagiclink,
}

// verifyCode resolves a tolerant confirmation input: a full confirmation
// URL, a bare one-time code (possibly with separators), or a raw token hash.
// Candidates are tried in order and the first successful verification wins.
// This is a correctness search over an ambiguous input, not a retry loop.
func (s *Service) verifyCode(ctx context.Context, email, code string) (*session.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, serviceerr.ErrVerificationFailed
	}

	if query, ok := confirmURLQuery(code); ok {
		return s.verifyFromURL(ctx, query)
	}

	if otp, ok := asOneTimeCode(code); ok {
		return s.verifyOneTimeCode(ctx, email, otp)
	}

	return s.verifyTokenHash(ctx, code, "")
}

func (s *Service) verifyFromURL(ctx context.Context, query url.Values) (*session.Session, error) {
	if authCode := query.Get("code"); authCode != "" {
		sess, err := s.auth.ExchangeCode(ctx, authCode)
		if err == nil {
			return sess, nil
		}
		slogctx.Debug(ctx, "Auth code exchange failed; trying remaining strategies", "error", err)
	}

	tokenHash := query.Get("token_hash")
	if tokenHash == "" {
		tokenHash = query.Get("token")
	}
	if tokenHash == "" {
		return nil, serviceerr.ErrVerificationFailed
	}

	return s.verifyTokenHash(ctx, tokenHash, provider.VerifyType(query.Get("type")))
}

func (s *Service) verifyTokenHash(ctx context.Context, tokenHash string, embedded provider.VerifyType) (*session.Session, error) {
	for _, typ := range verifyTypesWith(embedded) {
		sess, err := s.auth.VerifyOTP(ctx, provider.VerifyParams{Type: typ, TokenHash: tokenHash})
		if err == nil {
			return sess, nil
		}
		slogctx.Debug(ctx, "Token hash verification failed", "type", typ, "error", err)
	}

	return nil, serviceerr.ErrVerificationFailed
}

func (s *Service) verifyOneTimeCode(ctx context.Context, email, otp string) (*session.Session, error) {
	for _, typ := range defaultVerifyTypes {
		for _, addr := range emailVariants(email) {
			sess, err := s.auth.VerifyOTP(ctx, provider.VerifyParams{Type: typ, Token: otp, Email: addr})
			if err == nil {
				return sess, nil
			}
			slogctx.Debug(ctx, "One-time code verification failed", "type", typ, "error", err)
		}
	}

	return nil, serviceerr.ErrVerificationFailed
}

// confirmURLQuery extracts the query parameters when code is a full
// confirmation URL.
func confirmURLQuery(code string) (url.Values, bool) {
	if !strings.Contains(code, "://") {
		return nil, false
	}

	u, err := url.Parse(code)
	if err != nil || u.Host == "" {
		return nil, false
	}

	query := u.Query()
	// some providers put the parameters in the fragment instead
	if len(query) == 0 && u.Fragment != "" {
		if fragQuery, err := url.ParseQuery(u.Fragment); err == nil {
			query = fragQuery
		}
	}

	return query, true
}

// asOneTimeCode reports whether code is a 6-8 digit one-time code, tolerating
// separators like spaces and dashes.
func asOneTimeCode(code string) (string, bool) {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '_':
			return -1
		}
		return r
	}, code)

	if len(stripped) < 6 || len(stripped) > 8 {
		return "", false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return "", false
		}
	}

	return stripped, true
}

// verifyTypesWith puts the type embedded in a confirmation URL first, then
// falls back to every plausible type.
func verifyTypesWith(embedded provider.VerifyType) []provider.VerifyType {
	if embedded == "" {
		return defaultVerifyTypes
	}

	types := []provider.VerifyType{embedded}
	for _, typ := range defaultVerifyTypes {
		if typ != embedded {
			types = append(types, typ)
		}
	}

	return types
}

// emailVariants returns the case variants of the supplied email worth trying
// against a one-time code, the address as supplied first.
func emailVariants(email string) []string {
	email = strings.TrimSpace(email)
	lower := strings.ToLower(email)
	if lower == email {
		return []string{email}
	}

	return []string{email, lower}
}
