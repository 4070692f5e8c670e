// Package provider is the REST client for the hosted auth backend: password
// grant, sign-up, one-time-code verification, auth-code exchange, and the
// user endpoint used for session revalidation.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gdpm-dev/session-bridge/internal/session"
)

// VerifyType is the confirmation "type" enum of the verification endpoint.
type VerifyType string

const (
	VerifyTypeSignup    VerifyType = "signup"
	VerifyTypeEmail     VerifyType = "email"
	VerifyTypeMagiclink VerifyType = "magiclink"
)

type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	now     func() time.Time
}

func NewClient(baseURL, anonKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    httpClient,
		now:     time.Now,
	}
}

type wireUser struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud"`
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type wireSession struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	RefreshToken string    `json:"refresh_token"`
	User         *wireUser `json:"user"`
}

// SignUpResult carries the provider's sign-up outcome. Session is nil when
// email confirmation is required before a session can be issued.
type SignUpResult struct {
	Session *session.Session
	User    *session.User
}

// VerifyParams parameterizes one verification attempt. Either Token (with
// Email) or TokenHash is set, never both.
type VerifyParams struct {
	Type      VerifyType
	Token     string
	TokenHash string
	Email     string
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	body := map[string]string{"email": email, "password": password}

	raw, err := c.post(ctx, "/auth/v1/token", url.Values{"grant_type": {"password"}}, body, "")
	if err != nil {
		return nil, err
	}

	return c.decodeSession(raw)
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*SignUpResult, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	raw, err := c.post(ctx, "/auth/v1/signup", nil, body, "")
	if err != nil {
		return nil, err
	}

	var ws wireSession
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("decoding sign-up response: %w", err)
	}
	if ws.AccessToken != "" {
		sess := c.toSession(ws)
		return &SignUpResult{Session: sess, User: sess.User}, nil
	}

	// confirmation pending: the response is the bare user object
	var wu wireUser
	if err := json.Unmarshal(raw, &wu); err != nil {
		return nil, fmt.Errorf("decoding sign-up user response: %w", err)
	}

	return &SignUpResult{User: toUser(&wu)}, nil
}

func (c *Client) VerifyOTP(ctx context.Context, params VerifyParams) (*session.Session, error) {
	body := map[string]string{"type": string(params.Type)}
	if params.TokenHash != "" {
		body["token_hash"] = params.TokenHash
	} else {
		body["token"] = params.Token
		body["email"] = params.Email
	}

	raw, err := c.post(ctx, "/auth/v1/verify", nil, body, "")
	if err != nil {
		return nil, err
	}

	return c.decodeSession(raw)
}

func (c *Client) ExchangeCode(ctx context.Context, authCode string) (*session.Session, error) {
	body := map[string]string{"auth_code": authCode}

	raw, err := c.post(ctx, "/auth/v1/token", url.Values{"grant_type": {"pkce"}}, body, "")
	if err != nil {
		return nil, err
	}

	return c.decodeSession(raw)
}

// Resend asks the provider to send the confirmation email again.
func (c *Client) Resend(ctx context.Context, typ VerifyType, email string) error {
	body := map[string]string{"type": string(typ), "email": email}

	_, err := c.post(ctx, "/auth/v1/resend", nil, body, "")

	return err
}

// GetUser validates an access token against the provider and returns the
// user it belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*session.User, error) {
	raw, err := c.request(ctx, http.MethodGet, "/auth/v1/user", nil, nil, accessToken)
	if err != nil {
		return nil, err
	}

	var wu wireUser
	if err := json.Unmarshal(raw, &wu); err != nil {
		return nil, fmt.Errorf("decoding user response: %w", err)
	}

	return toUser(&wu), nil
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body any, bearer string) ([]byte, error) {
	return c.request(ctx, http.MethodPost, path, query, body, bearer)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, bearer string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		// a non-JSON error body still yields a usable status-only error
		_ = json.Unmarshal(raw, apiErr)
		return nil, apiErr
	}

	return raw, nil
}

func (c *Client) decodeSession(raw []byte) (*session.Session, error) {
	var ws wireSession
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, fmt.Errorf("decoding session response: %w", err)
	}
	if ws.AccessToken == "" {
		return nil, fmt.Errorf("provider response carried no session")
	}

	return c.toSession(ws), nil
}

func (c *Client) toSession(ws wireSession) *session.Session {
	expiresAt := ws.ExpiresAt
	if expiresAt == 0 && ws.ExpiresIn > 0 {
		expiresAt = c.now().Unix() + ws.ExpiresIn
	}

	return &session.Session{
		AccessToken:  ws.AccessToken,
		RefreshToken: ws.RefreshToken,
		TokenType:    ws.TokenType,
		ExpiresAt:    expiresAt,
		ExpiresIn:    ws.ExpiresIn,
		User:         toUser(ws.User),
	}
}

func toUser(wu *wireUser) *session.User {
	if wu == nil || wu.ID == "" {
		return nil
	}

	return &session.User{
		ID:           wu.ID,
		Audience:     wu.Aud,
		Role:         wu.Role,
		Email:        wu.Email,
		AppMetadata:  wu.AppMetadata,
		UserMetadata: wu.UserMetadata,
	}
}
