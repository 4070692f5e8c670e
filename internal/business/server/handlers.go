// Package server exposes the credential flows over thin HTTP glue routes.
// Handlers only marshal form fields, branch on the uniform flow result, and
// redirect; everything with design content lives below them.
package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/gdpm-dev/session-bridge/internal/authflow"
	"github.com/gdpm-dev/session-bridge/internal/session"
)

// Bridge bundles the two services the routes consume.
type Bridge struct {
	Flows    *authflow.Service
	Resolver *session.Resolver
}

func redirectWithStatus(w http.ResponseWriter, pathname, status, tone string) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if tone != "" {
		params.Set("tone", tone)
	}

	location := pathname
	if encoded := params.Encode(); encoded != "" {
		location += "?" + encoded
	}

	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}

func redirectHome(w http.ResponseWriter) {
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusSeeOther)
}

// writeResult maps the uniform flow result onto the user-visible redirect.
func writeResult(w http.ResponseWriter, result authflow.Result, backTo string) {
	switch {
	case result.Err != nil:
		redirectWithStatus(w, backTo, result.Err.Error(), "error")
	case result.Notice != "":
		redirectWithStatus(w, backTo, result.Notice, "success")
	default:
		redirectHome(w)
	}
}

func (b *Bridge) handleSignIn(w http.ResponseWriter, r *http.Request) {
	jar := newRequestJar(w, r)
	if sess, _ := b.Resolver.GetServerSession(r.Context(), jar); sess != nil {
		redirectHome(w)
		return
	}

	identifier := strings.TrimSpace(r.PostFormValue("identifier"))
	password := strings.TrimSpace(r.PostFormValue("password"))
	if identifier == "" || password == "" {
		redirectWithStatus(w, "/signin", "Email or username and password are required.", "error")
		return
	}

	writeResult(w, b.Flows.SignIn(r.Context(), jar, identifier, password), "/signin")
}

func (b *Bridge) handleSignUp(w http.ResponseWriter, r *http.Request) {
	jar := newRequestJar(w, r)
	if sess, _ := b.Resolver.GetServerSession(r.Context(), jar); sess != nil {
		redirectHome(w)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := strings.TrimSpace(r.PostFormValue("password"))
	if username == "" || email == "" || password == "" {
		redirectWithStatus(w, "/signup", "Username, email, and password are required.", "error")
		return
	}

	writeResult(w, b.Flows.SignUp(r.Context(), jar, username, email, password), "/signup")
}

func (b *Bridge) handleConfirm(w http.ResponseWriter, r *http.Request) {
	jar := newRequestJar(w, r)

	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(r.PostFormValue("email"))
	code := strings.TrimSpace(r.PostFormValue("code"))
	// an absent username would only fail identity bookkeeping after the
	// single-use code was already consumed, so reject it up front
	if username == "" || email == "" || code == "" {
		redirectWithStatus(w, "/confirm", "Username, email, and confirmation code are required.", "error")
		return
	}

	writeResult(w, b.Flows.ConfirmSignUp(r.Context(), jar, username, email, code), "/confirm")
}

func (b *Bridge) handleSignOut(w http.ResponseWriter, r *http.Request) {
	b.Flows.SignOut(r.Context(), newRequestJar(w, r))
	redirectWithStatus(w, "/signin", "", "")
}

func (b *Bridge) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := b.Resolver.GetServerSession(r.Context(), newRequestJar(w, r))

	type sessionBody struct {
		Session *session.Session `json:"session"`
		Error   string           `json:"error,omitempty"`
	}

	body := sessionBody{Session: sess}
	if err != nil {
		body.Error = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slogctx.Error(r.Context(), "Failed to encode session response", "error", err)
	}
}
