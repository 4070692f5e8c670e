package session_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// makeToken builds a structurally valid access token carrying claims. The
// signature is fake; the bridge never verifies it.
func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	signature := base64.RawURLEncoding.EncodeToString([]byte("test-signature"))

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + "." + signature
}

// fakeJar is a map-backed session.Jar.
type fakeJar struct {
	cookies map[string]*http.Cookie
}

func newFakeJar() *fakeJar {
	return &fakeJar{cookies: make(map[string]*http.Cookie)}
}

func (j *fakeJar) Get(name string) (string, bool) {
	c, ok := j.cookies[name]
	if !ok || c.MaxAge < 0 {
		return "", false
	}
	return c.Value, true
}

func (j *fakeJar) Set(c *http.Cookie) {
	j.cookies[c.Name] = c
}
