package provider

import (
	"net/http"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/gdpm-dev/session-bridge/internal/session"
)

// Handle is a process-wide client for one backend endpoint. It carries the
// auth-state listener slot the browser path attaches to, guarded so a second
// attach is a no-op.
type Handle struct {
	*Client

	mu       sync.Mutex
	attached bool
	listener func(sess *session.Session)
}

// OnAuthStateChange registers fn to run on every auth-state change. Only the
// first listener wins; subsequent calls report false and change nothing.
func (h *Handle) OnAuthStateChange(fn func(sess *session.Session)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attached {
		return false
	}
	h.attached = true
	h.listener = fn

	return true
}

// EmitAuthState notifies the attached listener, if any, of a new session
// state. A nil session signals sign-out.
func (h *Handle) EmitAuthState(sess *session.Session) {
	h.mu.Lock()
	fn := h.listener
	h.mu.Unlock()

	if fn != nil {
		fn(sess)
	}
}

// Registry hands out one Handle per backend endpoint for the lifetime of the
// process.
type Registry struct {
	mu      sync.Mutex
	handles *gocache.Cache
	http    *http.Client
}

func NewRegistry(httpClient *http.Client) *Registry {
	return &Registry{
		handles: gocache.New(gocache.NoExpiration, 0),
		http:    httpClient,
	}
}

// GetOrCreate returns the handle for endpoint, creating it on first use.
// Two calls with the same endpoint never yield two handles.
func (r *Registry) GetOrCreate(endpoint, anonKey string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.handles.Get(endpoint); ok {
		//nolint:forcetypeassert
		return cached.(*Handle)
	}

	handle := &Handle{Client: NewClient(endpoint, anonKey, r.http)}
	r.handles.Set(endpoint, handle, gocache.NoExpiration)

	return handle
}
