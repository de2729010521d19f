package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
)

// ErrSessionNotFound indicates the identifier names no live session. The
// common cause is a client that disconnected while the human was still on the
// consent page.
var ErrSessionNotFound = errors.New("session not found")

// Registry owns all live sessions, keyed by identifier. Construct one per
// process and inject it into every handler that needs it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout enables eviction of sessions that stay unauthenticated and
// silent for the given duration. Zero (the default) disables eviction.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTimeout = d }
}

// NewRegistry constructs an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{sessions: make(map[string]*Session)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create allocates a session under a fresh identifier. Identifiers are
// uuid v4, so collision with a live session is not a practical concern.
func (r *Registry) Create() *Session {
	s := newSession(uuid.NewString())
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// Get resolves a session by identifier.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	return s, ok
}

// Bind attaches an operation set to the named session. Returns
// ErrSessionNotFound when the session is gone; callers surface that as a
// recoverable "session expired" condition rather than a fault.
func (r *Registry) Bind(id string, ops searchconsole.Operations) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.bind(ops)
	return nil
}

// Remove drops the named session and releases its stream. Safe to call more
// than once and for identifiers that never existed.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		s.close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions that have been idle past the configured timeout and
// never authenticated, returning the evicted identifiers. A no-op when no
// timeout is configured.
func (r *Registry) Sweep(now time.Time) []string {
	if r.idleTimeout <= 0 {
		return nil
	}

	r.mu.RLock()
	var stale []*Session
	for _, s := range r.sessions {
		if _, authed := s.Operations(); authed {
			continue
		}
		if now.Sub(s.idleSince()) >= r.idleTimeout {
			stale = append(stale, s)
		}
	}
	r.mu.RUnlock()

	evicted := make([]string, 0, len(stale))
	for _, s := range stale {
		r.Remove(s.id)
		evicted = append(evicted, s.id)
	}
	return evicted
}
