package sessions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
)

// ErrSessionClosed indicates a send was attempted after the session's stream
// ended.
var ErrSessionClosed = errors.New("session closed")

// Session is one logical client connection. Frames queued via Send are
// drained by the transport goroutine that owns the SSE stream.
type Session struct {
	id  string
	out chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu  sync.RWMutex
	ops searchconsole.Operations

	lastSeen atomic.Int64 // unix nanos
}

func newSession(id string) *Session {
	s := &Session{
		id:   id,
		out:  make(chan []byte, 16),
		done: make(chan struct{}),
	}
	s.Touch()
	return s
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// Frames is the outbound frame channel drained by the stream writer. It is
// never closed; stream writers must also select on Done.
func (s *Session) Frames() <-chan []byte { return s.out }

// Done is closed when the session is removed from the registry.
func (s *Session) Done() <-chan struct{} { return s.done }

// Send queues a frame for delivery over the session's stream. It fails once
// the session is closed or the context ends.
func (s *Session) Send(ctx context.Context, frame []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.out <- frame:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Operations returns the bound operation set, if authentication completed.
func (s *Session) Operations() (searchconsole.Operations, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops, s.ops != nil
}

// bind attaches the operation set. The transition happens at most once per
// session; later binds overwrite, which only occurs when a human re-runs the
// consent flow for a live session.
func (s *Session) bind(ops searchconsole.Operations) {
	s.mu.Lock()
	s.ops = ops
	s.mu.Unlock()
}

// Touch records activity for idle-eviction accounting.
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
