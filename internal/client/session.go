package client

import (
	"context"
	"sync"
)

// State is the phase of a chat session's send cycle.
type State int

const (
	// StateIdle means no exchange is in flight; Send is accepted.
	StateIdle State = iota
	// StateSending means the request is being issued but no content has
	// arrived yet.
	StateSending
	// StateStreaming means reply tokens are arriving.
	StateStreaming
)

// Session wraps a Client with the single-flight guard: at most one exchange
// is in flight, and a Send attempted while one is running is a no-op. The
// session always returns to Idle, whichever terminal path the stream takes.
type Session struct {
	client *Client

	mu    sync.Mutex
	state State
}

// NewSession creates an idle session over the given client.
func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	return s.State() != StateIdle
}

// Send runs one exchange through the stream consumer. It reports ok=false
// without issuing a request when another exchange is already in flight.
func (s *Session) Send(ctx context.Context, message string, view View) (Outcome, bool) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return 0, false
	}
	s.state = StateSending
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateIdle
		s.mu.Unlock()
	}()

	return s.client.Stream(ctx, message, &trackingView{session: s, inner: view}), true
}

// trackingView flips the session to Streaming on the first token so callers
// can distinguish "waiting on the request" from "reply in progress".
type trackingView struct {
	session *Session
	inner   View
}

func (v *trackingView) AppendToken(token string) {
	v.session.mu.Lock()
	v.session.state = StateStreaming
	v.session.mu.Unlock()
	v.inner.AppendToken(token)
}

func (v *trackingView) Complete(full string) { v.inner.Complete(full) }

func (v *trackingView) Fail(message string) { v.inner.Fail(message) }
