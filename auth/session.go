package auth

import (
	"context"
	"fmt"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
	"github.com/seoscope/searchconsole-mcp/sessions"
)

var _ Provider = (*SessionProvider)(nil)

// SessionProvider binds one in-memory credential to each session. The session
// identifier rides the consent redirect as OAuth state so the callback can be
// routed back to the originating session. Nothing is persisted; the
// credential dies with the session.
type SessionProvider struct {
	flow     *Flow
	registry *sessions.Registry
	factory  searchconsole.Factory
}

// NewSessionProvider wires the flow, the registry the credentials bind into,
// and the factory that turns a token source into an operation set.
func NewSessionProvider(flow *Flow, registry *sessions.Registry, factory searchconsole.Factory) *SessionProvider {
	return &SessionProvider{flow: flow, registry: registry, factory: factory}
}

// Resolve returns the session's bound operation set, or an AuthRequiredError
// pointing the human at the consent flow for this session.
func (p *SessionProvider) Resolve(ctx context.Context, sessionID string) (searchconsole.Operations, error) {
	sess, ok := p.registry.Get(sessionID)
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	if ops, ok := sess.Operations(); ok {
		return ops, nil
	}
	url, err := p.AuthorizationURL(sessionID)
	if err != nil {
		return nil, err
	}
	return nil, &AuthRequiredError{URL: url}
}

// AuthorizationURL embeds the session identifier as correlation state.
func (p *SessionProvider) AuthorizationURL(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("sessionId is required in per-session credential mode")
	}
	return p.flow.AuthorizationURL(sessionID), nil
}

// CompleteExchange exchanges the code and binds the resulting operation set
// to the session named by state. A session that died during the redirect
// surfaces as sessions.ErrSessionNotFound.
func (p *SessionProvider) CompleteExchange(ctx context.Context, code, state string) error {
	if state == "" {
		return fmt.Errorf("missing state: cannot correlate callback to a session")
	}
	if _, ok := p.registry.Get(state); !ok {
		return sessions.ErrSessionNotFound
	}
	tok, err := p.flow.Exchange(ctx, code)
	if err != nil {
		return err
	}
	ops, err := p.factory(ctx, p.flow.TokenSource(context.Background(), tok))
	if err != nil {
		return fmt.Errorf("failed to build operation set: %w", err)
	}
	return p.registry.Bind(state, ops)
}
