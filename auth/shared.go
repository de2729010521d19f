package auth

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
	"github.com/seoscope/searchconsole-mcp/tokenstore"
)

var _ Provider = (*SharedProvider)(nil)

// SharedProvider holds one process-wide credential, loaded lazily from a
// token store and persisted after each successful exchange. All sessions
// share the same operation set; it outlives any single session.
type SharedProvider struct {
	flow    *Flow
	store   tokenstore.Store
	factory searchconsole.Factory

	mu        sync.Mutex
	ops       searchconsole.Operations
	loadTried bool
}

// NewSharedProvider wires the flow, the persistence backend, and the
// operation-set factory.
func NewSharedProvider(flow *Flow, store tokenstore.Store, factory searchconsole.Factory) *SharedProvider {
	return &SharedProvider{flow: flow, store: store, factory: factory}
}

// Resolve returns the shared operation set, loading the persisted credential
// at most once even under concurrent first use. With no stored credential the
// error is an AuthRequiredError pointing at the consent flow.
func (p *SharedProvider) Resolve(ctx context.Context, sessionID string) (searchconsole.Operations, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ops != nil {
		return p.ops, nil
	}
	if !p.loadTried {
		tok, err := p.store.Load(ctx)
		if err != nil {
			// Leave loadTried unset: a transient store failure should not
			// force a human back through consent.
			return nil, fmt.Errorf("failed to load persisted credential: %w", err)
		}
		p.loadTried = true
		if tok != nil {
			ops, err := p.buildOps(tok)
			if err != nil {
				return nil, err
			}
			p.ops = ops
			return p.ops, nil
		}
	}
	return nil, &AuthRequiredError{URL: p.flow.AuthorizationURL("")}
}

// AuthorizationURL needs no correlation state in shared mode.
func (p *SharedProvider) AuthorizationURL(sessionID string) (string, error) {
	return p.flow.AuthorizationURL(""), nil
}

// CompleteExchange exchanges the code, persists the credential, and replaces
// the shared operation set. state is ignored.
func (p *SharedProvider) CompleteExchange(ctx context.Context, code, state string) error {
	tok, err := p.flow.Exchange(ctx, code)
	if err != nil {
		return err
	}
	if err := p.store.Save(ctx, tok); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	ops, err := p.buildOps(tok)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.ops = ops
	p.loadTried = true
	p.mu.Unlock()
	return nil
}

// Authenticated reports whether a credential is available, for the status
// page. It does not trigger a store load.
func (p *SharedProvider) Authenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ops != nil
}

func (p *SharedProvider) buildOps(tok *oauth2.Token) (searchconsole.Operations, error) {
	base := p.flow.TokenSource(context.Background(), tok)
	ts := &persistingTokenSource{base: base, store: p.store, last: tok.AccessToken}
	ops, err := p.factory(context.Background(), ts)
	if err != nil {
		return nil, fmt.Errorf("failed to build operation set: %w", err)
	}
	return ops, nil
}

// persistingTokenSource re-persists the token whenever the underlying source
// rotates the access token, so a restart after a refresh does not replay the
// stale token.
type persistingTokenSource struct {
	base  oauth2.TokenSource
	store tokenstore.Store

	mu   sync.Mutex
	last string
}

func (ts *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := ts.base.Token()
	if err != nil {
		return nil, err
	}
	ts.mu.Lock()
	rotated := tok.AccessToken != ts.last
	if rotated {
		ts.last = tok.AccessToken
	}
	ts.mu.Unlock()
	if rotated {
		// Best effort: a failed save costs one extra consent after restart.
		_ = ts.store.Save(context.Background(), tok)
	}
	return tok, nil
}
