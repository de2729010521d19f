// Package auth obtains and scopes the Google credential used to call Search
// Console. Two providers implement the same contract: SessionProvider keeps
// one in-memory credential per connected session, SharedProvider keeps a
// single persisted process-wide credential. The deployment picks one at
// startup.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
)

// ErrExchangeFailed indicates the authorization-code exchange failed. The
// flow is not retried automatically; the human restarts it from /auth.
var ErrExchangeFailed = errors.New("authorization code exchange failed")

// AuthRequiredError reports that no credential is available yet. URL is the
// consent redirect a human must visit to authorize the server.
type AuthRequiredError struct {
	URL string
}

func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf("authentication required: visit %s to authorize access", e.URL)
}

// Provider resolves credentials into Search Console operation sets.
// Implementations must be safe for concurrent use across sessions.
type Provider interface {
	// Resolve returns the operation set available to the named session. When
	// no credential is available the error is an *AuthRequiredError carrying
	// the consent URL.
	Resolve(ctx context.Context, sessionID string) (searchconsole.Operations, error)

	// AuthorizationURL builds the consent redirect URL. Per-session providers
	// embed the session identifier as OAuth state and reject an empty one.
	AuthorizationURL(sessionID string) (string, error)

	// CompleteExchange exchanges an authorization code for a credential and
	// binds or persists it. state is the value round-tripped through the
	// consent redirect.
	CompleteExchange(ctx context.Context, code, state string) error
}

// Flow wraps the authorization-code dance against Google's OAuth endpoint.
type Flow struct {
	cfg *oauth2.Config
}

// NewFlow builds a Flow for the given client registration. The credential is
// scoped to full Search Console access; sitemap submission needs write.
func NewFlow(clientID, clientSecret, redirectURI string) *Flow {
	return &Flow{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{gsc.WebmastersScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthorizationURL constructs the consent URL. Offline access requests a
// refresh token so the credential outlives the first hour.
func (f *Flow) AuthorizationURL(state string) string {
	return f.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token bundle.
func (f *Flow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := f.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	return tok, nil
}

// TokenSource returns a self-refreshing source seeded with tok. Refresh is
// the credential layer's responsibility; nothing downstream re-checks expiry.
func (f *Flow) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return f.cfg.TokenSource(ctx, tok)
}
