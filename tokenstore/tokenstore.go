// Package tokenstore persists the process-wide OAuth credential across
// restarts. Absence of a stored token is not an error; it only means the
// interactive consent flow has not completed yet.
package tokenstore

import (
	"context"

	"golang.org/x/oauth2"
)

// Store loads and saves the single shared credential.
type Store interface {
	// Load returns the stored token, or (nil, nil) when none is stored.
	Load(ctx context.Context) (*oauth2.Token, error)

	// Save replaces the stored token.
	Save(ctx context.Context, tok *oauth2.Token) error
}
