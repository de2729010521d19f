package tokenstore

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore holds the credential in process memory. Used by tests and as
// the backing store when persistence is not wanted.
type MemoryStore struct {
	mu  sync.Mutex
	tok *oauth2.Token
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok, nil
}

func (s *MemoryStore) Save(ctx context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
	return nil
}
