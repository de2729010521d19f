package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

const defaultRedisKey = "searchconsole-mcp:token"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps the credential under a single Redis key, for deployments
// without a stable disk.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing Redis client. An empty key selects the
// default.
func NewRedisStore(client *redis.Client, key string) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{client: client, key: key}, nil
}

// NewRedisStoreFromURL dials Redis from a redis:// URL.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), "")
}

// Load reads the stored token. A missing key yields (nil, nil).
func (s *RedisStore) Load(ctx context.Context) (*oauth2.Token, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token key %s: %w", s.key, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}
	return &tok, nil
}

// Save replaces the stored token. No TTL: the refresh token stays valid until
// revoked, and expiry of the access token is tracked inside the value.
func (s *RedisStore) Save(ctx context.Context, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set token key %s: %w", s.key, err)
	}
	return nil
}
