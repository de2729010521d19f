package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
)

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   2, // separate DB for token store tests
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	const key = "searchconsole-mcp:token:test"
	client.Del(ctx, key)
	t.Cleanup(func() { client.Del(ctx, key) })

	store, err := NewRedisStore(client, key)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}

	t.Run("absent token is not an error", func(t *testing.T) {
		tok, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if tok != nil {
			t.Fatalf("want nil token, got %+v", tok)
		}
	})

	want := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}

	t.Run("save and load round-trip", func(t *testing.T) {
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
			t.Fatalf("roundtrip mismatch: %+v", got)
		}
	})

	t.Run("value lives under the configured key", func(t *testing.T) {
		n, err := client.Exists(ctx, key).Result()
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Fatalf("token not stored under %q", key)
		}
	})

	t.Run("save replaces the previous token", func(t *testing.T) {
		if err := store.Save(ctx, &oauth2.Token{AccessToken: "rotated"}); err != nil {
			t.Fatal(err)
		}
		got, err := store.Load(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got.AccessToken != "rotated" {
			t.Fatalf("token not replaced: %+v", got)
		}
	})
}

func TestRedisStoreDefaultKey(t *testing.T) {
	client := newTestRedisClient(t)

	store, err := NewRedisStore(client, "")
	if err != nil {
		t.Fatal(err)
	}
	if store.key != defaultRedisKey {
		t.Fatalf("want default key %q, got %q", defaultRedisKey, store.key)
	}
}

func TestRedisStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisStore(nil, ""); err == nil {
		t.Fatal("nil client must be rejected")
	}
}
