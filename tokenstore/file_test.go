package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/seoscope/searchconsole-mcp/tokenstore"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := tokenstore.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("absent token is not an error", func(t *testing.T) {
		tok, err := store.Load(context.Background())
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
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	t.Run("load returns the saved token", func(t *testing.T) {
		got, err := store.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
			t.Fatalf("roundtrip mismatch: %+v", got)
		}
	})

	t.Run("token file is private", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(dir, "token.json"))
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Fatalf("want 0600 permissions, got %o", perm)
		}
	})

	t.Run("save replaces the previous token", func(t *testing.T) {
		next := &oauth2.Token{AccessToken: "rotated"}
		if err := store.Save(context.Background(), next); err != nil {
			t.Fatal(err)
		}
		got, err := store.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got.AccessToken != "rotated" {
			t.Fatalf("token not replaced: %+v", got)
		}
	})
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := tokenstore.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "token.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatal("want parse error for corrupt token file")
	}
}

func TestMemoryStore(t *testing.T) {
	store := tokenstore.NewMemoryStore()

	tok, err := store.Load(context.Background())
	if err != nil || tok != nil {
		t.Fatalf("empty store: got %+v, %v", tok, err)
	}

	want := &oauth2.Token{AccessToken: "a"}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "a" {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
}
