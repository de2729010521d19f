package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"
	gsc "google.golang.org/api/searchconsole/v1"

	"github.com/seoscope/searchconsole-mcp/searchconsole"
	"github.com/seoscope/searchconsole-mcp/tokenstore"
)

type stubOps struct{}

func (stubOps) ListSites(ctx context.Context) ([]*gsc.WmxSite, error) { return nil, nil }
func (stubOps) Query(ctx context.Context, req searchconsole.QueryRequest) ([]*gsc.ApiDataRow, error) {
	return nil, nil
}
func (stubOps) InspectURL(ctx context.Context, siteURL, inspectionURL string) (*gsc.UrlInspectionResult, error) {
	return nil, nil
}
func (stubOps) ListSitemaps(ctx context.Context, siteURL string) ([]*gsc.WmxSitemap, error) {
	return nil, nil
}
func (stubOps) SubmitSitemap(ctx context.Context, siteURL, feedPath string) error { return nil }
func (stubOps) TopQueries(ctx context.Context, siteURL, startDate, endDate string, limit int64) ([]*gsc.ApiDataRow, error) {
	return nil, nil
}

func stubFactory(ctx context.Context, ts oauth2.TokenSource) (searchconsole.Operations, error) {
	return stubOps{}, nil
}

// countingStore wraps a memory store and counts Load calls.
type countingStore struct {
	tokenstore.Store
	mu    sync.Mutex
	loads int
}

func (s *countingStore) Load(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.Store.Load(ctx)
}

func (s *countingStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

func newTestFlow() *Flow {
	return NewFlow("client-id", "client-secret", "http://localhost:3000/oauth2callback")
}

func TestFlowAuthorizationURL(t *testing.T) {
	f := newTestFlow()

	url := f.AuthorizationURL("sess-1")
	for _, want := range []string{"client_id=client-id", "state=sess-1", "access_type=offline", "prompt=consent"} {
		if !strings.Contains(url, want) {
			t.Fatalf("consent URL missing %q: %s", want, url)
		}
	}
}

func TestSharedProviderLoadsPersistedCredentialOnce(t *testing.T) {
	store := &countingStore{Store: tokenstore.NewMemoryStore()}
	tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
	if err := store.Save(context.Background(), tok); err != nil {
		t.Fatal(err)
	}

	p := NewSharedProvider(newTestFlow(), store, stubFactory)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Resolve(context.Background(), fmt.Sprintf("sess-%d", i)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("resolve failed: %v", err)
	}

	if got := store.loadCount(); got != 1 {
		t.Fatalf("persisted credential must load at most once, loaded %d times", got)
	}
	if !p.Authenticated() {
		t.Fatal("provider should report authenticated")
	}
}

func TestSharedProviderWithoutCredential(t *testing.T) {
	p := NewSharedProvider(newTestFlow(), tokenstore.NewMemoryStore(), stubFactory)

	_, err := p.Resolve(context.Background(), "sess-1")
	var authErr *AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthRequiredError, got %v", err)
	}
	if !strings.Contains(authErr.URL, "client_id=client-id") {
		t.Fatalf("consent URL not constructed: %q", authErr.URL)
	}
	if p.Authenticated() {
		t.Fatal("provider must not report authenticated")
	}

	// Absence is not a one-shot: the next resolve asks again rather than
	// caching a failure.
	if _, err := p.Resolve(context.Background(), "sess-1"); !errors.As(err, &authErr) {
		t.Fatalf("want AuthRequiredError on retry, got %v", err)
	}
}

func TestSharedProviderStoreFailureIsRetried(t *testing.T) {
	failing := &failingStore{err: errors.New("disk on fire")}
	p := NewSharedProvider(newTestFlow(), failing, stubFactory)

	if _, err := p.Resolve(context.Background(), "s"); err == nil {
		t.Fatal("want load error")
	}

	// Store recovers; the provider retries the load instead of demanding a
	// fresh consent.
	failing.err = nil
	failing.tok = &oauth2.Token{AccessToken: "at", Expiry: time.Now().Add(time.Hour)}
	if _, err := p.Resolve(context.Background(), "s"); err != nil {
		t.Fatalf("resolve after store recovery failed: %v", err)
	}
}

type failingStore struct {
	mu  sync.Mutex
	err error
	tok *oauth2.Token
}

func (s *failingStore) Load(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.tok, nil
}

func (s *failingStore) Save(ctx context.Context, tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
	return nil
}

func TestPersistingTokenSourceSavesRotatedToken(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	rotated := &oauth2.Token{AccessToken: "new", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
	ts := &persistingTokenSource{
		base:  oauth2.StaticTokenSource(rotated),
		store: store,
		last:  "old",
	}

	tok, err := ts.Token()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "new" {
		t.Fatalf("unexpected token %q", tok.AccessToken)
	}

	saved, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if saved == nil || saved.AccessToken != "new" {
		t.Fatalf("rotated token not persisted: %+v", saved)
	}

	// A second fetch of the same token must not re-save.
	if _, err := ts.Token(); err != nil {
		t.Fatal(err)
	}
}

func TestSessionProviderAuthorizationURLRequiresSession(t *testing.T) {
	p := NewSessionProvider(newTestFlow(), nil, stubFactory)
	if _, err := p.AuthorizationURL(""); err == nil {
		t.Fatal("want error for missing sessionId")
	}
	url, err := p.AuthorizationURL("sess-7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(url, "state=sess-7") {
		t.Fatalf("session not embedded as state: %q", url)
	}
}
