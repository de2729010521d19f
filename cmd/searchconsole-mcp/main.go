// Command searchconsole-mcp serves Google Search Console operations as MCP
// tools over an SSE push channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seoscope/searchconsole-mcp/auth"
	"github.com/seoscope/searchconsole-mcp/gateway"
	"github.com/seoscope/searchconsole-mcp/internal/config"
	"github.com/seoscope/searchconsole-mcp/internal/logctx"
	"github.com/seoscope/searchconsole-mcp/mcp"
	"github.com/seoscope/searchconsole-mcp/searchconsole"
	"github.com/seoscope/searchconsole-mcp/sessions"
	"github.com/seoscope/searchconsole-mcp/streaminghttp"
	"github.com/seoscope/searchconsole-mcp/tokenstore"
)

const version = "0.2.0"

func main() {
	log := slog.New(logctx.Handler{Handler: slog.NewJSONHandler(os.Stderr, nil)})
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("fatal", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := sessions.NewRegistry(sessions.WithIdleTimeout(cfg.SessionIdleTimeout))
	flow := auth.NewFlow(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)

	provider, err := buildProvider(cfg, flow, registry)
	if err != nil {
		return err
	}

	gw := gateway.New(provider, log)
	handler := streaminghttp.New(registry, gw, provider,
		streaminghttp.WithLogger(log),
		streaminghttp.WithServerInfo(mcp.ImplementationInfo{Name: "searchconsole-mcp", Version: version}),
	)

	if cfg.SessionIdleTimeout > 0 {
		go sweepLoop(ctx, registry, cfg.SessionIdleTimeout, log)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.start",
			slog.Int("port", cfg.Port),
			slog.String("credential_mode", string(cfg.CredentialMode)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildProvider(cfg *config.Config, flow *auth.Flow, registry *sessions.Registry) (auth.Provider, error) {
	switch cfg.CredentialMode {
	case config.CredentialModeSession:
		return auth.NewSessionProvider(flow, registry, searchconsole.NewOperations), nil

	case config.CredentialModeShared:
		store, err := buildTokenStore(cfg)
		if err != nil {
			return nil, err
		}
		return auth.NewSharedProvider(flow, store, searchconsole.NewOperations), nil

	default:
		return nil, fmt.Errorf("unsupported credential mode %q", cfg.CredentialMode)
	}
}

func buildTokenStore(cfg *config.Config) (tokenstore.Store, error) {
	switch cfg.TokenStore {
	case "file":
		return tokenstore.NewFileStore(cfg.TokenDir)
	case "redis":
		return tokenstore.NewRedisStoreFromURL(cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unsupported token store %q", cfg.TokenStore)
	}
}

func sweepLoop(ctx context.Context, registry *sessions.Registry, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, id := range registry.Sweep(now) {
				log.Info("session.evict.idle", slog.String("sess_id", id))
			}
		}
	}
}
