// Package app wires configuration into running services and owns their
// lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hllvc/mtg-tagger/internal/oauth"
	"github.com/hllvc/mtg-tagger/internal/server"
	"github.com/hllvc/mtg-tagger/internal/session"
	"github.com/hllvc/mtg-tagger/internal/tagger"
)

// App orchestrates the lifecycle of the HTTP server and session store.
type App struct {
	cfg      *Config
	server   *server.Server
	sessions session.Store
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sessionStore, err := newSessionStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	managerOpts := []session.ManagerOption{
		session.WithSecureCookie(cfg.Session.SecureCookie),
	}
	if cfg.Session.CookieName != "" {
		managerOpts = append(managerOpts, session.WithCookieName(cfg.Session.CookieName))
	}
	sessions := session.NewManager(sessionStore, managerOpts...)

	oauthCfg := oauth.Config{
		ClientID:    cfg.OAuth.ClientID,
		RedirectURI: cfg.OAuth.RedirectURI,
		AuthURL:     cfg.OAuth.AuthURL,
		TokenURL:    cfg.OAuth.TokenURL,
		APIKeysURL:  cfg.OAuth.APIKeysURL,
		KeyName:     cfg.OAuth.KeyName,
	}
	flow := oauth.NewFlow(oauthCfg, oauth.NewAuthorizer(oauthCfg))

	fallbackKeys, err := cfg.Anthropic.FallbackKey.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback key store: %w", err)
	}

	srv := server.New(
		sessions,
		flow,
		tagger.New(cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
		fallbackKeys,
	)

	return &App{
		cfg:      cfg,
		server:   srv,
		sessions: sessionStore,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting http server", "address", address)
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.server.Shutdown)
	shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
		return a.sessions.Close()
	})

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// newSessionStore creates the configured session store backend.
func newSessionStore(cfg SessionConfig) (session.Store, error) {
	switch cfg.Backend {
	case SessionBackendMemory:
		return session.NewMemoryStore(cfg.TTL), nil
	case SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = "mtg-tagger"
		}
		return session.NewRedisStore(client, prefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}
