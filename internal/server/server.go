// Package server exposes the browser-facing HTTP surface: the OAuth login
// flow endpoints, session status, and card analysis.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hllvc/mtg-tagger/internal/keystore"
	"github.com/hllvc/mtg-tagger/internal/oauth"
	"github.com/hllvc/mtg-tagger/internal/session"
	"github.com/hllvc/mtg-tagger/internal/tagger"
)

// Server is the HTTP front end.
type Server struct {
	mux    *http.ServeMux
	server *http.Server

	sessions *session.Manager
	flow     *oauth.Flow
	tagger   *tagger.Tagger

	// fallbackKeys supplies the operator-provided API key for sessions that
	// have not provisioned their own. May be nil.
	fallbackKeys keystore.Store
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates the server and wires up its routes. fallbackKeys may be nil if
// no operator key is configured; /analyze then requires a logged-in session.
func New(sessions *session.Manager, flow *oauth.Flow, tg *tagger.Tagger, fallbackKeys keystore.Store) *Server {
	s := &Server{
		sessions:     sessions,
		flow:         flow,
		tagger:       tg,
		fallbackKeys: fallbackKeys,
	}

	logger := slog.Default()
	common := []func(http.Handler) http.Handler{
		Logging(logger),
		TraceContext,
		Recovery,
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", applyMiddlewares(http.HandlerFunc(s.handleIndex), common...))
	mux.Handle("GET /login", applyMiddlewares(http.HandlerFunc(s.handleLogin), common...))
	mux.Handle("GET /oauth/callback", applyMiddlewares(http.HandlerFunc(s.handleCallback), common...))
	mux.Handle("GET /logout", applyMiddlewares(http.HandlerFunc(s.handleLogout), common...))
	mux.Handle("GET /auth/status", applyMiddlewares(http.HandlerFunc(s.handleAuthStatus), common...))
	mux.Handle("POST /analyze", applyMiddlewares(http.HandlerFunc(s.handleAnalyze), common...))

	s.mux = mux
	return s
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second, // Read entire client request (DoS protection against slow clients)
		WriteTimeout: 2 * time.Minute,  // Bounded, but long enough for the outbound model call during /analyze
		IdleTimeout:  90 * time.Second, // Keep-alive wait for next request from client
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
