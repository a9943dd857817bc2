package oauth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hllvc/mtg-tagger/internal/session"
)

// Session is the per-browser-session state the flow reads and writes.
// Implemented by *session.Session; tests supply fakes.
type Session interface {
	Get(ctx context.Context, field string) (string, bool, error)
	Set(ctx context.Context, field, value string) error
	Delete(ctx context.Context, fields ...string) error
}

// Exchanger is the protocol collaborator driving the external exchanges.
// Implemented by *Authorizer; tests supply stubs.
type Exchanger interface {
	AuthCodeURL(state, challenge string) string
	Exchange(ctx context.Context, code, verifier string) (*Token, error)
	CreateAPIKey(ctx context.Context, accessToken, name string) (string, error)
}

// Compile-time check to ensure Authorizer implements Exchanger
var _ Exchanger = (*Authorizer)(nil)

// Flow orchestrates one login handshake: Start issues the authorization
// redirect, Callback validates the return trip and provisions the API key.
// Flow keeps no handshake state of its own; every value lives in the session
// store, which is what makes one-shot consumption enforceable.
type Flow struct {
	cfg  Config
	auth Exchanger
}

// NewFlow creates a Flow for the given configuration and exchanger.
func NewFlow(cfg Config, auth Exchanger) *Flow {
	return &Flow{
		cfg:  cfg.withDefaults(),
		auth: auth,
	}
}

// Start begins a handshake: generates the state token and PKCE pair,
// persists both to the session and returns the authorization URL to redirect
// the browser to. Any stale handshake in the session is overwritten.
//
// The client ID is checked first so no handshake state is persisted for a
// flow that cannot proceed.
func (f *Flow) Start(ctx context.Context, sess Session) (string, error) {
	if f.cfg.ClientID == "" {
		return "", ErrNotConfigured
	}

	state, err := GenerateState()
	if err != nil {
		return "", err
	}
	pkce := GeneratePKCEParams()

	if err := sess.Set(ctx, session.FieldOAuthState, state); err != nil {
		return "", fmt.Errorf("persisting handshake state: %w", err)
	}
	if err := sess.Set(ctx, session.FieldPKCEVerifier, pkce.Verifier); err != nil {
		return "", fmt.Errorf("persisting handshake verifier: %w", err)
	}

	return f.auth.AuthCodeURL(state, pkce.Challenge), nil
}

// Callback drives the return trip from the authorization server.
//
// Guards run in order: a provider-reported error short-circuits before any
// state validation; the state check runs before any network call; the
// verifier is then consumed one-shot, so a duplicate callback fails with
// ErrNoHandshake instead of attempting a second exchange. On success the
// session holds the provisioned API key and is marked authenticated; no
// failure path mutates the authenticated flag.
func (f *Flow) Callback(ctx context.Context, sess Session, code, state, errParam string) error {
	if errParam != "" {
		return &DeniedError{Code: errParam}
	}

	storedState, ok, err := sess.Get(ctx, session.FieldOAuthState)
	if err != nil {
		return fmt.Errorf("reading handshake state: %w", err)
	}
	if !ok || state == "" || state != storedState {
		return ErrStateMismatch
	}

	verifier, ok, err := sess.Get(ctx, session.FieldPKCEVerifier)
	if err != nil {
		return fmt.Errorf("reading handshake verifier: %w", err)
	}
	if !ok || verifier == "" {
		return ErrNoHandshake
	}

	// Consume the handshake before the exchange. Whatever happens next, this
	// state and verifier are spent.
	if err := sess.Delete(ctx, session.FieldOAuthState, session.FieldPKCEVerifier); err != nil {
		return fmt.Errorf("consuming handshake: %w", err)
	}

	token, err := f.auth.Exchange(ctx, code, verifier)
	if err != nil {
		return err
	}

	apiKey, err := f.auth.CreateAPIKey(ctx, token.AccessToken, f.cfg.KeyName)
	if err != nil {
		// The access token exchange already succeeded, but a failed key
		// creation is still a failed login. No partial-success state is kept.
		return err
	}

	if err := sess.Set(ctx, session.FieldAnthropicAPIKey, apiKey); err != nil {
		return fmt.Errorf("storing api key: %w", err)
	}
	if err := sess.Set(ctx, session.FieldAuthenticated, session.BoolTrue); err != nil {
		return fmt.Errorf("marking session authenticated: %w", err)
	}

	slog.InfoContext(ctx, "login completed, api key provisioned", "key_name", f.cfg.KeyName)
	return nil
}
