// Package session provides per-browser-session state keyed by an opaque
// cookie, behind an explicit Store capability interface.
//
// Two backends are provided: an in-process store with TTL-based expiry and a
// Redis store for multi-instance deployments. Sessions are isolated by the
// store's own keying; callers need no additional locking.
package session

import "context"

// Well-known session fields. The OAuth handshake values are ephemeral and
// consumed one-shot by the callback; the authenticated pair lives for the
// rest of the browser session.
const (
	FieldOAuthState      = "oauth_state"
	FieldPKCEVerifier    = "pkce_verifier"
	FieldAuthenticated   = "authenticated"
	FieldAnthropicAPIKey = "anthropic_api_key"
)

// BoolTrue is the stored representation of a true boolean field.
const BoolTrue = "true"

// Store reads and writes per-session fields. Implementations expire whole
// sessions according to their own policy; expiry shows up to callers as
// absent fields, never as errors.
type Store interface {
	// Get returns the value of a field and whether it was present.
	Get(ctx context.Context, id, field string) (string, bool, error)

	// Set stores a field value, overwriting any previous value.
	Set(ctx context.Context, id, field, value string) error

	// Delete removes the given fields. Missing fields are not an error.
	Delete(ctx context.Context, id string, fields ...string) error

	// Clear discards the entire session.
	Clear(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// Session is a handle binding one session ID to a Store.
type Session struct {
	id    string
	store Store
}

// ID returns the opaque session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get returns the value of a field and whether it was present.
func (s *Session) Get(ctx context.Context, field string) (string, bool, error) {
	return s.store.Get(ctx, s.id, field)
}

// Set stores a field value.
func (s *Session) Set(ctx context.Context, field, value string) error {
	return s.store.Set(ctx, s.id, field, value)
}

// Delete removes the given fields.
func (s *Session) Delete(ctx context.Context, fields ...string) error {
	return s.store.Delete(ctx, s.id, fields...)
}

// Clear discards all session state.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Clear(ctx, s.id)
}
