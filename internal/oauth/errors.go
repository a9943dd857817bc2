package oauth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured indicates the OAuth client identifier is missing.
	// Login cannot start; operator intervention is required.
	ErrNotConfigured = errors.New("oauth client id is not configured")

	// ErrStateMismatch indicates the callback state parameter does not match
	// the stored handshake state. Covers forged callbacks and callbacks for
	// handshakes this server never started; callers must not reveal which.
	ErrStateMismatch = errors.New("callback state validation failed")

	// ErrNoHandshake indicates no PKCE verifier was found for the session,
	// either because the session expired or the handshake was already
	// consumed. The user must restart login.
	ErrNoHandshake = errors.New("no login handshake in progress")
)

// DeniedError is returned when the authorization server itself reported an
// error on the callback (user declined consent, invalid scope, ...).
type DeniedError struct {
	// Code is the provider's error parameter, e.g. "access_denied".
	Code string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authorization denied by provider: %s", e.Code)
}

// UpstreamError is returned when the authorization server rejected a
// server-to-server call. Authorization codes are single-use, so these are
// never retried.
type UpstreamError struct {
	// Operation names the rejected call ("token exchange", "api key creation", "token refresh").
	Operation string
	// StatusCode is the upstream HTTP status.
	StatusCode int
	// Body is the upstream response body, kept for diagnosis.
	Body string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}
