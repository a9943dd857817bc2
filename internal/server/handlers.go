package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hllvc/mtg-tagger/internal/oauth"
	"github.com/hllvc/mtg-tagger/internal/session"
	"github.com/hllvc/mtg-tagger/internal/tagger"
)

//go:embed static/index.html
var indexHTML []byte

// StatusResponse is the /auth/status payload.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// AnalyzeRequest is the /analyze request payload.
type AnalyzeRequest struct {
	CardData string `json:"card_data"`
}

// AnalyzeResponse is the /analyze response payload.
type AnalyzeResponse struct {
	Result string `json:"result"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

// handleLogin starts a handshake and redirects the browser to the
// authorization server.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.Session(w, r)

	redirectURL, err := s.flow.Start(ctx, sess)
	if err != nil {
		if errors.Is(err, oauth.ErrNotConfigured) {
			writeJSONError(ctx, w, "OAuth login is not configured on this server", http.StatusInternalServerError)
			return
		}
		slog.ErrorContext(ctx, "failed to start login", "error", err)
		writeJSONError(ctx, w, "failed to start login", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// handleCallback drives the callback state machine and maps its failure
// taxonomy onto browser-facing responses.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.Session(w, r)
	query := r.URL.Query()

	err := s.flow.Callback(ctx, sess, query.Get("code"), query.Get("state"), query.Get("error"))
	if err == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	var denied *oauth.DeniedError
	var upstream *oauth.UpstreamError
	switch {
	case errors.As(err, &denied):
		renderErrorPage(ctx, w, "Authorization was denied by the provider: "+denied.Code, http.StatusBadRequest)
	case errors.Is(err, oauth.ErrStateMismatch):
		// Deliberately generic; does not reveal which check failed.
		renderErrorPage(ctx, w, "Login validation failed. Please try logging in again.", http.StatusBadRequest)
	case errors.Is(err, oauth.ErrNoHandshake):
		renderErrorPage(ctx, w, "Your login session has expired. Please try logging in again.", http.StatusBadRequest)
	case errors.As(err, &upstream):
		slog.ErrorContext(ctx, "login failed at authorization server",
			"operation", upstream.Operation, "status", upstream.StatusCode, "body", upstream.Body)
		renderErrorPage(ctx, w, "Login failed while completing authentication. Please try again.", http.StatusInternalServerError)
	default:
		slog.ErrorContext(ctx, "login failed unexpectedly", "error", err)
		renderErrorPage(ctx, w, "Login failed unexpectedly. Please try again.", http.StatusInternalServerError)
	}
}

// handleLogout clears the entire session and returns the browser home.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.Session(w, r)

	if err := sess.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to clear session", "error", err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleAuthStatus reports whether the session is authenticated. It never
// includes the API key value.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.Session(w, r)

	value, _, err := sess.Get(ctx, session.FieldAuthenticated)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read session", "error", err)
		writeJSONError(ctx, w, "failed to read session", http.StatusInternalServerError)
		return
	}

	writeJSON(ctx, w, StatusResponse{Authenticated: value == session.BoolTrue}, http.StatusOK)
}

// handleAnalyze submits card text to the model using the session's
// provisioned key, falling back to the operator-configured key.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := s.sessions.Session(w, r)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(ctx, w, "request body must be JSON", http.StatusBadRequest)
		return
	}

	cardData := strings.TrimSpace(req.CardData)
	if cardData == "" {
		writeJSONError(ctx, w, "card data is required", http.StatusBadRequest)
		return
	}

	apiKey, err := s.resolveAPIKey(ctx, sess)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve api key", "error", err)
		writeJSONError(ctx, w, "failed to read session", http.StatusInternalServerError)
		return
	}
	if apiKey == "" {
		writeJSONError(ctx, w, "no API key available: log in or configure a fallback key", http.StatusInternalServerError)
		return
	}

	result, err := s.tagger.Analyze(ctx, apiKey, cardData)
	switch {
	case err == nil:
		writeJSON(ctx, w, AnalyzeResponse{Result: result}, http.StatusOK)
	case errors.Is(err, tagger.ErrInvalidAPIKey):
		writeJSONError(ctx, w, "invalid API key", http.StatusUnauthorized)
	default:
		var apiErr *tagger.APIError
		if errors.As(err, &apiErr) {
			slog.ErrorContext(ctx, "model request rejected", "status", apiErr.StatusCode, "error", apiErr.Message)
			writeJSONError(ctx, w, "API error: "+apiErr.Message, http.StatusBadGateway)
			return
		}
		slog.ErrorContext(ctx, "model request failed", "error", err)
		writeJSONError(ctx, w, "analysis failed", http.StatusInternalServerError)
	}
}

// resolveAPIKey prefers the session's provisioned key over the fallback
// store. Returns empty when neither source has a key.
func (s *Server) resolveAPIKey(ctx context.Context, sess *session.Session) (string, error) {
	key, ok, err := sess.Get(ctx, session.FieldAnthropicAPIKey)
	if err != nil {
		return "", err
	}
	if ok && key != "" {
		return key, nil
	}

	if s.fallbackKeys == nil {
		return "", nil
	}
	fallback, err := s.fallbackKeys.Read(ctx)
	if err != nil {
		// A missing fallback key is expected when only session auth is used
		return "", nil
	}
	return fallback, nil
}
