package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestAuthorizerAuthCodeURL(t *testing.T) {
	auth := NewAuthorizer(Config{
		ClientID:    "client-123",
		RedirectURI: "http://localhost:8000/oauth/callback",
	})

	raw := auth.AuthCodeURL("state-abc", "challenge-xyz")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL returned unparseable URL %q: %v", raw, err)
	}

	if got := u.Scheme + "://" + u.Host + u.Path; got != DefaultAuthURL {
		t.Errorf("authorization endpoint = %q, want %q", got, DefaultAuthURL)
	}

	query := u.Query()
	tests := []struct {
		param string
		want  string
	}{
		{"response_type", "code"},
		{"client_id", "client-123"},
		{"redirect_uri", "http://localhost:8000/oauth/callback"},
		{"scope", "org:create_api_key"},
		{"state", "state-abc"},
		{"code_challenge", "challenge-xyz"},
		{"code_challenge_method", "S256"},
	}
	for _, tt := range tests {
		if got := query.Get(tt.param); got != tt.want {
			t.Errorf("query param %s = %q, want %q", tt.param, got, tt.want)
		}
	}
}

func TestAuthorizerExchange(t *testing.T) {
	var gotBody map[string]string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding exchange request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthorizer(Config{
		ClientID:    "client-123",
		RedirectURI: "http://localhost:8000/oauth/callback",
		TokenURL:    server.URL,
	})

	token, err := auth.Exchange(context.Background(), "code-1", "verifier-xyz")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	wantBody := map[string]string{
		"grant_type":    "authorization_code",
		"code":          "code-1",
		"client_id":     "client-123",
		"redirect_uri":  "http://localhost:8000/oauth/callback",
		"code_verifier": "verifier-xyz",
	}
	for key, want := range wantBody {
		if got := gotBody[key]; got != want {
			t.Errorf("request body %s = %q, want %q", key, got, want)
		}
	}

	if token.AccessToken != "at-1" {
		t.Errorf("access token = %q, want %q", token.AccessToken, "at-1")
	}
	if token.RefreshToken != "rt-1" {
		t.Errorf("refresh token = %q, want %q", token.RefreshToken, "rt-1")
	}
	if token.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", token.ExpiresIn)
	}
}

func TestAuthorizerExchangeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	auth := NewAuthorizer(Config{ClientID: "client-123", TokenURL: server.URL})

	_, err := auth.Exchange(context.Background(), "spent-code", "verifier-xyz")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("Exchange error = %v, want *UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", upstream.StatusCode, http.StatusBadRequest)
	}
	if upstream.Operation != "token exchange" {
		t.Errorf("operation = %q, want %q", upstream.Operation, "token exchange")
	}
	if upstream.Body != `{"error":"invalid_grant"}` {
		t.Errorf("body = %q, want upstream body", upstream.Body)
	}
}

func TestAuthorizerExchangeNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	auth := NewAuthorizer(Config{ClientID: "client-123", TokenURL: server.URL})

	_, err := auth.Exchange(context.Background(), "code-1", "verifier-xyz")
	if err == nil {
		t.Fatal("Exchange succeeded against a closed server")
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		t.Errorf("network failure reported as *UpstreamError: %v", err)
	}
}

func TestAuthorizerRefresh(t *testing.T) {
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding refresh request: %v", err)
		}
		_, _ = w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","expires_in":3600}`))
	}))
	defer server.Close()

	auth := NewAuthorizer(Config{ClientID: "client-123", TokenURL: server.URL})

	token, err := auth.Refresh(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if gotBody["grant_type"] != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", gotBody["grant_type"])
	}
	if gotBody["refresh_token"] != "rt-1" {
		t.Errorf("refresh_token = %q, want rt-1", gotBody["refresh_token"])
	}
	if token.AccessToken != "at-2" {
		t.Errorf("access token = %q, want at-2", token.AccessToken)
	}
}

func TestAuthorizerCreateAPIKey(t *testing.T) {
	var gotAuthorization string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuthorization = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding key creation request: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"key-1","key":"sk-ant-new-key","name":"Test Key"}`))
	}))
	defer server.Close()

	auth := NewAuthorizer(Config{ClientID: "client-123", APIKeysURL: server.URL})

	key, err := auth.CreateAPIKey(context.Background(), "access-token", "Test Key")
	if err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if gotAuthorization != "Bearer access-token" {
		t.Errorf("Authorization = %q, want %q", gotAuthorization, "Bearer access-token")
	}
	if gotBody["name"] != "Test Key" {
		t.Errorf("request name = %q, want %q", gotBody["name"], "Test Key")
	}
	if key != "sk-ant-new-key" {
		t.Errorf("key = %q, want %q", key, "sk-ant-new-key")
	}
}

func TestAuthorizerCreateAPIKeyEmptyKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"key-1","name":"Test Key"}`))
	}))
	defer server.Close()

	auth := NewAuthorizer(Config{ClientID: "client-123", APIKeysURL: server.URL})

	_, err := auth.CreateAPIKey(context.Background(), "access-token", "Test Key")
	if err == nil {
		t.Fatal("CreateAPIKey accepted a response with no key")
	}
}
