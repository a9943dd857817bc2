package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// maxUpstreamBodyBytes bounds how much of an upstream response is read into
// memory for parsing and error reporting.
const maxUpstreamBodyBytes = 1 << 20

// Token is the payload returned by the token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthorizerOption configures an Authorizer.
type AuthorizerOption func(*Authorizer)

// WithHTTPClient sets a custom HTTP client for server-to-server calls.
// If not provided, a client with a 30 second timeout is used.
func WithHTTPClient(client *http.Client) AuthorizerOption {
	return func(a *Authorizer) {
		a.client = client
	}
}

// Authorizer handles the protocol exchanges of the Anthropic OAuth2 flow.
// It uses manual HTTP requests for token exchange because Anthropic's token
// endpoint expects a JSON body rather than standard form-encoding.
type Authorizer struct {
	cfg       Config
	oauth2Cfg *oauth2.Config
	client    *http.Client
}

// NewAuthorizer creates an Authorizer for the given client configuration.
func NewAuthorizer(cfg Config, opts ...AuthorizerOption) *Authorizer {
	cfg = cfg.withDefaults()

	a := &Authorizer{
		cfg: cfg,
		oauth2Cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: "", // Empty for PKCE flow (public client)
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// AuthCodeURL builds the authorization redirect URL embedding client
// identity, scope, state and the PKCE challenge. No network call is made.
func (a *Authorizer) AuthCodeURL(state, challenge string) string {
	return a.oauth2Cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// exchangeRequest is the JSON token exchange body.
type exchangeRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

// Exchange trades an authorization code plus the handshake's PKCE verifier
// for tokens. The authorization server recomputes the challenge from the
// verifier; this side only transmits the verifier faithfully. The call is a
// single round trip with no retry, authorization codes are single-use.
func (a *Authorizer) Exchange(ctx context.Context, code, verifier string) (*Token, error) {
	reqBody := exchangeRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     a.cfg.ClientID,
		RedirectURI:  a.cfg.RedirectURI,
		CodeVerifier: verifier,
	}

	var token Token
	if err := a.postJSON(ctx, "token exchange", a.cfg.TokenURL, "", reqBody, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// refreshRequest is the JSON token refresh body.
type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
}

// Refresh exchanges a refresh token for a new token payload. The callback
// flow never calls this; it exists for collaborators that hold tokens longer
// than one handshake.
func (a *Authorizer) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	reqBody := refreshRequest{
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
		ClientID:     a.cfg.ClientID,
	}

	var token Token
	if err := a.postJSON(ctx, "token refresh", a.cfg.TokenURL, "", reqBody, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// createKeyRequest is the JSON key creation body.
type createKeyRequest struct {
	Name string `json:"name"`
}

// createKeyResponse is the subset of the key creation response we consume.
type createKeyResponse struct {
	Key string `json:"key"`
}

// CreateAPIKey mints a durable API key bound to the authenticated identity,
// presenting the access token as a bearer credential.
func (a *Authorizer) CreateAPIKey(ctx context.Context, accessToken, name string) (string, error) {
	var resp createKeyResponse
	if err := a.postJSON(ctx, "api key creation", a.cfg.APIKeysURL, accessToken, createKeyRequest{Name: name}, &resp); err != nil {
		return "", err
	}
	if resp.Key == "" {
		return "", fmt.Errorf("api key creation response contained no key")
	}
	return resp.Key, nil
}

// postJSON performs one JSON POST round trip. A non-2xx status becomes an
// *UpstreamError carrying the response body; transport failures are wrapped.
func (a *Authorizer) postJSON(ctx context.Context, operation, endpoint, bearer string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBodyBytes))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("parsing %s response: %w", operation, err)
	}
	return nil
}
