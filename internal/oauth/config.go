package oauth

// Anthropic Console OAuth endpoints.
const (
	DefaultAuthURL    = "https://console.anthropic.com/oauth/authorize"
	DefaultTokenURL   = "https://console.anthropic.com/v1/oauth/token"
	DefaultAPIKeysURL = "https://console.anthropic.com/api/v1/api_keys"
)

// DefaultScopes is the scope list requested at authorization time.
// org:create_api_key is required for the key provisioning step.
var DefaultScopes = []string{"org:create_api_key"}

// Config is the immutable configuration for one OAuth client. It is passed in
// explicitly; nothing in this package reads process environment.
type Config struct {
	// ClientID is the public OAuth2 client identifier. This is a public
	// client (no client secret) using PKCE for security. May be empty, in
	// which case Flow.Start fails with ErrNotConfigured.
	ClientID string

	// RedirectURI is the callback address registered for the client.
	RedirectURI string

	// AuthURL, TokenURL and APIKeysURL address the authorization server.
	AuthURL    string
	TokenURL   string
	APIKeysURL string

	// Scopes requested at authorization time, space-joined on the wire.
	Scopes []string

	// KeyName is the human-readable label for provisioned API keys.
	KeyName string
}

// withDefaults fills unset endpoint fields so a Config only needs a client ID
// and redirect URI to be usable.
func (c Config) withDefaults() Config {
	if c.AuthURL == "" {
		c.AuthURL = DefaultAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = DefaultTokenURL
	}
	if c.APIKeysURL == "" {
		c.APIKeysURL = DefaultAPIKeysURL
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.KeyName == "" {
		c.KeyName = "MTG Tagger"
	}
	return c
}
