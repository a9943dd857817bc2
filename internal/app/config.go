package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hllvc/mtg-tagger/internal/keystore"
	"github.com/hllvc/mtg-tagger/internal/tagger"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// SessionBackend represents the session store backends supported.
type SessionBackend string

const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

// KeyStorageType represents the storage types supported for the fallback API key.
type KeyStorageType string

const (
	KeyStorageTypeNone    KeyStorageType = "none"
	KeyStorageTypeEnv     KeyStorageType = "env"
	KeyStorageTypeFile    KeyStorageType = "file"
	KeyStorageTypeKeyring KeyStorageType = "keyring"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8000
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigSessionBackend  = SessionBackendMemory
	DefaultConfigSessionTTL      = 24 * time.Hour
	DefaultConfigKeyStorage      = KeyStorageTypeEnv
	DefaultConfigKeyEnvKey       = "ANTHROPIC_API_KEY"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// OAuthConfig addresses the external authorization server. ClientID may stay
// empty; login then fails with a configuration error while the rest of the
// service keeps working on the fallback key.
type OAuthConfig struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri" validate:"omitempty,url"`
	AuthURL     string `json:"auth_url" validate:"omitempty,url"`
	TokenURL    string `json:"token_url" validate:"omitempty,url"`
	APIKeysURL  string `json:"api_keys_url" validate:"omitempty,url"`
	KeyName     string `json:"key_name"`
}

// RedisConfig holds connection settings for the Redis session backend.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// SessionConfig holds session store configuration.
type SessionConfig struct {
	Backend      SessionBackend `json:"backend" validate:"required,oneof=memory redis"`
	TTL          time.Duration  `json:"ttl"`
	CookieName   string         `json:"cookie_name"`
	SecureCookie bool           `json:"secure_cookie"`
	Redis        RedisConfig    `json:"redis"`
}

// FallbackKeyConfig describes where the operator-supplied API key comes from.
type FallbackKeyConfig struct {
	Storage KeyStorageType `json:"storage" validate:"required,oneof=none env file keyring"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	EnvKey      string `json:"env_key,omitempty"`      // For env storage: environment variable name
	File        string `json:"file,omitempty"`         // For file storage: path to key file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
}

// NewStore creates a keystore.Store from the fallback key configuration.
// Returns (nil, nil) when no fallback is configured, including the default
// env storage when the environment variable is simply not set.
func (f *FallbackKeyConfig) NewStore() (keystore.Store, error) {
	switch f.Storage {
	case KeyStorageTypeNone:
		return nil, nil
	case KeyStorageTypeEnv:
		if _, exists := os.LookupEnv(f.EnvKey); !exists {
			return nil, nil
		}
		return keystore.NewEnvStore(f.EnvKey)
	case KeyStorageTypeFile:
		return keystore.NewFileStore(f.File)
	case KeyStorageTypeKeyring:
		return keystore.NewKeyringStore("mtg-tagger-api-key", f.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported key storage type: %s", f.Storage)
	}
}

// AnthropicConfig holds model parameters and the fallback key source.
type AnthropicConfig struct {
	Model       string            `json:"model"`
	MaxTokens   int64             `json:"max_tokens" validate:"omitempty,gt=0"`
	FallbackKey FallbackKeyConfig `json:"fallback_key"`
}

// TelemetryConfig holds log export configuration.
type TelemetryConfig struct {
	Exporter string `json:"exporter" validate:"omitempty,oneof=none stdout otlp-grpc otlp-http"`
	Endpoint string `json:"endpoint"`
	Insecure bool   `json:"insecure"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json"`
	Server    ServerConfig    `json:"server"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
	OAuth     OAuthConfig     `json:"oauth"`
	Session   SessionConfig   `json:"session"`
	Anthropic AnthropicConfig `json:"anthropic"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Session.Backend == "" {
		c.Session.Backend = DefaultConfigSessionBackend
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultConfigSessionTTL
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = tagger.DefaultModel
	}
	if c.Anthropic.MaxTokens == 0 {
		c.Anthropic.MaxTokens = tagger.DefaultMaxTokens
	}
	if c.Anthropic.FallbackKey.Storage == "" {
		c.Anthropic.FallbackKey.Storage = DefaultConfigKeyStorage
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "none"
	}

	// The loopback callback matches a local deployment; registered clients
	// override it with their public callback address.
	if c.OAuth.RedirectURI == "" {
		c.OAuth.RedirectURI = fmt.Sprintf("http://localhost:%d/oauth/callback", c.Server.Port)
	}

	// Dynamic defaults based on storage type
	switch c.Anthropic.FallbackKey.Storage {
	case KeyStorageTypeEnv:
		if c.Anthropic.FallbackKey.EnvKey == "" {
			c.Anthropic.FallbackKey.EnvKey = DefaultConfigKeyEnvKey
		}
	case KeyStorageTypeFile:
		if c.Anthropic.FallbackKey.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("anthropic.fallback_key.file required (auto-detect failed: %w)", err)
			}
			c.Anthropic.FallbackKey.File = filepath.Join(configDir, "mtg-tagger", "api_key")
		}
	case KeyStorageTypeKeyring:
		if c.Anthropic.FallbackKey.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("anthropic.fallback_key.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Anthropic.FallbackKey.KeyringUser = currentUser.Username
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Session.Backend == SessionBackendRedis && c.Session.Redis.Addr == "" {
		return errors.New("redis address required for redis session backend")
	}

	switch c.Anthropic.FallbackKey.Storage {
	case KeyStorageTypeEnv:
		if c.Anthropic.FallbackKey.EnvKey == "" {
			return errors.New("env_key required for env key storage")
		}
	case KeyStorageTypeFile:
		if c.Anthropic.FallbackKey.File == "" {
			return errors.New("file path required for file key storage")
		}
	case KeyStorageTypeKeyring:
		if c.Anthropic.FallbackKey.KeyringUser == "" {
			return errors.New("keyring_user required for keyring key storage")
		}
	}

	return nil
}
