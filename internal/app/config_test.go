package app

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	if cfg.LogFormat != LogFormatText {
		t.Errorf("log format = %q, want %q", cfg.LogFormat, LogFormatText)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %q, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Session.Backend != SessionBackendMemory {
		t.Errorf("session backend = %q, want memory", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session ttl = %v, want 24h", cfg.Session.TTL)
	}
	if cfg.Anthropic.FallbackKey.Storage != KeyStorageTypeEnv {
		t.Errorf("key storage = %q, want env", cfg.Anthropic.FallbackKey.Storage)
	}
	if cfg.Anthropic.FallbackKey.EnvKey != "ANTHROPIC_API_KEY" {
		t.Errorf("env key = %q, want ANTHROPIC_API_KEY", cfg.Anthropic.FallbackKey.EnvKey)
	}
	if cfg.OAuth.RedirectURI != "http://localhost:8000/oauth/callback" {
		t.Errorf("redirect uri = %q, want port-derived default", cfg.OAuth.RedirectURI)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestApplyDefaultsRedirectFollowsPort(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9090
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}
	if cfg.OAuth.RedirectURI != "http://localhost:9090/oauth/callback" {
		t.Errorf("redirect uri = %q, want it derived from port 9090", cfg.OAuth.RedirectURI)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.OAuth.RedirectURI = "https://tagger.example/oauth/callback"
	cfg.Session.Backend = SessionBackendRedis
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, explicit value overwritten", cfg.Server.Host)
	}
	if cfg.OAuth.RedirectURI != "https://tagger.example/oauth/callback" {
		t.Errorf("redirect uri = %q, explicit value overwritten", cfg.OAuth.RedirectURI)
	}
	if cfg.Session.Backend != SessionBackendRedis {
		t.Errorf("session backend = %q, explicit value overwritten", cfg.Session.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "yaml" },
			wantErr: true,
		},
		{
			name:    "bad host",
			mutate:  func(c *Config) { c.Server.Host = "not a host!" },
			wantErr: true,
		},
		{
			name:    "bad session backend",
			mutate:  func(c *Config) { c.Session.Backend = "memcached" },
			wantErr: true,
		},
		{
			name:    "redis backend without address",
			mutate:  func(c *Config) { c.Session.Backend = SessionBackendRedis },
			wantErr: true,
		},
		{
			name: "redis backend with address",
			mutate: func(c *Config) {
				c.Session.Backend = SessionBackendRedis
				c.Session.Redis.Addr = "localhost:6379"
			},
		},
		{
			name:    "bad redirect uri",
			mutate:  func(c *Config) { c.OAuth.RedirectURI = "not-a-url" },
			wantErr: true,
		},
		{
			name:    "bad key storage",
			mutate:  func(c *Config) { c.Anthropic.FallbackKey.Storage = "vault" },
			wantErr: true,
		},
		{
			name: "file storage without path",
			mutate: func(c *Config) {
				c.Anthropic.FallbackKey.Storage = KeyStorageTypeFile
				c.Anthropic.FallbackKey.File = ""
			},
			wantErr: true,
		},
		{
			name:    "negative max tokens",
			mutate:  func(c *Config) { c.Anthropic.MaxTokens = -1 },
			wantErr: true,
		},
		{
			name:    "bad telemetry exporter",
			mutate:  func(c *Config) { c.Telemetry.Exporter = "jaeger" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatalf("Default failed: %v", err)
			}
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate accepted an invalid config")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate rejected a valid config: %v", err)
			}
		})
	}
}

func TestFallbackKeyNewStore(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		cfg := FallbackKeyConfig{Storage: KeyStorageTypeNone}
		store, err := cfg.NewStore()
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		if store != nil {
			t.Error("NewStore returned a store for none storage")
		}
	})

	t.Run("env unset", func(t *testing.T) {
		cfg := FallbackKeyConfig{Storage: KeyStorageTypeEnv, EnvKey: "MTG_TAGGER_TEST_UNSET_KEY"}
		store, err := cfg.NewStore()
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		if store != nil {
			t.Error("NewStore returned a store for an unset env var")
		}
	})

	t.Run("env set", func(t *testing.T) {
		t.Setenv("MTG_TAGGER_TEST_KEY", "sk-ant-test")
		cfg := FallbackKeyConfig{Storage: KeyStorageTypeEnv, EnvKey: "MTG_TAGGER_TEST_KEY"}
		store, err := cfg.NewStore()
		if err != nil {
			t.Fatalf("NewStore failed: %v", err)
		}
		if store == nil {
			t.Fatal("NewStore returned nil for a set env var")
		}
	})

	t.Run("unknown storage", func(t *testing.T) {
		cfg := FallbackKeyConfig{Storage: "vault"}
		if _, err := cfg.NewStore(); err == nil {
			t.Error("NewStore accepted an unknown storage type")
		}
	})
}
