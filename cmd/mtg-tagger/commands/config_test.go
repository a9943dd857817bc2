package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hllvc/mtg-tagger/internal/app"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func noEnv() []string { return nil }

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", nil, noEnv)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000", cfg.Server.Port)
	}
	if cfg.Session.Backend != app.SessionBackendMemory {
		t.Errorf("session backend = %q, want memory", cfg.Session.Backend)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
log_format = "json"

[server]
host = "0.0.0.0"
port = 9000

[oauth]
client_id = "client-from-file"

[session]
backend = "redis"

[session.redis]
addr = "localhost:6379"
`)

	cfg, err := loadConfig(path, nil, noEnv)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log format = %q, want json", cfg.LogFormat)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.OAuth.ClientID != "client-from-file" {
		t.Errorf("client id = %q, want client-from-file", cfg.OAuth.ClientID)
	}
	if cfg.Session.Backend != app.SessionBackendRedis {
		t.Errorf("session backend = %q, want redis", cfg.Session.Backend)
	}
	if cfg.OAuth.RedirectURI != "http://localhost:9000/oauth/callback" {
		t.Errorf("redirect uri = %q, want it derived from the configured port", cfg.OAuth.RedirectURI)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	environ := func() []string {
		return []string{
			"MTG_TAGGER_SERVER__PORT=9100",
			"MTG_TAGGER_OAUTH__CLIENT_ID=client-from-env",
			"MTG_TAGGER_LOG_FORMAT=json",
			"UNRELATED_VAR=ignored",
		}
	}

	cfg, err := loadConfig("", nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100 from environment", cfg.Server.Port)
	}
	if cfg.OAuth.ClientID != "client-from-env" {
		t.Errorf("client id = %q, want client-from-env", cfg.OAuth.ClientID)
	}
	if cfg.LogFormat != app.LogFormatJSON {
		t.Errorf("log format = %q, want json from environment", cfg.LogFormat)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9000
`)
	environ := func() []string {
		return []string{"MTG_TAGGER_SERVER__PORT=9200"}
	}

	cfg, err := loadConfig(path, nil, environ)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9200 {
		t.Errorf("port = %d, want environment to override the file", cfg.Server.Port)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad session backend",
			content: "[session]\nbackend = \"memcached\"\n",
		},
		{
			name:    "redis backend without address",
			content: "[session]\nbackend = \"redis\"\n",
		},
		{
			name:    "bad log format",
			content: "log_format = \"yaml\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := loadConfig(path, nil, noEnv); err == nil {
				t.Error("loadConfig accepted an invalid config")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), nil, noEnv); err == nil {
		t.Error("loadConfig succeeded with a missing config file")
	}
}
