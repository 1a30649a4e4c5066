package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, BackendGemini, cfg.Generation.Backend)
	assert.Equal(t, "gemini-2.5-flash", cfg.Generation.Gemini.Model)
	assert.Equal(t, 5, cfg.Generation.DefaultQuestions)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: "9090"
generation:
  backend: OpenAI
  default_questions: 10
  openai:
    api_key: from-file
  gemini:
    base_url: http://localhost:9999
session:
  idle_ttl: 10m
redis:
  addr: localhost:6379
  ttl: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("OPENAI_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, BackendOpenAI, cfg.Generation.Backend)
	assert.Equal(t, "from-env", cfg.Generation.OpenAI.APIKey)
	assert.Equal(t, 10, cfg.Generation.DefaultQuestions)
	assert.Equal(t, 15*time.Minute, TTLDuration(cfg.Redis.TTL, time.Minute))
	assert.Equal(t, 10*time.Minute, TTLDuration(cfg.Session.IdleTTL, time.Minute))
	assert.Equal(t, "http://localhost:9999", cfg.Generation.Gemini.BaseURL)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(*Config)
		serving bool
		wantErr string
	}{
		{name: "gemini without key", mutate: func(c *Config) {}, wantErr: "gemini backend requires"},
		{name: "gemini with key", mutate: func(c *Config) { c.Generation.Gemini.APIKey = "k" }},
		{name: "openai without key", mutate: func(c *Config) { c.Generation.Backend = BackendOpenAI }, wantErr: "openai backend requires"},
		{name: "ollama with url", mutate: func(c *Config) {
			c.Generation.Backend = BackendOllama
			c.Generation.Ollama.ServerURL = "http://localhost:11434"
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.Generation.Backend = "bard" }, wantErr: "unknown generation backend"},
		{name: "default count out of range", mutate: func(c *Config) {
			c.Generation.Gemini.APIKey = "k"
			c.Generation.DefaultQuestions = 30
		}, wantErr: "default_questions"},
		{name: "serving needs secret", mutate: func(c *Config) { c.Generation.Gemini.APIKey = "k" }, serving: true, wantErr: "session_secret"},
		{name: "serving with secret", mutate: func(c *Config) {
			c.Generation.Gemini.APIKey = "k"
			c.Server.SessionSecret = "0123456789abcdef0123456789abcdef"
		}, serving: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate(tt.serving)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTTLDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Second, TTLDuration("2s", time.Minute))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "OLLAMA_SERVER_URL", "QUIZ_BACKEND",
		"REDIS_ADDR", "POSTGRES_URL", "SESSION_SECRET", "LOG_LEVEL", "APP_ENV",
	} {
		t.Setenv(name, "")
	}
}
