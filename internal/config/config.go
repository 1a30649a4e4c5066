package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quizmaster/internal/domain"
)

const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

type Config struct {
	Env string `yaml:"env"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Server struct {
		Port          string `yaml:"port"`
		SessionSecret string `yaml:"session_secret"`
		ReadTimeout   string `yaml:"read_timeout"`
		WriteTimeout  string `yaml:"write_timeout"`
	} `yaml:"server"`
	Generation struct {
		Backend          string `yaml:"backend"`
		Timeout          string `yaml:"timeout"`
		DefaultQuestions int    `yaml:"default_questions"`
		Gemini           struct {
			APIKey  string `yaml:"api_key"`
			Model   string `yaml:"model"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"gemini"`
		OpenAI struct {
			APIKey  string `yaml:"api_key"`
			Model   string `yaml:"model"`
			BaseURL string `yaml:"base_url"`
		} `yaml:"openai"`
		Ollama struct {
			ServerURL string `yaml:"server_url"`
			Model     string `yaml:"model"`
		} `yaml:"ollama"`
	} `yaml:"generation"`
	Session struct {
		TickInterval string `yaml:"tick_interval"`
		IdleTTL      string `yaml:"idle_ttl"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields defaults so the
// binary can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	// API_KEY is the variable name the web client historically used for Gemini.
	for _, name := range []string{"API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.Generation.Gemini.APIKey = v
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Generation.OpenAI.APIKey = v
	}
	if v := os.Getenv("OLLAMA_SERVER_URL"); v != "" {
		c.Generation.Ollama.ServerURL = v
	}
	if v := os.Getenv("QUIZ_BACKEND"); v != "" {
		c.Generation.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Env = v
	}
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	c.Generation.Backend = strings.ToLower(strings.TrimSpace(c.Generation.Backend))
	if c.Generation.Backend == "" {
		c.Generation.Backend = BackendGemini
	}
	if c.Generation.DefaultQuestions == 0 {
		c.Generation.DefaultQuestions = domain.DefaultQuestions
	}
	if c.Generation.Gemini.Model == "" {
		c.Generation.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Generation.OpenAI.Model == "" {
		c.Generation.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Generation.Ollama.Model == "" {
		c.Generation.Ollama.Model = "llama3.1"
	}
}

// Validate reports configuration errors that would otherwise surface deep inside a
// quiz-creation request. serving adds the checks needed by the HTTP server.
func (c Config) Validate(serving bool) error {
	var errs []error
	switch c.Generation.Backend {
	case BackendGemini:
		if c.Generation.Gemini.APIKey == "" {
			errs = append(errs, errors.New("gemini backend requires generation.gemini.api_key or GEMINI_API_KEY"))
		}
	case BackendOpenAI:
		if c.Generation.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai backend requires generation.openai.api_key or OPENAI_API_KEY"))
		}
	case BackendOllama:
		if c.Generation.Ollama.ServerURL == "" {
			errs = append(errs, errors.New("ollama backend requires generation.ollama.server_url or OLLAMA_SERVER_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown generation backend %q", c.Generation.Backend))
	}
	if n := c.Generation.DefaultQuestions; n < domain.MinQuestions || n > domain.MaxQuestions {
		errs = append(errs, fmt.Errorf("generation.default_questions must be within [%d,%d], got %d", domain.MinQuestions, domain.MaxQuestions, n))
	}
	if serving && len(c.Server.SessionSecret) < 32 {
		errs = append(errs, errors.New("server.session_secret must be at least 32 bytes"))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
