package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizmaster/internal/app"
	"quizmaster/internal/config"
	"quizmaster/internal/generation"
	"quizmaster/internal/infra/gemini"
	"quizmaster/internal/infra/memory"
	"quizmaster/internal/infra/ollama"
	"quizmaster/internal/infra/openai"
	"quizmaster/internal/infra/postgres"
	redissession "quizmaster/internal/infra/redis"
	"quizmaster/internal/logger"
)

// loadConfig reads and validates configuration and initializes logging. Nothing
// runs a quiz flow until this has succeeded.
func loadConfig(path string, serving bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := logger.Initialize(cfg.Env, cfg.Log.Level); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.Validate(serving); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type sessionStore interface {
	app.SessionRepository
	Close()
}

// buildService assembles the quiz service from configuration. The returned
// cleanup releases every resource it opened.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	model, err := newModel(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	gen := generation.NewGenerator(model, cfg.Generation.Backend,
		generation.WithTimeout(config.TTLDuration(cfg.Generation.Timeout, 60*time.Second)))

	idleTTL := config.TTLDuration(cfg.Session.IdleTTL, app.DefaultClientTTL)
	var store sessionStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
		store = redissession.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
		logger.Get().Info("using redis session liveness", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = memory.NewSessionStore(memory.WithIdleTTL(idleTTL))
	}
	closers = append(closers, store.Close)

	opts := []app.ServiceOption{
		app.WithSessionOptions(app.WithTickInterval(config.TTLDuration(cfg.Session.TickInterval, time.Second))),
		app.WithClientTTL(idleTTL),
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		opts = append(opts, app.WithAttemptLog(postgres.NewAttemptLog(pool)))
		logger.Get().Info("generation audit log enabled")
	}

	return app.NewQuizService(store, gen, opts...), cleanup, nil
}

func newModel(ctx context.Context, cfg config.Config) (generation.Model, error) {
	g := cfg.Generation
	switch g.Backend {
	case config.BackendGemini:
		var opts []gemini.Option
		if g.Gemini.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(g.Gemini.BaseURL))
		}
		return gemini.New(ctx, g.Gemini.APIKey, g.Gemini.Model, opts...)
	case config.BackendOpenAI:
		return openai.New(g.OpenAI.APIKey, g.OpenAI.Model, g.OpenAI.BaseURL)
	case config.BackendOllama:
		return ollama.New(g.Ollama.ServerURL, g.Ollama.Model)
	default:
		return nil, fmt.Errorf("unknown generation backend %q", g.Backend)
	}
}
