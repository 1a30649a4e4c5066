package generation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// Model is a single-shot text completion backend that honours a JSON response format.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator turns a topic into a Quiz with one model call.
type Generator struct {
	model   Model
	backend string
	timeout time.Duration
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds each model call. Zero means no extra deadline.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

func NewGenerator(model Model, backend string, opts ...Option) *Generator {
	g := &Generator{model: model, backend: backend}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend names the model backend, for logs and the audit trail.
func (g *Generator) Backend() string {
	return g.backend
}

// GenerateQuiz asks the model for count questions about topic. Every failure,
// whether transport, provider or shape, is returned as *domain.GenerationError.
// There is no retry and no caching.
func (g *Generator) GenerateQuiz(ctx context.Context, topic string, count int) (domain.Quiz, error) {
	log := logger.Get().With(zap.String("backend", g.backend), zap.String("topic", topic), zap.Int("count", count))

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := BuildPrompt(topic, count)
	log.Debug("sending quiz prompt", zap.String("prompt", prompt))

	start := time.Now()
	raw, err := g.model.Generate(ctx, prompt)
	if err != nil {
		log.Error("quiz generation call failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return domain.Quiz{}, domain.NewGenerationError(err)
	}
	log.Debug("received quiz response", zap.String("raw_response", raw))

	quiz, err := ParseQuiz(raw)
	if err != nil {
		log.Error("invalid quiz format received from model", zap.Error(err), zap.String("raw_response", raw))
		return domain.Quiz{}, domain.NewGenerationError(err)
	}

	log.Info("quiz generated",
		zap.String("title", quiz.Title),
		zap.Int("questions", len(quiz.Questions)),
		zap.Duration("duration", time.Since(start)))
	return quiz, nil
}
