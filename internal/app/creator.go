package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// QuizGenerator produces a quiz for a topic. generation.Generator is the production implementation.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, topic string, count int) (domain.Quiz, error)
	Backend() string
}

// AttemptLog records generation attempts. It never sees quiz content.
type AttemptLog interface {
	RecordAttempt(ctx context.Context, attempt domain.GenerationAttempt) error
}

// Creator is the creation flow for one client: validate input, call the generator
// once, and hand back a quiz. Only one submit may be pending at a time.
type Creator struct {
	gen      QuizGenerator
	attempts AttemptLog
	now      func() time.Time

	mu      sync.Mutex
	loading bool
	lastErr string
}

// NewCreator builds a Creator. attempts may be nil.
func NewCreator(gen QuizGenerator, attempts AttemptLog) *Creator {
	return &Creator{gen: gen, attempts: attempts, now: time.Now}
}

// Loading reports whether a submit is pending.
func (c *Creator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError is the user-facing message of the last failed submit, or "".
func (c *Creator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Submit validates topic and count and generates a quiz. Invalid input fails with
// *domain.InputValidationError before the generator is called; every generator
// failure comes back as *domain.GenerationError.
func (c *Creator) Submit(ctx context.Context, topic string, count int) (domain.Quiz, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return domain.Quiz{}, domain.ErrGenerationInFlight
	}
	topic = strings.TrimSpace(topic)
	if err := validateRequest(topic, count); err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		return domain.Quiz{}, err
	}
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	started := c.now()
	quiz, err := c.gen.GenerateQuiz(ctx, topic, count)
	c.recordAttempt(ctx, topic, count, started, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		var genErr *domain.GenerationError
		if !errors.As(err, &genErr) {
			err = domain.NewGenerationError(err)
		}
		c.lastErr = err.Error()
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func validateRequest(topic string, count int) error {
	if topic == "" {
		return domain.NewInputValidationError("Please enter a topic.")
	}
	if count < domain.MinQuestions || count > domain.MaxQuestions {
		return domain.NewInputValidationError("Number of questions must be between %d and %d.", domain.MinQuestions, domain.MaxQuestions)
	}
	return nil
}

func (c *Creator) recordAttempt(ctx context.Context, topic string, count int, started time.Time, genErr error) {
	if c.attempts == nil {
		return
	}
	attempt := domain.GenerationAttempt{
		ID:        uuid.NewString(),
		Topic:     topic,
		Count:     count,
		Backend:   c.gen.Backend(),
		Outcome:   domain.AttemptSucceeded,
		Duration:  c.now().Sub(started),
		CreatedAt: started,
	}
	if genErr != nil {
		attempt.Outcome = domain.AttemptFailed
		attempt.Error = causeOf(genErr)
	}
	// The request context may already be past its deadline when generation timed out.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.attempts.RecordAttempt(writeCtx, attempt); err != nil {
		logger.Get().Warn("record generation attempt", zap.String("attempt_id", attempt.ID), zap.Error(err))
	}
}

func causeOf(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Cause()
	}
	return err.Error()
}
