package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaster/internal/domain"
)

// AttemptLog writes one row per generation attempt to generation_attempts.
// Quiz content is never stored.
type AttemptLog struct {
	pool *pgxpool.Pool
}

func NewAttemptLog(pool *pgxpool.Pool) *AttemptLog {
	return &AttemptLog{pool: pool}
}

func (l *AttemptLog) RecordAttempt(ctx context.Context, attempt domain.GenerationAttempt) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO generation_attempts (id, topic, count, backend, outcome, error, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		attempt.ID, attempt.Topic, attempt.Count, attempt.Backend, string(attempt.Outcome),
		attempt.Error, attempt.Duration.Milliseconds(), attempt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert generation attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (l *AttemptLog) Recent(ctx context.Context, limit int) ([]domain.GenerationAttempt, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id::text, topic, count, backend, outcome, error, duration_ms, created_at
		 FROM generation_attempts ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query generation attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.GenerationAttempt
	for rows.Next() {
		var (
			a       domain.GenerationAttempt
			outcome string
			ms      int64
		)
		if err := rows.Scan(&a.ID, &a.Topic, &a.Count, &a.Backend, &outcome, &a.Error, &ms, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation attempt: %w", err)
		}
		a.Outcome = domain.AttemptOutcome(outcome)
		a.Duration = time.Duration(ms) * time.Millisecond
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
