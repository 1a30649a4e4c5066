package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizmaster/internal/app"
	"quizmaster/internal/logger"
)

const opTimeout = 2 * time.Second

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map: the quiz and its timer are process
//     state and are never serialized.
//   - Redis holds a liveness key per session with a TTL. Every Get refreshes it;
//     a session whose key has expired is idle and gets closed and dropped.
//   - A sweeper checks every ttl/2 so abandoned sessions are closed even when
//     nobody calls Get again. Watched sessions have their key refreshed instead.
//   - Redis errors are logged and do not fail the quiz; the local map stays authoritative.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session

	cancel context.CancelFunc
	swept  chan struct{}
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
		cancel:   cancel,
		swept:    make(chan struct{}),
	}
	go s.sweepLoop(ctx)
	return s
}

func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	previous, ok := s.sessions[session.ID()]
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	if ok && previous != session {
		previous.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.client.Set(ctx, s.key(session.ID()), session.CreatedAt().Unix(), s.ttl).Err(); err != nil {
		logger.Get().Warn("set session liveness key", zap.String("session_id", session.ID()), zap.Error(err))
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	alive, err := s.client.Expire(ctx, s.key(sessionID), s.ttl).Result()
	switch {
	case err != nil && !errors.Is(err, redis.Nil):
		logger.Get().Warn("refresh session liveness key", zap.String("session_id", sessionID), zap.Error(err))
		return session, true
	case !alive:
		logger.Get().Info("session expired", zap.String("session_id", sessionID))
		s.drop(sessionID, session)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		session.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		logger.Get().Warn("delete session liveness key", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Sweep drops local sessions whose liveness key has expired and refreshes the
// key of every watched session. It returns how many sessions were dropped.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.RLock()
	sessions := make(map[string]*app.Session, len(s.sessions))
	for id, session := range s.sessions {
		sessions[id] = session
	}
	s.mu.RUnlock()

	dropped := 0
	for id, session := range sessions {
		if err := ctx.Err(); err != nil {
			return dropped
		}
		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		var (
			alive bool
			err   error
		)
		if session.Watched() {
			alive, err = s.client.Expire(opCtx, s.key(id), s.ttl).Result()
		} else {
			var n int64
			n, err = s.client.Exists(opCtx, s.key(id)).Result()
			alive = n > 0
		}
		cancel()
		if err != nil {
			logger.Get().Warn("sweep session liveness key", zap.String("session_id", id), zap.Error(err))
			continue
		}
		if !alive {
			logger.Get().Info("session expired", zap.String("session_id", id))
			s.drop(id, session)
			dropped++
		}
	}
	return dropped
}

// Close stops the sweeper and closes every local session. Liveness keys are left to expire.
func (s *SessionStore) Close() {
	s.cancel()
	<-s.swept
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*app.Session)
	s.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}
}

func (s *SessionStore) drop(sessionID string, session *app.Session) {
	s.mu.Lock()
	if current, ok := s.sessions[sessionID]; ok && current == session {
		delete(s.sessions, sessionID)
	}
	s.mu.Unlock()
	session.Close()
}

func (s *SessionStore) sweepLoop(ctx context.Context) {
	defer close(s.swept)
	interval := s.ttl / 2
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
