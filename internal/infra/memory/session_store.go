package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizmaster/internal/app"
	"quizmaster/internal/logger"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// With an idle TTL, a background sweeper closes sessions nobody has acted on or
// watched for that long.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session

	idleTTL time.Duration
	cancel  context.CancelFunc
	swept   chan struct{}
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithIdleTTL closes sessions idle for longer than d. Zero disables sweeping.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *SessionStore) { s.idleTTL = d }
}

func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*app.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idleTTL > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.swept = make(chan struct{})
		go s.sweepLoop(ctx, sweepInterval(s.idleTTL))
	}
	return s
}

// Save stores session, closing any other session held under the same ID.
func (s *SessionStore) Save(session *app.Session) {
	s.mu.Lock()
	previous, ok := s.sessions[session.ID()]
	s.sessions[session.ID()] = session
	s.mu.Unlock()
	if ok && previous != session {
		previous.Close()
	}
}

func (s *SessionStore) Get(sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Delete removes and closes the session.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if ok {
		session.Close()
	}
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes and drops every unwatched session whose last activity is at
// least the idle TTL before now. It returns how many were dropped.
func (s *SessionStore) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	var idle []*app.Session
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.Watched() || now.Sub(session.LastActive()) < s.idleTTL {
			continue
		}
		delete(s.sessions, id)
		idle = append(idle, session)
	}
	s.mu.Unlock()

	for _, session := range idle {
		logger.Get().Info("session expired", zap.String("session_id", session.ID()))
		session.Close()
	}
	return len(idle)
}

// Close stops the sweeper, then closes and drops every session.
func (s *SessionStore) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.swept
	}
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*app.Session)
	s.mu.Unlock()
	for _, session := range sessions {
		session.Close()
	}
}

func (s *SessionStore) sweepLoop(ctx context.Context, interval time.Duration) {
	defer close(s.swept)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if half := ttl / 2; half > 0 {
		return half
	}
	return ttl
}
