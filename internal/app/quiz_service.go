package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizmaster/internal/domain"
	"quizmaster/internal/logger"
)

// SessionRepository abstracts how quiz sessions are held (in-memory, Redis-backed, etc).
// Delete closes the session it removes. A repository may also close sessions on
// its own, e.g. when they expire; the service notices through Session.Done.
type SessionRepository interface {
	Save(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizService contains the quiz use cases. Each client has its own Creator and at
// most one active session; creating a new quiz replaces the previous session.
// A client entry lives while it has a session or a generation in flight; entries
// left with only a failed create are pruned after the client TTL.
type QuizService struct {
	sessions    SessionRepository
	gen         QuizGenerator
	attempts    AttemptLog
	sessionOpts []SessionOption
	clientTTL   time.Duration

	mu        sync.Mutex
	clients   map[string]*client
	lastPrune time.Time
}

type client struct {
	creator   *Creator
	sessionID string
	touched   time.Time
}

// DefaultClientTTL is how long a client entry without a session is kept.
const DefaultClientTTL = 30 * time.Minute

// ServiceOption configures a QuizService.
type ServiceOption func(*QuizService)

// WithAttemptLog records every generation attempt.
func WithAttemptLog(log AttemptLog) ServiceOption {
	return func(s *QuizService) { s.attempts = log }
}

// WithClientTTL sets how long a client entry without a session is kept.
func WithClientTTL(d time.Duration) ServiceOption {
	return func(s *QuizService) {
		if d > 0 {
			s.clientTTL = d
		}
	}
}

// WithSessionOptions applies opts to every session the service creates.
func WithSessionOptions(opts ...SessionOption) ServiceOption {
	return func(s *QuizService) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

func NewQuizService(store SessionRepository, gen QuizGenerator, opts ...ServiceOption) *QuizService {
	s := &QuizService{
		sessions:  store,
		gen:       gen,
		clientTTL: DefaultClientTTL,
		clients:   make(map[string]*client),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create generates a quiz for the client and opens a fresh not_started session on it.
// On failure the client's current session, if any, is left as it was.
func (s *QuizService) Create(ctx context.Context, clientID, topic string, count int) (Snapshot, error) {
	c := s.clientFor(clientID)
	quiz, err := c.creator.Submit(ctx, topic, count)
	if err != nil {
		return Snapshot{}, err
	}

	session := NewSession(uuid.NewString(), quiz, s.sessionOpts...)
	s.sessions.Save(session)

	s.mu.Lock()
	// A reset during generation may have removed the entry.
	cur, ok := s.clients[clientID]
	if !ok {
		cur = c
		s.clients[clientID] = cur
	}
	previous := cur.sessionID
	cur.sessionID = session.ID()
	cur.touched = time.Now()
	s.mu.Unlock()
	if previous != "" {
		s.sessions.Delete(previous)
	}
	go s.forgetWhenClosed(clientID, session)

	logger.Get().Info("quiz session created",
		zap.String("client_id", clientID),
		zap.String("session_id", session.ID()),
		zap.Int("questions", len(quiz.Questions)))
	return session.Snapshot(), nil
}

// Loading reports whether the client has a generation pending.
func (s *QuizService) Loading(clientID string) bool {
	c, ok := s.lookup(clientID)
	return ok && c.creator.Loading()
}

// LastError is the message of the client's last failed create.
func (s *QuizService) LastError(clientID string) string {
	c, ok := s.lookup(clientID)
	if !ok {
		return ""
	}
	return c.creator.LastError()
}

// Clients reports how many client entries are held.
func (s *QuizService) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Start begins the client's quiz and its timer.
func (s *QuizService) Start(_ context.Context, clientID string) (Snapshot, error) {
	return s.apply(clientID, (*Session).Start)
}

// SelectAnswer records value for question index. A second answer to the same
// question is ignored.
func (s *QuizService) SelectAnswer(_ context.Context, clientID string, index int, value string) (Snapshot, error) {
	return s.apply(clientID, func(session *Session) error {
		_, err := session.SelectAnswer(index, value)
		return err
	})
}

// Next moves forward; the current question must be answered.
func (s *QuizService) Next(_ context.Context, clientID string) (Snapshot, error) {
	return s.apply(clientID, (*Session).Advance)
}

// Prev moves back one question.
func (s *QuizService) Prev(_ context.Context, clientID string) (Snapshot, error) {
	return s.apply(clientID, (*Session).GoPrev)
}

// Finish ends the quiz and freezes the timer.
func (s *QuizService) Finish(_ context.Context, clientID string) (Snapshot, error) {
	snap, err := s.apply(clientID, (*Session).Finish)
	if err == nil && snap.Result != nil {
		logger.Get().Info("quiz finished",
			zap.String("session_id", snap.SessionID),
			zap.Int("score", snap.Result.Score),
			zap.Int("total", snap.Result.Total),
			zap.String("elapsed", snap.Result.Elapsed))
	}
	return snap, err
}

// Reset destroys the client's session and quiz and forgets the client unless a
// generation is still pending for it. It is a no-op without a session.
func (s *QuizService) Reset(_ context.Context, clientID string) {
	s.mu.Lock()
	c, ok := s.clients[clientID]
	var sessionID string
	if ok {
		sessionID = c.sessionID
		c.sessionID = ""
		if !c.creator.Loading() {
			delete(s.clients, clientID)
		}
	}
	s.mu.Unlock()

	if sessionID != "" {
		s.sessions.Delete(sessionID)
		logger.Get().Info("quiz session reset", zap.String("client_id", clientID), zap.String("session_id", sessionID))
	}
}

// Snapshot returns the client's current view.
func (s *QuizService) Snapshot(_ context.Context, clientID string) (Snapshot, error) {
	session, err := s.session(clientID)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot on every change of the
// client's session, ticks included. The channel closes when the session is reset
// or replaced. The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, clientID string) (<-chan Snapshot, func(), error) {
	session, err := s.session(clientID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

func (s *QuizService) apply(clientID string, op func(*Session) error) (Snapshot, error) {
	session, err := s.session(clientID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := op(session); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

func (s *QuizService) session(clientID string) (*Session, error) {
	s.mu.Lock()
	c, ok := s.clients[clientID]
	var sessionID string
	if ok {
		sessionID = c.sessionID
	}
	s.mu.Unlock()
	if sessionID == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, ok := s.sessions.Get(sessionID)
	if !ok {
		s.forget(clientID, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// forgetWhenClosed waits for the session to close, however that happens, and
// forgets it for the client.
func (s *QuizService) forgetWhenClosed(clientID string, session *Session) {
	<-session.Done()
	s.forget(clientID, session.ID())
}

// forget clears sessionID from the client and drops the entry when nothing else
// keeps it. A client that has moved on to another session is left alone.
func (s *QuizService) forget(clientID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	if !ok || c.sessionID != sessionID {
		return
	}
	c.sessionID = ""
	if !c.creator.Loading() {
		delete(s.clients, clientID)
	}
}

func (s *QuizService) lookup(clientID string) (*client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[clientID]
	return c, ok
}

func (s *QuizService) clientFor(clientID string) *client {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.pruneLocked(now)
	c, ok := s.clients[clientID]
	if !ok {
		c = &client{creator: NewCreator(s.gen, s.attempts)}
		s.clients[clientID] = c
	}
	c.touched = now
	return c
}

// pruneLocked drops sessionless, idle client entries. It runs at most once per
// half TTL.
func (s *QuizService) pruneLocked(now time.Time) {
	if now.Sub(s.lastPrune) < s.clientTTL/2 {
		return
	}
	s.lastPrune = now
	for id, c := range s.clients {
		if c.sessionID == "" && now.Sub(c.touched) >= s.clientTTL && !c.creator.Loading() {
			delete(s.clients, id)
		}
	}
}
