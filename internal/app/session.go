package app

import (
	"sync"
	"time"

	"quizmaster/internal/domain"
)

// State is a point-in-time copy of a session's raw state. Everything shown to a
// user is derived from (Quiz, State) by the functions in view.go.
type State struct {
	Phase          domain.Phase
	CurrentIndex   int
	Answers        domain.AnswerRecord
	ElapsedSeconds int
}

// Session is one run of quiz-taking over a single quiz:
// not_started -> in_progress -> finished. All mutations take mu, so transitions
// never interleave. Ticks come from a scoped ticker owned by the in_progress phase.
type Session struct {
	id        string
	quiz      domain.Quiz
	createdAt time.Time
	newTicker TickerFunc
	interval  time.Duration

	mu          sync.Mutex
	phase       domain.Phase
	current     int
	answers     domain.AnswerRecord
	elapsed     int
	ticker      *scopedTicker
	closed      bool
	done        chan struct{}
	lastActive  time.Time
	subscribers map[chan Snapshot]struct{}
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTicker replaces the wall-clock tick source, e.g. with a channel driven by a test.
func WithTicker(f TickerFunc) SessionOption {
	return func(s *Session) { s.newTicker = f }
}

// WithTickInterval sets the tick period. Each tick adds one second of elapsed time.
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewSession creates a session in the not_started phase.
func NewSession(id string, quiz domain.Quiz, opts ...SessionOption) *Session {
	now := time.Now()
	s := &Session{
		id:          id,
		quiz:        quiz,
		createdAt:   now,
		newTicker:   systemTicker,
		interval:    time.Second,
		phase:       domain.PhaseNotStarted,
		answers:     domain.AnswerRecord{},
		done:        make(chan struct{}),
		lastActive:  now,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt is when the session was built.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Quiz returns the quiz this session runs.
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// LastActive is the time of the last player action. Ticks do not count.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Watched reports whether anyone is subscribed to the session.
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) > 0
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start enters in_progress and starts the clock. Only valid from not_started, so a
// second call never creates a second ticker.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseNotStarted {
		return domain.ErrInvalidPhase
	}
	s.phase = domain.PhaseInProgress
	s.ticker = startScopedTicker(s.newTicker, s.interval, s.Tick)
	s.lastActive = time.Now()
	s.broadcastLocked()
	return nil
}

// Tick adds one second of elapsed time while in_progress and does nothing otherwise.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseInProgress {
		return
	}
	s.elapsed++
	s.broadcastLocked()
}

// SelectAnswer records value for question index. An index that already has an
// answer is left alone and false is returned.
func (s *Session) SelectAnswer(index int, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseInProgress {
		return false, domain.ErrInvalidPhase
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return false, domain.ErrQuestionNotFound
	}
	s.lastActive = time.Now()
	if !s.answers.Record(index, value) {
		return false, nil
	}
	s.broadcastLocked()
	return true, nil
}

// GoNext moves to the following question.
func (s *Session) GoNext() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goNextLocked()
}

func (s *Session) goNextLocked() error {
	if s.closed || s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidPhase
	}
	if s.current >= len(s.quiz.Questions)-1 {
		return domain.ErrNoNextQuestion
	}
	s.current++
	s.lastActive = time.Now()
	s.broadcastLocked()
	return nil
}

// Advance is GoNext as offered to users: the current question must be answered first.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhaseInProgress && !s.answers.Has(s.current) {
		return domain.ErrAnswerRequired
	}
	return s.goNextLocked()
}

// GoPrev moves to the preceding question.
func (s *Session) GoPrev() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != domain.PhaseInProgress {
		return domain.ErrInvalidPhase
	}
	if s.current <= 0 {
		return domain.ErrNoPreviousQuestion
	}
	s.current--
	s.lastActive = time.Now()
	s.broadcastLocked()
	return nil
}

// Finish ends the quiz. It requires the last question to be current and answered.
// Elapsed time is frozen and the ticker is released before Finish returns.
func (s *Session) Finish() error {
	s.mu.Lock()
	if s.closed || s.phase != domain.PhaseInProgress {
		s.mu.Unlock()
		return domain.ErrInvalidPhase
	}
	last := len(s.quiz.Questions) - 1
	if s.current != last || !s.answers.Has(last) {
		s.mu.Unlock()
		return domain.ErrFinishNotAllowed
	}
	s.phase = domain.PhaseFinished
	ticker := s.ticker
	s.ticker = nil
	s.lastActive = time.Now()
	s.broadcastLocked()
	s.mu.Unlock()

	// Released outside the lock: a tick blocked on mu must be able to run and
	// observe the finished phase before the goroutine can exit.
	if ticker != nil {
		ticker.release()
	}
	return nil
}

// Score is the number of correct answers so far.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ComputeScore(s.quiz.Questions, s.answers)
}

// State returns a copy of the raw session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Snapshot returns the derived view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close destroys the session: the ticker is released, subscribers are
// disconnected and Done is closed. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ticker := s.ticker
	s.ticker = nil
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()

	if ticker != nil {
		ticker.release()
	}
	close(s.done)
}

// Subscribe returns a channel of snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) stateLocked() State {
	return State{
		Phase:          s.phase,
		CurrentIndex:   s.current,
		Answers:        s.answers.Clone(),
		ElapsedSeconds: s.elapsed,
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Project(s.id, s.quiz, s.stateLocked())
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so a slow reader never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
