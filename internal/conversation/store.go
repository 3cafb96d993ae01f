// Package conversation keeps per-user dialog state for the lifetime of the process.
package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/healthflow/internal/domain"
)

// DefaultMaxMessages bounds a saved history when no limit is configured.
const DefaultMaxMessages = 200

// Options configures a Store.
type Options struct {
	// MaxMessages caps the retained history; zero means DefaultMaxMessages,
	// a negative value disables windowing.
	MaxMessages int
	// IdleTTL evicts sessions untouched for longer than this. Zero disables eviction.
	IdleTTL time.Duration
	// SweepInterval is how often Run checks for idle sessions.
	SweepInterval time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

// Store is a concurrency-safe map of user id to conversation session.
// Each key has its own mutex: turns of one user are serialized while other
// users proceed independently.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*entry

	maxMessages   int
	idleTTL       time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

type entry struct {
	mu      sync.Mutex
	session *domain.ConversationSession
	touched time.Time
	removed bool
}

// NewStore creates an empty store.
func NewStore(opts Options) *Store {
	s := &Store{
		sessions:      make(map[int64]*entry),
		maxMessages:   opts.MaxMessages,
		idleTTL:       opts.IdleTTL,
		sweepInterval: opts.SweepInterval,
		logger:        opts.Logger,
		now:           opts.Now,
	}
	if s.maxMessages == 0 {
		s.maxMessages = DefaultMaxMessages
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = time.Minute
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// acquire returns the locked entry for userID, creating it when missing.
func (s *Store) acquire(userID int64) *entry {
	for {
		s.mu.Lock()
		e, ok := s.sessions[userID]
		if !ok {
			e = &entry{}
			s.sessions[userID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

func (e *entry) ensure(userID int64) *domain.ConversationSession {
	if e.session == nil {
		e.session = &domain.ConversationSession{UserID: userID}
	}
	return e.session
}

// GetOrCreate returns a copy of the user's session, creating an empty one on first access.
func (s *Store) GetOrCreate(userID int64) *domain.ConversationSession {
	e := s.acquire(userID)
	defer e.mu.Unlock()
	e.touched = s.now()
	return e.ensure(userID).Clone()
}

// Append adds messages to the end of the user's history.
func (s *Store) Append(userID int64, msgs ...domain.Message) {
	e := s.acquire(userID)
	defer e.mu.Unlock()
	sess := e.ensure(userID)
	sess.Messages = s.window(append(sess.Messages, msgs...))
	sess.UpdatedAt = s.now()
	e.touched = sess.UpdatedAt
}

// Save replaces the user's session with a copy of sess.
func (s *Store) Save(userID int64, sess *domain.ConversationSession) {
	e := s.acquire(userID)
	defer e.mu.Unlock()
	s.store(e, userID, sess)
}

func (s *Store) store(e *entry, userID int64, sess *domain.ConversationSession) {
	saved := sess.Clone()
	if saved == nil {
		saved = &domain.ConversationSession{}
	}
	saved.UserID = userID
	saved.Messages = s.window(saved.Messages)
	saved.UpdatedAt = s.now()
	e.session = saved
	e.touched = saved.UpdatedAt
}

// Update runs fn with exclusive access to a copy of the user's session and
// saves whatever fn left in it, whether or not fn returned an error.
// fn must not call back into the store for the same user.
func (s *Store) Update(userID int64, fn func(sess *domain.ConversationSession) error) error {
	e := s.acquire(userID)
	defer e.mu.Unlock()

	sess := e.ensure(userID).Clone()
	err := fn(sess)
	s.store(e, userID, sess)
	return err
}

// ClearContext resets the extracted context and keeps the history.
func (s *Store) ClearContext(userID int64) {
	e := s.acquire(userID)
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Context = domain.ExtractedContext{}
		e.session.UpdatedAt = s.now()
	}
}

// ClearAll drops the user's history and context.
func (s *Store) ClearAll(userID int64) {
	e := s.acquire(userID)
	defer e.mu.Unlock()
	e.session = nil
}

// Summary reports the context and history length without creating a session.
func (s *Store) Summary(userID int64) domain.ConversationSummary {
	s.mu.Lock()
	e, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return domain.ConversationSummary{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return domain.ConversationSummary{}
	}
	summary := domain.ConversationSummary{
		Context:      e.session.Context,
		MessageCount: len(e.session.Messages),
	}
	summary.Context.AvailableSlots = append([]string(nil), e.session.Context.AvailableSlots...)
	return summary
}

// Exists reports whether the user has a session with any state.
func (s *Store) Exists(userID int64) bool {
	s.mu.Lock()
	e, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// Len returns the number of tracked users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run evicts idle sessions until ctx is done. It returns immediately when
// eviction is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweepIdle(); n > 0 {
				s.logger.Debug("evicted idle conversations", zap.Int("count", n))
			}
		}
	}
}

func (s *Store) sweepIdle() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, e := range s.sessions {
		// Skip users with a turn in flight.
		if !e.mu.TryLock() {
			continue
		}
		if e.touched.Before(cutoff) {
			e.removed = true
			delete(s.sessions, userID)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}
