package session

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"veo-prompt-studio/internal/apperr"
	"veo-prompt-studio/internal/charpreview"
)

type Options struct {
	// Previews is the character preview backend. Without it sessions never
	// schedule previews.
	Previews       charpreview.Generator
	PreviewDelay   time.Duration
	PreviewTimeout time.Duration
	Logger         *slog.Logger
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
	logger   *slog.Logger
	closed   bool
}

func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger,
	}
}

// Create starts a session under a fresh random id. After Close it returns a
// session that is already closed and not stored.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(uuid.NewString())
}

func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Lookup is Get with a not found error for unknown ids.
func (s *Store) Lookup(id string) (*Session, error) {
	if sess, ok := s.Get(id); ok {
		return sess, nil
	}
	return nil, apperr.NotFound("sesi tidak ditemukan")
}

// GetOrCreate returns the session stored under key, creating it on first use.
// Chat front ends key sessions by chat. After Close it behaves like Create.
func (s *Store) GetOrCreate(key string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[key]; ok {
		return sess
	}
	return s.createLocked(key)
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.close()
	}
}

// Reap drops sessions idle for longer than maxIdle and returns how many were
// removed.
func (s *Store) Reap(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	var stale []*Session
	for id, sess := range s.sessions {
		if sess.LastActivity().Before(cutoff) {
			stale = append(stale, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		sess.close()
		s.logger.Info("session expired", "session_id", sess.ID)
	}
	return len(stale)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close ends every session and stops their preview timers.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.close()
	}
}

func (s *Store) createLocked(id string) *Session {
	sess := newSession(id)
	if s.closed {
		sess.close()
		return sess
	}
	if s.opts.Previews != nil {
		sess.refresher = charpreview.New(charpreview.Options{
			Delay:     s.opts.PreviewDelay,
			Timeout:   s.opts.PreviewTimeout,
			Generator: s.opts.Previews,
			Target:    sess,
			Logger:    s.logger.With("session_id", id),
			OnError: func(characterID string, err error) {
				sess.Notify(Event{Type: EventError, CharacterID: characterID, Message: apperr.UserMessage(err)})
			},
		})
	}
	s.sessions[id] = sess
	s.logger.Info("session created", "session_id", id)
	return sess
}
