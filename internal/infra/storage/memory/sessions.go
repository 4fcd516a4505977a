package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	domainaudit "hotelaudit/internal/domain/audit"
)

// ErrSessionNotFound is returned when advancing a session that never started.
var ErrSessionNotFound = errors.New("memory: audit session not found")

// SessionStore keeps audit sessions in process memory.
type SessionStore struct {
	mu    sync.Mutex
	items map[string]*domainaudit.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]*domainaudit.Session)}
}

// Start atomically checks the busy flag and moves the session to validating.
func (s *SessionStore) Start(ctx context.Context, sessionID, runID string, now time.Time) (domainaudit.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		sess = domainaudit.NewSession(sessionID, now)
		s.items[sessionID] = sess
	}
	if err := sess.Start(runID, now); err != nil {
		return *sess, err
	}
	return *sess, nil
}

func (s *SessionStore) Advance(ctx context.Context, sessionID string, to domainaudit.State, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return sess.Advance(to, now)
}

func (s *SessionStore) Fail(ctx context.Context, sessionID, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return sess.Fail(reason, now)
}

// Get returns a copy of the session, or a fresh idle one if it was never seen.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (domainaudit.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.items[sessionID]; ok {
		return *sess, nil
	}
	return *domainaudit.NewSession(sessionID, time.Now().UTC()), nil
}

// Prune drops sessions that are not running and were last touched before now-ttl.
func (s *SessionStore) Prune(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-ttl)
	removed := 0
	for id, sess := range s.items {
		if sess.State.Busy() || sess.UpdatedAt.After(cutoff) {
			continue
		}
		delete(s.items, id)
		removed++
	}
	return removed
}

// Len reports the number of tracked sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
