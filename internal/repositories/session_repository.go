package repositories

import (
	"sync"
	"time"

	"github.com/Angelicablandonn/chatbot-whatsapp/internal/domain/models"
)

// SessionStore holds conversation sessions keyed by sender id.
type SessionStore interface {
	Get(senderID string) (models.Session, bool)
	Put(s models.Session)
	Delete(senderID string)
	// Sweep removes sessions whose last activity is before cutoff and
	// returns how many were removed.
	Sweep(cutoff time.Time) int
	Count() int
}

// MemorySessionStore is the process-local SessionStore. Sessions do not
// survive a restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.Session)}
}

func (s *MemorySessionStore) Get(senderID string) (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[senderID]
	return sess, ok
}

func (s *MemorySessionStore) Put(sess models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SenderID] = sess
}

func (s *MemorySessionStore) Delete(senderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, senderID)
}

func (s *MemorySessionStore) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
