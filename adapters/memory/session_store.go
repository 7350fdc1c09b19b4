// Package memory provides in-memory implementations of the storage
// contracts: the per-session conversation state store used in every
// deployment, and a persistent store substitute for development and tests.
package memory

import (
	"sync"
	"time"
)

const defaultSessionTTL = 30 * time.Minute

type sessionEntry struct {
	conversationState []byte
	lastTouched       time.Time
}

// SessionStore keeps conversation continuation blobs per session. Entries
// expire after a TTL so abandoned sessions do not accumulate; an expired
// entry reads back as empty, which starts a new conversation.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
		ttl:      defaultSessionTTL,
	}
}

func (s *SessionStore) GetConversationState(sessionID string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	if time.Since(entry.lastTouched) > s.ttl {
		delete(s.sessions, sessionID)
		return nil
	}
	return entry.conversationState
}

func (s *SessionStore) SetConversationState(sessionID string, state []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = &sessionEntry{
		conversationState: state,
		lastTouched:       time.Now(),
	}
}

func (s *SessionStore) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
