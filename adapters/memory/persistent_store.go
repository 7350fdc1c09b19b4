package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/circhioz/alexa-assistant/domain/repositories"
)

// PersistentStore is an in-memory PersistentStore used when no MongoDB is
// configured. Staged (uncommitted) writes stay invisible to readers until
// a committed write flushes them, matching the durable implementation.
type PersistentStore struct {
	mu        sync.RWMutex
	committed map[string]map[string]interface{}
	staged    map[string]map[string]interface{}
}

var _ repositories.PersistentStore = (*PersistentStore)(nil)

func NewPersistentStore() *PersistentStore {
	return &PersistentStore{
		committed: make(map[string]map[string]interface{}),
		staged:    make(map[string]map[string]interface{}),
	}
}

func (s *PersistentStore) GetString(ctx context.Context, userID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if attrs, ok := s.committed[userID]; ok {
		if v, ok := attrs[key]; ok {
			if str, ok := v.(string); ok {
				return str, nil
			}
			return "", fmt.Errorf("attribute %s is not a string", key)
		}
	}
	return "", nil
}

func (s *PersistentStore) GetInt(ctx context.Context, userID, key string, fallback int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if attrs, ok := s.committed[userID]; ok {
		if v, ok := attrs[key]; ok {
			switch n := v.(type) {
			case int:
				return n, nil
			case int32:
				return int(n), nil
			case int64:
				return int(n), nil
			case float64:
				return int(n), nil
			}
			return 0, fmt.Errorf("attribute %s is not numeric", key)
		}
	}
	return fallback, nil
}

func (s *PersistentStore) Set(ctx context.Context, userID, key string, value interface{}, commit bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.staged[userID] == nil {
		s.staged[userID] = make(map[string]interface{})
	}
	s.staged[userID][key] = value

	if !commit {
		return nil
	}

	if s.committed[userID] == nil {
		s.committed[userID] = make(map[string]interface{})
	}
	for k, v := range s.staged[userID] {
		s.committed[userID][k] = v
	}
	delete(s.staged, userID)
	return nil
}
