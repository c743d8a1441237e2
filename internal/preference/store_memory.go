package preference

import (
	"context"
	"sync"

	"recproxy/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{owners: make(map[string]string)}
}

func (s *InMemoryStore) Set(_ context.Context, userID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[userID] = ownerID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ownerID, ok := s.owners[userID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return ownerID, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, userID)
	return nil
}
