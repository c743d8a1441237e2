package consent

import (
	"context"
	"sync"

	"recproxy/internal/registry"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string]map[registry.Hash]Consent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byOwner: make(map[string]map[registry.Hash]Consent)}
}

func (s *InMemoryStore) Save(_ context.Context, c Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	consents := s.byOwner[c.OwnerID]
	if consents == nil {
		consents = make(map[registry.Hash]Consent)
		s.byOwner[c.OwnerID] = consents
	}
	consents[c.Hash()] = c
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, c Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byOwner[c.OwnerID], c.Hash())
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID string) ([]Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	consents := make([]Consent, 0, len(s.byOwner[ownerID]))
	for _, c := range s.byOwner[ownerID] {
		consents = append(consents, c)
	}
	return consents, nil
}
