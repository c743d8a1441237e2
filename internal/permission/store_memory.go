package permission

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps both directions of the index so owner-side cleanup does
// not scan every reader. A single mutex serializes read-modify-write cycles,
// which is the per-owner linearization the index requires.
type InMemoryStore struct {
	mu       sync.RWMutex
	byReader map[string]map[string]bool
	byOwner  map[string]map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byReader: make(map[string]map[string]bool),
		byOwner:  make(map[string]map[string]bool),
	}
}

func (s *InMemoryStore) Add(_ context.Context, readerID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byReader[readerID] == nil {
		s.byReader[readerID] = make(map[string]bool)
	}
	if s.byOwner[ownerID] == nil {
		s.byOwner[ownerID] = make(map[string]bool)
	}
	s.byReader[readerID][ownerID] = true
	s.byOwner[ownerID][readerID] = true
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, readerID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byReader[readerID], ownerID)
	delete(s.byOwner[ownerID], readerID)
	return nil
}

func (s *InMemoryStore) ListOwners(_ context.Context, readerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.byReader[readerID]), nil
}

func (s *InMemoryStore) ListReaders(_ context.Context, ownerID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.byOwner[ownerID]), nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
