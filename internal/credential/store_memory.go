package credential

import (
	"context"
	"sync"

	"recproxy/pkg/platform/sentinel"
)

type recordKey struct {
	ownerID string
	kind    Kind
}

// InMemoryStore keeps credential records in process memory. Used in tests and
// when no Postgres URL is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[recordKey]*Record)}
}

func (s *InMemoryStore) Save(_ context.Context, ownerID string, kind Kind, ciphertext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ensureLocked(ownerID, kind)
	rec.Ciphertext = ciphertext
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, ownerID string, kind Kind) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{ownerID, kind}]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	out := *rec
	out.Readers = append([]string(nil), rec.Readers...)
	return out, nil
}

// Clear empties the ciphertext but keeps the row. Clearing a record that was
// never stored is a successful no-op.
func (s *InMemoryStore) Clear(_ context.Context, ownerID string, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[recordKey{ownerID, kind}]; ok {
		rec.Ciphertext = ""
	}
	return nil
}

func (s *InMemoryStore) AddReader(_ context.Context, ownerID, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []Kind{KindCookies, KindHeaders} {
		rec := s.ensureLocked(ownerID, kind)
		if !rec.HasReader(readerID) {
			rec.Readers = append(rec.Readers, readerID)
		}
	}
	return nil
}

func (s *InMemoryStore) RemoveReader(_ context.Context, ownerID, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []Kind{KindCookies, KindHeaders} {
		rec, ok := s.records[recordKey{ownerID, kind}]
		if !ok {
			continue
		}
		kept := rec.Readers[:0]
		for _, id := range rec.Readers {
			if id != readerID {
				kept = append(kept, id)
			}
		}
		rec.Readers = kept
	}
	return nil
}

func (s *InMemoryStore) ensureLocked(ownerID string, kind Kind) *Record {
	key := recordKey{ownerID, kind}
	rec, ok := s.records[key]
	if !ok {
		rec = &Record{OwnerID: ownerID, Kind: kind}
		s.records[key] = rec
	}
	return rec
}
