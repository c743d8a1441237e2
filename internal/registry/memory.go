package registry

import (
	"context"
	"sync"
)

// InMemory is the registry used in dev mode and tests. Semantics match the
// external ledger: idempotent stores, no-op revokes of absent hashes.
type InMemory struct {
	mu      sync.RWMutex
	hashes  map[Hash]bool
	failErr error
}

func NewInMemory() *InMemory {
	return &InMemory{hashes: make(map[Hash]bool)}
}

// FailWith makes every call return err until reset; used to exercise the
// unavailable paths.
func (r *InMemory) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failErr = err
}

func (r *InMemory) HashExists(_ context.Context, h Hash) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failErr != nil {
		return false, r.failErr
	}
	return r.hashes[h], nil
}

func (r *InMemory) StoreHash(_ context.Context, h Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	r.hashes[h] = true
	return nil
}

func (r *InMemory) RevokeHash(_ context.Context, h Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	delete(r.hashes, h)
	return nil
}
