// Package permission maintains the coarse reader→owners index: which owners
// have allowed a reader to attempt credential access at all. Fine-grained
// per-resource authorization stays with the consent ledger.
package permission

import "context"

// Store persists (reader, owner) pairs. Implementations must merge concurrent
// mutations for the same owner; replacing a whole set wholesale loses updates.
type Store interface {
	Add(ctx context.Context, readerID, ownerID string) error
	Remove(ctx context.Context, readerID, ownerID string) error
	ListOwners(ctx context.Context, readerID string) ([]string, error)
	ListReaders(ctx context.Context, ownerID string) ([]string, error)
}
