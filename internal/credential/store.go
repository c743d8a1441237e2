package credential

import "context"

// Record is the stored envelope for one owner and kind. Clearing a record
// empties its ciphertext but keeps the row, so the handle survives deletion
// the way an emptied mailbox does.
type Record struct {
	OwnerID    string
	Kind       Kind
	Ciphertext string
	Readers    []string
}

// Empty reports whether the record currently holds no credential material.
func (r Record) Empty() bool { return r.Ciphertext == "" }

// HasReader reports whether readerID is on the record's ACL.
func (r Record) HasReader(readerID string) bool {
	for _, id := range r.Readers {
		if id == readerID {
			return true
		}
	}
	return false
}

// Store persists credential records. Get returns sentinel.ErrNotFound when the
// owner never stored anything of that kind; a cleared record is returned with
// empty ciphertext. AddReader and RemoveReader apply to all of an owner's
// kinds at once, since reader grants are per owner, not per blob.
type Store interface {
	Save(ctx context.Context, ownerID string, kind Kind, ciphertext string) error
	Get(ctx context.Context, ownerID string, kind Kind) (Record, error)
	Clear(ctx context.Context, ownerID string, kind Kind) error
	AddReader(ctx context.Context, ownerID, readerID string) error
	RemoveReader(ctx context.Context, ownerID, readerID string) error
}
