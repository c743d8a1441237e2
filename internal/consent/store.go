package consent

import "context"

// Store is the local mirror of the registry ledger. The registry alone cannot
// enumerate a user's grants (it only answers membership queries), so every
// grant is also recorded here for self-service review.
type Store interface {
	Save(ctx context.Context, c Consent) error
	Remove(ctx context.Context, c Consent) error
	ListByOwner(ctx context.Context, ownerID string) ([]Consent, error)
}
