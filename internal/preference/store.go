// Package preference stores each user's sticky owner choice: the session owner
// the broker should keep picking for them until they change their mind.
package preference

import "context"

// Store persists the user -> preferred owner mapping. Get returns
// sentinel.ErrNotFound when the user has no preference.
type Store interface {
	Set(ctx context.Context, userID, ownerID string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}
