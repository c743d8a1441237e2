//go:build integration

package consent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recproxy/pkg/testutil/containers"
)

func TestPostgresConsentStore(t *testing.T) {
	db := containers.StartPostgres(t)
	store := NewPostgresStore(db)
	ctx := context.Background()

	c := Consent{OwnerID: "alice", ReaderID: "bob", Resource: "https://www.youtube.com/", Anonymous: true}

	require.NoError(t, store.Save(ctx, c))
	// Saving the same consent again must not error or duplicate.
	require.NoError(t, store.Save(ctx, c))

	consents, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, consents, 1)
	assert.Equal(t, c, consents[0])

	other := c.WithAnonymous(false)
	require.NoError(t, store.Save(ctx, other))
	consents, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, consents, 2)

	require.NoError(t, store.Remove(ctx, c))
	consents, err = store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, consents, 1)
	assert.False(t, consents[0].Anonymous)

	// Removing an absent consent is a no-op.
	require.NoError(t, store.Remove(ctx, c))

	consents, err = store.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, consents)
}
