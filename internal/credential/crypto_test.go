package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundtrip(t *testing.T) {
	sealer := NewSealer("secret")
	plaintext := []byte(`[{"name":"SID","value":"abc"}]`)

	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "SID")

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestOpenRejectsTamperedBlob(t *testing.T) {
	sealer := NewSealer("secret")
	sealed, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)

	tampered := []byte(sealed)
	tampered[len(tampered)-5] ^= 1
	_, err = sealer.Open(string(tampered))
	assert.Error(t, err)
}

func TestOpenRejectsWrongKey(t *testing.T) {
	sealed, err := NewSealer("key-a").Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = NewSealer("key-b").Open(sealed)
	assert.Error(t, err)
}

func TestSealProducesFreshNonces(t *testing.T) {
	sealer := NewSealer("secret")
	a, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)
	b, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
