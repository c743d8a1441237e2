package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	dErrors "recproxy/pkg/domain-errors"
)

const nonceSize = 24

// Sealer encrypts credential blobs at rest with a key derived from the
// configured secret. The random nonce is prepended to the box and the whole
// envelope is base64-encoded for storage in a TEXT column.
type Sealer struct {
	key [32]byte
}

func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

func (s *Sealer) Seal(plaintext []byte) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate nonce")
	}
	box := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

func (s *Sealer) Open(encoded string) ([]byte, error) {
	box, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored credential blob is not valid base64")
	}
	if len(box) < nonceSize {
		return nil, dErrors.New(dErrors.CodeInternal, "stored credential blob is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plaintext, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "stored credential blob failed authentication")
	}
	return plaintext, nil
}
