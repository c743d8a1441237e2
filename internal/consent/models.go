package consent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"recproxy/internal/registry"
	dErrors "recproxy/pkg/domain-errors"
)

// Consent is a scoped, revocable grant: the owner allows the reader to use the
// owner's session credentials for the given resource. Anonymous grants only
// cover requests where the reader does not learn whose credentials were used.
// Immutable once constructed; revocation is a separate ledger operation
// referencing an equal value, never a mutation.
type Consent struct {
	OwnerID   string `json:"owner"`
	ReaderID  string `json:"reader"`
	Resource  string `json:"resource"`
	Anonymous bool   `json:"anonymous"`
}

// Validate rejects consents that could never authorize anything.
func (c Consent) Validate() error {
	switch {
	case c.OwnerID == "":
		return dErrors.New(dErrors.CodeBadRequest, "consent owner must not be empty")
	case c.ReaderID == "":
		return dErrors.New(dErrors.CodeBadRequest, "consent reader must not be empty")
	case c.Resource == "":
		return dErrors.New(dErrors.CodeBadRequest, "consent resource must not be empty")
	}
	return nil
}

// WithAnonymous returns a copy with the anonymity flag replaced. Used for the
// subsumption fallback: a non-anonymous grant also satisfies anonymous checks.
func (c Consent) WithAnonymous(anon bool) Consent {
	c.Anonymous = anon
	return c
}

// Hash produces the ledger key: SHA-256 over the canonical JSON serialization.
// Field order is fixed by the struct definition, so equal consents always
// produce equal hashes.
func (c Consent) Hash() registry.Hash {
	payload, err := json.Marshal(c)
	if err != nil {
		// Marshaling a flat struct of strings cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return registry.Hash(hex.EncodeToString(sum[:]))
}
