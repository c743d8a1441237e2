package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator clients
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrEmpty: record exists but its content has been cleared (soft delete)
// - ErrConflict: write lost to a concurrent update
// - ErrUnavailable: backing registry or store temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrEmpty       = errors.New("empty record")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
