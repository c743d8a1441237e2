// Package registry abstracts the external append-only consent registry. The
// ledger is a set of content hashes; presence means granted. The production
// deployment fronts a smart-contract registry through a gateway exposing these
// three operations over HTTP, but the consent service only ever sees this
// interface.
package registry

import "context"

// Hash is the hex-encoded canonical consent hash used as the ledger key.
type Hash string

// Client is the minimal registry surface. All errors returned by
// implementations wrap sentinel.ErrUnavailable when communication failed, so
// callers can distinguish "registry said no" from "registry unreachable".
type Client interface {
	HashExists(ctx context.Context, h Hash) (bool, error)
	StoreHash(ctx context.Context, h Hash) error
	RevokeHash(ctx context.Context, h Hash) error
}
