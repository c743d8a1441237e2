// Package audit records who touched whose session credentials and why. Events
// are appended to a local store and optionally forwarded to Kafka for
// downstream compliance tooling.
package audit

import (
	"context"
	"time"
)

type EventType string

const (
	EventConsentGranted     EventType = "consent.granted"
	EventConsentRevoked     EventType = "consent.revoked"
	EventConsentBypassed    EventType = "consent.bypassed"
	EventReaderGranted      EventType = "reader.granted"
	EventReaderRevoked      EventType = "reader.revoked"
	EventCredentialsStored  EventType = "credentials.stored"
	EventCredentialsCleared EventType = "credentials.cleared"
	EventAccessGranted      EventType = "access.granted"
	EventAccessDenied       EventType = "access.denied"
)

// Event is one audit record. UserID is the acting user; Subject is the
// counterparty when one exists (the owner whose store was read, the reader
// who was granted).
type Event struct {
	UserID    string            `json:"user_id"`
	Action    string            `json:"action"`
	Subject   string            `json:"subject,omitempty"`
	Resource  string            `json:"resource,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Store is an append-only event log queryable per user.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
