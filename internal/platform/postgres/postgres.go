package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection. Returns nil when
// the URL is empty (in-memory stores are used instead).
func Open(url string) (*sql.DB, error) {
	if url == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// EnsureSchema applies the service schema. Idempotent; meant for dev and test
// environments where no external migration tooling runs.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS consents (
    hash        TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    reader_id   TEXT NOT NULL,
    resource    TEXT NOT NULL,
    anonymous   BOOLEAN NOT NULL,
    granted_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS consents_owner_idx ON consents (owner_id);

CREATE TABLE IF NOT EXISTS permissions (
    reader_id  TEXT NOT NULL,
    owner_id   TEXT NOT NULL,
    granted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (reader_id, owner_id)
);
CREATE INDEX IF NOT EXISTS permissions_owner_idx ON permissions (owner_id);

CREATE TABLE IF NOT EXISTS credential_records (
    owner_id   TEXT NOT NULL,
    kind       TEXT NOT NULL,
    ciphertext TEXT,
    readers    TEXT[] NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (owner_id, kind)
);

CREATE TABLE IF NOT EXISTS preferences (
    user_id    TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
