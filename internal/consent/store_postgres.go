package consent

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore mirrors the ledger in the consents table. Upserts keep stores
// idempotent at the row level.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, c Consent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO consents (hash, owner_id, reader_id, resource, anonymous)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash) DO NOTHING`,
		string(c.Hash()), c.OwnerID, c.ReaderID, c.Resource, c.Anonymous)
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, c Consent) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM consents WHERE hash = $1`, string(c.Hash()))
	if err != nil {
		return fmt.Errorf("remove consent: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID string) ([]Consent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, reader_id, resource, anonymous
		FROM consents WHERE owner_id = $1
		ORDER BY granted_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var consents []Consent
	for rows.Next() {
		var c Consent
		if err := rows.Scan(&c.OwnerID, &c.ReaderID, &c.Resource, &c.Anonymous); err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		consents = append(consents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consents: %w", err)
	}
	return consents, nil
}
