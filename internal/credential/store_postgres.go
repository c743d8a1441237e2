package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"recproxy/pkg/platform/sentinel"
)

// PostgresStore persists credential records in the credential_records table,
// one row per owner and kind. A NULL ciphertext marks a cleared record.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, ownerID string, kind Kind, ciphertext string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credential_records (owner_id, kind, ciphertext)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, kind)
		DO UPDATE SET ciphertext = EXCLUDED.ciphertext, updated_at = now()`,
		ownerID, string(kind), ciphertext)
	if err != nil {
		return fmt.Errorf("save credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, ownerID string, kind Kind) (Record, error) {
	var (
		ciphertext sql.NullString
		readers    []string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT ciphertext, readers FROM credential_records
		WHERE owner_id = $1 AND kind = $2`,
		ownerID, string(kind)).Scan(&ciphertext, pq.Array(&readers))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get credential record: %w", err)
	}
	return Record{
		OwnerID:    ownerID,
		Kind:       kind,
		Ciphertext: ciphertext.String,
		Readers:    readers,
	}, nil
}

func (s *PostgresStore) Clear(ctx context.Context, ownerID string, kind Kind) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credential_records SET ciphertext = NULL, updated_at = now()
		WHERE owner_id = $1 AND kind = $2`,
		ownerID, string(kind))
	if err != nil {
		return fmt.Errorf("clear credential record: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddReader(ctx context.Context, ownerID, readerID string) error {
	for _, kind := range []Kind{KindCookies, KindHeaders} {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO credential_records (owner_id, kind, ciphertext, readers)
			VALUES ($1, $2, NULL, ARRAY[$3])
			ON CONFLICT (owner_id, kind)
			DO UPDATE SET readers = CASE
				WHEN $3 = ANY (credential_records.readers) THEN credential_records.readers
				ELSE array_append(credential_records.readers, $3)
			END`,
			ownerID, string(kind), readerID)
		if err != nil {
			return fmt.Errorf("add reader: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) RemoveReader(ctx context.Context, ownerID, readerID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credential_records SET readers = array_remove(readers, $2)
		WHERE owner_id = $1`,
		ownerID, readerID)
	if err != nil {
		return fmt.Errorf("remove reader: %w", err)
	}
	return nil
}
