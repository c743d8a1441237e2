package permission

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists pairs in the permissions table. Row-level inserts and
// deletes merge naturally under concurrency, so no advisory locking is needed.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, readerID, ownerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO permissions (reader_id, owner_id)
		VALUES ($1, $2)
		ON CONFLICT (reader_id, owner_id) DO NOTHING`, readerID, ownerID)
	if err != nil {
		return fmt.Errorf("add permission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, readerID, ownerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE reader_id = $1 AND owner_id = $2`, readerID, ownerID)
	if err != nil {
		return fmt.Errorf("remove permission: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListOwners(ctx context.Context, readerID string) ([]string, error) {
	return s.list(ctx, `SELECT owner_id FROM permissions WHERE reader_id = $1 ORDER BY owner_id`, readerID)
}

func (s *PostgresStore) ListReaders(ctx context.Context, ownerID string) ([]string, error) {
	return s.list(ctx, `SELECT reader_id FROM permissions WHERE owner_id = $1 ORDER BY reader_id`, ownerID)
}

func (s *PostgresStore) list(ctx context.Context, query, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return ids, nil
}
