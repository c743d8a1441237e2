//go:build integration

// Package containers spins up throwaway backing services for integration
// tests. Everything here requires a local Docker daemon.
package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"recproxy/internal/platform/postgres"
)

// StartPostgres runs a disposable PostgreSQL container with the service
// schema applied and returns a connected handle. The container and the
// connection are torn down with the test.
func StartPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("recproxy"),
		tcpostgres.WithUsername("recproxy"),
		tcpostgres.WithPassword("recproxy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}
	db, err := postgres.Open(url)
	if err != nil {
		t.Fatalf("connect to postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}
