//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/noah-isme/absensi-api/migrations"
	"github.com/noah-isme/absensi-api/pkg/database"
)

// PostgresContainer is a migrated Postgres holding the anak and absensi tables.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sqlx.DB
}

// NewPostgresContainer starts postgres:16-alpine, applies the embedded migrations
// and registers cleanup on t.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("absensi"),
		tcpostgres.WithUsername("absensi"),
		tcpostgres.WithPassword("absensi"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := database.Open(dsn, 10, 5)
	if err != nil {
		t.Fatalf("failed to connect postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return &PostgresContainer{Container: container, DB: db}
}

// Reset truncates both tables and restarts their id sequences.
func (p *PostgresContainer) Reset(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, "TRUNCATE absensi, anak RESTART IDENTITY")
	return err
}
