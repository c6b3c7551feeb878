// Package dbtest starts a throwaway PostgreSQL for repository integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	database "github.com/sebuszqo/FamilyFinance/db"
)

// NewDB starts a postgres container, applies the schema and returns a
// DBService bound to it. The test is skipped under -short or when no
// container runtime is available.
func NewDB(t *testing.T) *database.DBService {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("family_finance"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("could not terminate postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("could not get connection string: %v", err)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		t.Fatalf("could not open db: %v", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("could not migrate: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("could not create pool: %v", err)
	}

	svc := &database.DBService{DB: db, Pool: pool}
	t.Cleanup(func() { svc.Close() })
	return svc
}

// NewWorkspace inserts a bare workspace row and returns its id.
func NewWorkspace(t *testing.T, db *sql.DB, ownerID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(`INSERT INTO workspaces (name, owner_id) VALUES ($1, $2) RETURNING id`, "test", ownerID).Scan(&id)
	if err != nil {
		t.Fatalf("could not create workspace: %v", err)
	}
	_, err = db.Exec(`INSERT INTO workspace_members (workspace_id, user_id, role) VALUES ($1, $2, 'owner')`, id, ownerID)
	if err != nil {
		t.Fatalf("could not add owner: %v", err)
	}
	return id
}
