// AngelaMos | 2026
// postgres.go

package testpg

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/carterperez-dev/memoria/internal/core"
)

// Start runs a disposable Postgres with the schema migrated and returns a
// connected pool. Tests calling it are skipped under -short.
func Start(tb testing.TB) *sqlx.DB {
	tb.Helper()

	if testing.Short() {
		tb.Skip("postgres container skipped in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(
		ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("memoria"),
		postgres.WithUsername("memoria"),
		postgres.WithPassword("memoria"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("start postgres container: %v", err)
	}

	tb.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			tb.Errorf("terminate postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("build postgres connection string: %v", err)
	}

	db, err := connect(ctx, dsn)
	if err != nil {
		tb.Fatalf("connect postgres: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })

	if err := core.Migrate(ctx, db.DB, core.MigrateUp); err != nil {
		tb.Fatalf("migrate: %v", err)
	}

	return db
}

func connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	deadline := time.Now().Add(20 * time.Second)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		db, err := sqlx.ConnectContext(attemptCtx, "pgx", dsn)
		cancel()
		if err == nil {
			return db, nil
		}
		lastErr = err
		time.Sleep(250 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = context.DeadlineExceeded
	}
	return nil, lastErr
}

// CreateUser inserts a bare user row and returns its id.
func CreateUser(tb testing.TB, db *sqlx.DB, username string) string {
	tb.Helper()

	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, username) VALUES ($1, $2)`, id, username)
	if err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return id
}
