package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bizmatters/reasoning-console/internal/transcript"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GetTestDatabasePool creates a database connection pool for testing
func GetTestDatabasePool(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// DatabaseURL returns DATABASE_URL or builds one from the POSTGRES_* variables
func DatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	password := getenv("POSTGRES_PASSWORD", "postgres")
	dbname := getenv("POSTGRES_DB", "reasoning_console")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=prefer",
		user, password, host, port, dbname)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TestDatabase provides database utilities for testing
type TestDatabase struct {
	Pool *pgxpool.Pool
	ctx  context.Context
}

// NewTestDatabase connects to the test database. The test is skipped when no
// database is reachable.
func NewTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := GetTestDatabasePool(ctx)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	return &TestDatabase{
		Pool: pool,
		ctx:  context.Background(),
	}
}

// Close closes the database connection
func (db *TestDatabase) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// NewTranscriptStore opens a transcript store on its own pool with the schema in
// place. The store is closed when the test ends.
func (db *TestDatabase) NewTranscriptStore(t *testing.T) *transcript.PostgresStore {
	t.Helper()

	store, err := transcript.NewPostgresStore(db.ctx, DatabaseURL())
	if err != nil {
		t.Fatalf("Failed to open transcript store: %v", err)
	}
	if err := store.EnsureSchema(db.ctx); err != nil {
		store.Close()
		t.Fatalf("Failed to create transcript schema: %v", err)
	}
	t.Cleanup(store.Close)

	return store
}

// DeleteSession removes every transcript row of sessionID
func (db *TestDatabase) DeleteSession(t *testing.T, sessionID string) {
	t.Helper()
	if _, err := db.Pool.Exec(db.ctx, `DELETE FROM transcript_messages WHERE session_id = $1`, sessionID); err != nil {
		t.Logf("Warning: Failed to delete session %s: %v", sessionID, err)
	}
}

// GetMessageCount returns the number of recorded messages of sessionID
func (db *TestDatabase) GetMessageCount(t *testing.T, sessionID string) int {
	t.Helper()
	var count int
	err := db.Pool.QueryRow(db.ctx,
		`SELECT COUNT(*) FROM transcript_messages WHERE session_id = $1`, sessionID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to get message count: %v", err)
	}
	return count
}
