// Package testhelpers provides shared database fixtures for integration
// tests. Containers are created once per test run and reused.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the PostgreSQL image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// SalesTable is the table seeded into the test database. Its rows match
// the fixture used by the sqlite store tests so adapter behavior can be
// compared across drivers.
const SalesTable = "sales"

// TestDB holds a shared test database container and connection pool.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container for integration tests.
// The container is created once, seeded with the sales fixture, and
// reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "glint_test",
			"POSTGRES_USER":     "glint",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The postgres image restarts once during init, so wait for the
		// second ready line.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://glint:test_password@%s:%s/glint_test?sslmode=disable",
		host, port.Port())

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err := pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}

	if err := seedSalesData(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to seed test data: %w", err)
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		ConnStr:   connStr,
	}, nil
}

// seedSalesData loads the sales fixture. One row has a NULL amount and
// one a NULL sold_at so profiling tests see real null counts.
func seedSalesData(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE sales (
			order_id BIGINT NOT NULL,
			region   TEXT NOT NULL,
			amount   DOUBLE PRECISION,
			sold_at  TIMESTAMPTZ
		)`)
	if err != nil {
		return fmt.Errorf("create sales table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO sales (order_id, region, amount, sold_at) VALUES
			(1, 'west',  120.5,  '2025-01-01T00:00:00Z'),
			(2, 'west',  80,     '2025-01-02T00:00:00Z'),
			(3, 'east',  200,    '2025-01-03T00:00:00Z'),
			(4, 'east',  NULL,   '2025-01-04T00:00:00Z'),
			(5, 'south', 90.25,  NULL),
			(6, 'west',  150,    '2025-01-06T00:00:00Z')`)
	if err != nil {
		return fmt.Errorf("insert sales rows: %w", err)
	}

	return nil
}
