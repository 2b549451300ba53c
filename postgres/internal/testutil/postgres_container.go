package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// GetPostgresDSN returns the DSN of a shared Testcontainers PostgreSQL
// instance. If the container cannot be started (e.g. Docker not available),
// tests are skipped.
func GetPostgresDSN(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgresContainer()
	})

	if pgErr != nil {
		t.Skipf("skipping PostgreSQL tests: %v", pgErr)
	}

	return pgDSN
}

func startPostgresContainer() (dsn string, err error) {
	// Give generous timeout in CI environments
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// Guard against Testcontainers panicking (e.g. rootless Docker on Windows).
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("starting PostgreSQL testcontainer panicked: %v", r)
		}
	}()

	postgresC, err := testcontainers.Run(
		ctx, "postgres:16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("ready to accept connections"),
				// Actively verify SQL connectivity using a DSN built from the mapped host:port.
				wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
					return fmt.Sprintf("postgres://flowgate:flowgate@%s:%s/flowgate_test?sslmode=disable", host, port.Port())
				}).WithQuery("SELECT 1"),
			).WithDeadline(2*time.Minute),
		),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "flowgate",
			"POSTGRES_PASSWORD": "flowgate",
			"POSTGRES_DB":       "flowgate_test",
		}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL testcontainer: %w", err)
	}

	// IMPORTANT: we DO NOT tie cleanup to any specific test via t.Cleanup.
	// The container is shared across the package; let Docker/Testcontainers
	// clean up at process exit.

	endpoint, err := postgresC.Endpoint(ctx, "")
	if err != nil {
		_ = postgresC.Terminate(context.Background())
		return "", fmt.Errorf("failed to get PostgreSQL endpoint: %w", err)
	}

	return fmt.Sprintf("postgres://flowgate:flowgate@%s/flowgate_test?sslmode=disable", endpoint), nil
}
