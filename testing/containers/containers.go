//go:build integration

// Package containers starts throwaway database servers for integration tests
// and describes them as config.DatabaseConfig values ready for the connectors.
// Tests are skipped when no Docker daemon is reachable.
package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/logger"
)

// Database is a running database container.
type Database struct {
	container testcontainers.Container
	config    config.DatabaseConfig
}

// DatabaseConfig returns a copy of the connection settings for the container.
func (d *Database) DatabaseConfig() *config.DatabaseConfig {
	cfg := d.config
	return &cfg
}

// Terminate stops and removes the container.
func (d *Database) Terminate(ctx context.Context) error {
	if d.container == nil {
		return nil
	}
	return d.container.Terminate(ctx)
}

// WithCleanup terminates the container when the test finishes.
func (d *Database) WithCleanup(t *testing.T) *Database {
	t.Helper()
	t.Cleanup(func() {
		if err := d.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate %s container: %v", d.config.Type, err)
		}
	})
	return d
}

// skipWithoutDocker skips t when the Docker daemon cannot be reached.
func skipWithoutDocker(ctx context.Context, t *testing.T) {
	t.Helper()

	provider, err := testcontainers.NewDockerProvider()
	if err == nil {
		defer provider.Close()
		_, err = provider.DaemonHost(ctx)
	}
	if err != nil {
		t.Skip("Docker is not available - skipping integration test. Install Docker Desktop or ensure Docker daemon is running.")
	}
}

var connectionStringFilter = logger.NewSensitiveDataFilter(nil)

// maskConnectionString hides credentials before a connection string is logged.
func maskConnectionString(connStr string) string {
	return connectionStringFilter.FilterString("dsn", connStr)
}

func mustStart(t *testing.T, db *Database, err error) *Database {
	t.Helper()
	if err != nil {
		t.Fatalf("Failed to start database container: %v", err)
	}
	return db
}
