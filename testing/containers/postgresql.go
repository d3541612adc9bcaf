//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gaborage/fluentsql/config"
)

// PostgreSQLOptions configures a PostgreSQL container.
type PostgreSQLOptions struct {
	ImageTag       string // default "17-alpine"
	Username       string // default "testuser"
	Password       string // default "testpass"
	Database       string // default "testdb"
	StartupTimeout time.Duration
}

func (o *PostgreSQLOptions) withDefaults() PostgreSQLOptions {
	opts := PostgreSQLOptions{
		ImageTag:       "17-alpine",
		Username:       "testuser",
		Password:       "testpass",
		Database:       "testdb",
		StartupTimeout: 60 * time.Second,
	}
	if o == nil {
		return opts
	}
	if o.ImageTag != "" {
		opts.ImageTag = o.ImageTag
	}
	if o.Username != "" {
		opts.Username = o.Username
	}
	if o.Password != "" {
		opts.Password = o.Password
	}
	if o.Database != "" {
		opts.Database = o.Database
	}
	if o.StartupTimeout > 0 {
		opts.StartupTimeout = o.StartupTimeout
	}
	return opts
}

// StartPostgreSQL runs a PostgreSQL container. A nil opts uses the defaults.
func StartPostgreSQL(ctx context.Context, t *testing.T, opts *PostgreSQLOptions) (*Database, error) {
	t.Helper()
	skipWithoutDocker(ctx, t)

	o := opts.withDefaults()
	pg, err := postgres.Run(ctx,
		"postgres:"+o.ImageTag,
		postgres.WithDatabase(o.Database),
		postgres.WithUsername(o.Username),
		postgres.WithPassword(o.Password),
		testcontainers.WithWaitStrategy(
			// the server restarts once after init
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(o.StartupTimeout),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	t.Logf("PostgreSQL container started at %s", maskConnectionString(connStr))

	return &Database{
		container: pg,
		config: config.DatabaseConfig{
			Type:             config.PostgreSQL,
			ConnectionString: connStr,
			Database:         o.Database,
			Username:         o.Username,
			Password:         o.Password,
		},
	}, nil
}

// MustStartPostgreSQL is StartPostgreSQL failing the test on error.
func MustStartPostgreSQL(ctx context.Context, t *testing.T, opts *PostgreSQLOptions) *Database {
	t.Helper()
	db, err := StartPostgreSQL(ctx, t, opts)
	return mustStart(t, db, err)
}
