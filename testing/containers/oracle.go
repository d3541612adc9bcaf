//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gaborage/fluentsql/config"
)

// OracleOptions configures an Oracle Free container.
type OracleOptions struct {
	ImageTag       string // default "23-slim"
	Password       string // default "testpass", shared by SYSTEM and the app user
	AppUser        string // default "testuser"
	StartupTimeout time.Duration
}

// StartOracle runs a gvenzl/oracle-free container and points the returned
// configuration at its FREEPDB1 service. A nil opts uses the defaults.
func StartOracle(ctx context.Context, t *testing.T, opts *OracleOptions) (*Database, error) {
	t.Helper()
	skipWithoutDocker(ctx, t)

	o := OracleOptions{ImageTag: "23-slim", Password: "testpass", AppUser: "testuser", StartupTimeout: 3 * time.Minute}
	if opts != nil {
		if opts.ImageTag != "" {
			o.ImageTag = opts.ImageTag
		}
		if opts.Password != "" {
			o.Password = opts.Password
		}
		if opts.AppUser != "" {
			o.AppUser = opts.AppUser
		}
		if opts.StartupTimeout > 0 {
			o.StartupTimeout = opts.StartupTimeout
		}
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "gvenzl/oracle-free:" + o.ImageTag,
			ExposedPorts: []string{"1521/tcp"},
			Env: map[string]string{
				"ORACLE_PASSWORD":   o.Password,
				"APP_USER":          o.AppUser,
				"APP_USER_PASSWORD": o.Password,
			},
			// the log line comes before the listener is reliably up
			WaitingFor: wait.ForAll(
				wait.ForLog("DATABASE IS READY TO USE!"),
				wait.ForListeningPort("1521/tcp"),
			).WithStartupTimeout(o.StartupTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Oracle container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Oracle container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "1521/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get Oracle container port: %w", err)
	}
	t.Logf("Oracle container started at %s:%d (service FREEPDB1, user %s)", host, port.Int(), o.AppUser)

	cfg := config.DatabaseConfig{
		Type:     config.Oracle,
		Host:     host,
		Port:     port.Int(),
		Username: o.AppUser,
		Password: o.Password,
	}
	cfg.Oracle.Service.Name = "FREEPDB1"

	return &Database{container: container, config: cfg}, nil
}

// MustStartOracle is StartOracle failing the test on error.
func MustStartOracle(ctx context.Context, t *testing.T, opts *OracleOptions) *Database {
	t.Helper()
	db, err := StartOracle(ctx, t, opts)
	return mustStart(t, db, err)
}
