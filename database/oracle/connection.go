// Package oracle connects the query layer to Oracle Database through the
// pure-Go go-ora driver.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/internal/session"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

// Connection implements types.Connector for Oracle.
type Connection struct {
	db     *sql.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

var (
	_ types.Connector = (*Connection)(nil)
	_ types.Stater    = (*Connection)(nil)
)

var (
	openOracleDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("oracle", dsn)
	}
	pingOracleDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// buildDSN returns the configured connection string, or a go-ora URL that
// addresses the server by service name, SID or database name in that order.
func buildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	service := cfg.Oracle.Service
	switch {
	case service.Name != "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, service.Name, cfg.Username, cfg.Password, nil)
	case service.SID != "":
		return go_ora.BuildUrl(cfg.Host, cfg.Port, "", cfg.Username, cfg.Password, map[string]string{"SID": service.SID})
	default:
		return go_ora.BuildUrl(cfg.Host, cfg.Port, cfg.Database, cfg.Username, cfg.Password, nil)
	}
}

// NewConnection opens an Oracle pool and verifies it with a ping.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	db, err := openOracleDB(buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open Oracle connection: %w", err)
	}

	session.ConfigurePool(db, &cfg.Pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingOracleDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close Oracle database connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping Oracle database: %w", err)
	}

	ev := log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port)
	switch {
	case cfg.Oracle.Service.Name != "":
		ev = ev.Str("service_name", cfg.Oracle.Service.Name)
	case cfg.Oracle.Service.SID != "":
		ev = ev.Str("sid", cfg.Oracle.Service.SID)
	default:
		ev = ev.Str("database", cfg.Database)
	}
	ev.Msg("Connected to Oracle database")

	return &Connection{
		db:     db,
		config: cfg,
		logger: log,
	}, nil
}

// Connect acquires a session pinned to one pooled connection.
func (c *Connection) Connect(ctx context.Context) (types.Session, error) {
	s, err := session.Acquire(ctx, c.db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Stats returns database connection statistics
func (c *Connection) Stats() (map[string]any, error) {
	return session.PoolStats(c.db), nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	c.logger.Info().Msg("Closing Oracle database connection")
	return c.db.Close()
}

// DatabaseType returns the database type
func (c *Connection) DatabaseType() string {
	return types.Oracle
}
