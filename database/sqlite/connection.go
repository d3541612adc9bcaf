// Package sqlite connects the query layer to SQLite files through
// mattn/go-sqlite3 and to remote libSQL (Turso) databases through the libSQL
// client driver. Both speak the SQLite dialect.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/internal/session"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

const memoryPath = ":memory:"

// Connection implements types.Connector for SQLite and libSQL.
type Connection struct {
	db     *sql.DB
	vendor string
	logger logger.Logger
}

var (
	_ types.Connector = (*Connection)(nil)
	_ types.Stater    = (*Connection)(nil)
)

var (
	openDB = sql.Open
	pingDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// NewConnection opens a local SQLite database at cfg.Path.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	db, err := openDB("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	session.ConfigurePool(db, &cfg.Pool)
	if cfg.Path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}

	if err := ping(db, log, "SQLite"); err != nil {
		return nil, err
	}

	log.Info().Str("path", cfg.Path).Msg("Connected to SQLite database")
	return &Connection{db: db, vendor: types.SQLite, logger: log}, nil
}

// NewLibSQLConnection opens a remote libSQL database at cfg.ConnectionString,
// passing cfg.AuthToken as the authToken parameter when set.
func NewLibSQLConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	dsn, err := libSQLURL(cfg.ConnectionString, cfg.AuthToken)
	if err != nil {
		return nil, err
	}

	db, err := openDB("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open libSQL database: %w", err)
	}

	session.ConfigurePool(db, &cfg.Pool)

	if err := ping(db, log, "libSQL"); err != nil {
		return nil, err
	}

	log.Info().Str("connectionstring", dsn).Msg("Connected to libSQL database")
	return &Connection{db: db, vendor: types.LibSQL, logger: log}, nil
}

func libSQLURL(raw, token string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse libSQL connection string: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("authToken", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func ping(db *sql.DB, log logger.Logger, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msgf("Failed to close %s database after ping failure", name)
		}
		return fmt.Errorf("failed to ping %s database: %w", name, err)
	}
	return nil
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

// Close closes the database
func (c *Connection) Close() error {
	c.logger.Info().Str("vendor", c.vendor).Msg("Closing database connection")
	return c.db.Close()
}

// DatabaseType returns types.SQLite or types.LibSQL.
func (c *Connection) DatabaseType() string {
	return c.vendor
}
