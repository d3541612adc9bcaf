// Package database ties configuration, connectors and the query builder
// together. DB is the entry point most programs need:
//
//	db, err := database.Open(&cfg.Database, log)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	rows, err := db.Table("users").Where("active", true).Get(ctx)
package database

import (
	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/query"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

// DB hands out query builders bound to one connector. It is safe for
// concurrent use; the builders it returns are not.
type DB struct {
	connector types.Connector
	opts      []query.Option
}

// New creates a DB over connector. opts are applied to every builder after
// the connector, so they may override the grammar or enable bound parameters.
func New(connector types.Connector, opts ...query.Option) *DB {
	return &DB{connector: connector, opts: opts}
}

// Open creates the connector described by cfg and a DB over it.
func Open(cfg *config.DatabaseConfig, log logger.Logger, opts ...query.Option) (*DB, error) {
	conn, err := NewConnection(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(conn, opts...), nil
}

// Query returns an empty builder.
func (db *DB) Query() *query.Builder {
	opts := make([]query.Option, 0, len(db.opts)+1)
	opts = append(opts, query.WithConnector(db.connector))
	opts = append(opts, db.opts...)
	return query.New(opts...)
}

// Table returns a builder targeting table.
func (db *DB) Table(table string) *query.Builder {
	return db.Query().From(table)
}

// Connector returns the underlying connector.
func (db *DB) Connector() types.Connector {
	return db.connector
}

// Close closes the underlying connector.
func (db *DB) Close() error {
	return db.connector.Close()
}
