// Package types contains the core database interface definitions for fluentsql.
// These interfaces are separate from the main database package to avoid import cycles
// and to make them easily accessible for mocking and testing.
//
//nolint:revive // Package name "types" is intentionally generic to avoid circular
package types

import (
	"context"
	"sort"
)

// Database vendor identifiers shared across the database packages.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql"
	Oracle     Vendor = "oracle"
	SQLite     Vendor = "sqlite"
	LibSQL     Vendor = "libsql"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Result is the outcome of executing one statement.
// Rows is populated for statements that return rows; RowsAffected for the rest.
type Result struct {
	Columns      []string
	Rows         []Row
	RowsAffected int64
}

// First returns the first row of the result, or nil when the result is empty.
func (r *Result) First() Row {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Session is one acquired connection. It executes statements until it is closed.
//
// The query text is sent as-is. Args are only used when the text carries
// vendor placeholders ($1 for PostgreSQL, :1 for Oracle, ? for SQLite).
type Session interface {
	Query(ctx context.Context, query string, args ...any) (*Result, error)

	// Close releases the session back to its connector. It is safe to call more than once.
	Close() error
}

// Connector hands out sessions against one configured database.
// Connect may be called repeatedly; every call yields a fresh session.
type Connector interface {
	Connect(ctx context.Context) (Session, error)

	// DatabaseType returns the vendor identifier for this connector.
	// The query layer uses it to pick a default grammar.
	DatabaseType() string

	// Close shuts down the underlying pool.
	Close() error
}

// Stater is implemented by connectors that can report pool statistics.
type Stater interface {
	Stats() (map[string]any, error)
}
