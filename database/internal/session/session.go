// Package session adapts database/sql to the types.Session contract shared by
// the vendor connectors. A session pins one *sql.Conn from the pool so every
// statement it runs sees the same server-side connection.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/gaborage/fluentsql/database/internal/sqllex"
	"github.com/gaborage/fluentsql/database/types"
)

// Session runs statements on a single pooled connection.
type Session struct {
	conn *sql.Conn

	once     sync.Once
	closeErr error
}

var _ types.Session = (*Session)(nil)

// Acquire takes a dedicated connection from db.
func Acquire(ctx context.Context, db *sql.DB) (*Session, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{conn: conn}, nil
}

// Query executes query on the session's connection. Statements that return
// rows are read in full into the result; all others report RowsAffected.
func (s *Session) Query(ctx context.Context, query string, args ...any) (*types.Result, error) {
	if sqllex.ReturnsRows(query) {
		rows, err := s.conn.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return ScanRows(rows)
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		// some drivers cannot report it; the statement itself succeeded
		affected = 0
	}
	return &types.Result{RowsAffected: affected}, nil
}

// Close returns the connection to the pool. Later calls return the first
// call's result.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// ScanRows reads every remaining row of rows into a Result. Byte slices are
// converted to strings so text columns compare naturally across drivers.
func ScanRows(rows *sql.Rows) (*types.Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &types.Result{Columns: columns, Rows: []types.Row{}}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(types.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowsAffected = int64(len(result.Rows))
	return result, nil
}
