// Package testing provides an in-memory connector for exercising query
// builders without a database.
//
// TestConnector implements types.Connector with expectation-based responses
// and records every statement it receives, so tests can assert on the exact
// SQL a builder produced and on session bookkeeping:
//
//	conn := NewTestConnector(types.PostgreSQL)
//	conn.ExpectQuery(`SELECT * FROM "users"`).
//	    WillReturnRows(NewRowSet("id", "name").AddRow(1, "Alice"))
//
//	rows, err := query.New(query.WithConnector(conn)).From("users").Get(ctx)
//	AssertQueryExecuted(t, conn, `FROM "users"`)
//	AssertSessionsReleased(t, conn)
//
// For tests that need real database behavior see the container helpers in
// testing/containers.
package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gaborage/fluentsql/database/types"
)

// TestConnector is an in-memory fake implementing types.Connector.
//
// Statements are matched against expectations in insertion order, first
// match wins. Matching is by substring unless StrictSQLMatching is enabled.
type TestConnector struct {
	vendor       string
	expectations []*QueryExpectation
	queryLog     []QueryCall
	strictMatch  bool

	connectErr error
	closeErr   error
	opened     int
	released   int
	closed     bool

	mu sync.RWMutex
}

// QueryCall represents a single statement received by a session.
type QueryCall struct {
	SQL  string
	Args []any
}

// QueryExpectation defines the response to a matching statement.
type QueryExpectation struct {
	sql          string
	rows         *RowSet
	rowsAffected int64
	err          error
}

// NewTestConnector creates a fake connector reporting vendor as its DatabaseType.
func NewTestConnector(vendor string) *TestConnector {
	return &TestConnector{vendor: vendor}
}

// StrictSQLMatching requires exact statement matches instead of substrings.
func (c *TestConnector) StrictSQLMatching() *TestConnector {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strictMatch = true
	return c
}

// ExpectQuery registers a response for statements matching sqlPattern.
func (c *TestConnector) ExpectQuery(sqlPattern string) *QueryExpectation {
	exp := &QueryExpectation{sql: sqlPattern}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expectations = append(c.expectations, exp)
	return exp
}

// FailConnect makes every Connect call return err.
func (c *TestConnector) FailConnect(err error) *TestConnector {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErr = err
	return c
}

// FailSessionClose makes every session Close call return err.
func (c *TestConnector) FailSessionClose(err error) *TestConnector {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
	return c
}

// WillReturnRows sets the rows returned by the matching statement.
func (e *QueryExpectation) WillReturnRows(rows *RowSet) *QueryExpectation {
	e.rows = rows
	return e
}

// WillReturnRowsAffected sets the affected row count of the matching statement.
func (e *QueryExpectation) WillReturnRowsAffected(n int64) *QueryExpectation {
	e.rowsAffected = n
	return e
}

// WillReturnError makes the matching statement fail with err.
func (e *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	e.err = err
	return e
}

// Connect implements types.Connector.
func (c *TestConnector) Connect(_ context.Context) (types.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return nil, c.connectErr
	}
	c.opened++
	return &testSession{parent: c}, nil
}

// DatabaseType implements types.Connector.
func (c *TestConnector) DatabaseType() string {
	return c.vendor
}

// Close implements types.Connector.
func (c *TestConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Stats implements types.Stater.
func (c *TestConnector) Stats() (map[string]any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]any{
		"vendor":            c.vendor,
		"query_count":       len(c.queryLog),
		"sessions_opened":   c.opened,
		"sessions_released": c.released,
	}, nil
}

// QueryLog returns every statement received so far.
func (c *TestConnector) QueryLog() []QueryCall {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]QueryCall{}, c.queryLog...)
}

// OpenSessions returns the number of sessions acquired and not yet released.
func (c *TestConnector) OpenSessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opened - c.released
}

// IsClosed reports whether Close was called on the connector.
func (c *TestConnector) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *TestConnector) matchSQL(expected, actual string) bool {
	if c.strictMatch {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return strings.Contains(actual, expected)
}

func (c *TestConnector) find(actualSQL string) *QueryExpectation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, exp := range c.expectations {
		if c.matchSQL(exp.sql, actualSQL) {
			return exp
		}
	}
	return nil
}

type testSession struct {
	parent   *TestConnector
	released bool
}

func (s *testSession) Query(_ context.Context, query string, args ...any) (*types.Result, error) {
	c := s.parent
	c.mu.Lock()
	c.queryLog = append(c.queryLog, QueryCall{SQL: query, Args: args})
	c.mu.Unlock()

	exp := c.find(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected query: %s (no matching expectation)", query)
	}
	if exp.err != nil {
		return nil, exp.err
	}

	res := &types.Result{RowsAffected: exp.rowsAffected}
	if exp.rows != nil {
		res.Columns = exp.rows.Columns()
		res.Rows = exp.rows.toRows()
		if res.RowsAffected == 0 {
			res.RowsAffected = int64(len(res.Rows))
		}
	}
	return res, nil
}

func (s *testSession) Close() error {
	c := s.parent
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.released {
		s.released = true
		c.released++
	}
	return c.closeErr
}
