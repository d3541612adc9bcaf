package testing

import (
	"fmt"
	"strings"
	"testing"
)

// AssertQueryExecuted asserts that a statement matching sqlPattern was received.
func AssertQueryExecuted(t *testing.T, c *TestConnector, sqlPattern string) {
	t.Helper()
	log := c.QueryLog()
	for _, call := range log {
		if c.matchSQL(sqlPattern, call.SQL) {
			return
		}
	}

	t.Errorf("expected query not executed: %q\nActual queries:\n%s",
		sqlPattern, formatQueryLog(log))
}

// AssertQueryNotExecuted asserts that no statement matching sqlPattern was received.
func AssertQueryNotExecuted(t *testing.T, c *TestConnector, sqlPattern string) {
	t.Helper()
	for _, call := range c.QueryLog() {
		if c.matchSQL(sqlPattern, call.SQL) {
			t.Errorf("unexpected query executed: %q\nQuery SQL: %s", sqlPattern, call.SQL)
			return
		}
	}
}

// AssertQueryCount asserts that exactly expected statements matched sqlPattern.
func AssertQueryCount(t *testing.T, c *TestConnector, sqlPattern string, expected int) {
	t.Helper()
	log := c.QueryLog()
	count := 0
	for _, call := range log {
		if c.matchSQL(sqlPattern, call.SQL) {
			count++
		}
	}

	if count != expected {
		t.Errorf("expected %d queries matching %q, got %d\nActual queries:\n%s",
			expected, sqlPattern, count, formatQueryLog(log))
	}
}

// AssertNoQueries asserts that the connector never received a statement.
func AssertNoQueries(t *testing.T, c *TestConnector) {
	t.Helper()
	if log := c.QueryLog(); len(log) > 0 {
		t.Errorf("expected no queries, got %d\n%s", len(log), formatQueryLog(log))
	}
}

// AssertSessionsReleased asserts that every acquired session was closed.
func AssertSessionsReleased(t *testing.T, c *TestConnector) {
	t.Helper()
	if open := c.OpenSessions(); open != 0 {
		t.Errorf("expected all sessions to be released, %d still open", open)
	}
}

func formatQueryLog(log []QueryCall) string {
	if len(log) == 0 {
		return "  (no queries executed)"
	}

	var sb strings.Builder
	for i, call := range log {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, call.SQL))
		if len(call.Args) > 0 {
			sb.WriteString(fmt.Sprintf("     Args: %v\n", call.Args))
		}
	}
	return sb.String()
}
