package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fluentsql/database/types"
)

const (
	testQuery = `SELECT * FROM "users"`
)

func TestTestConnectorQuery(t *testing.T) {
	t.Run("returns configured rows", func(t *testing.T) {
		conn := NewTestConnector(types.PostgreSQL)
		conn.ExpectQuery("SELECT").
			WillReturnRows(NewRowSet("id", "name").
				AddRow(int64(1), "Alice").
				AddRow(int64(2), "Bob"))

		session, err := conn.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		res, err := session.Query(context.Background(), testQuery)
		require.NoError(t, err)
		assert.Equal(t, []string{"id", "name"}, res.Columns)
		require.Len(t, res.Rows, 2)
		assert.Equal(t, types.Row{"id": int64(1), "name": "Alice"}, res.Rows[0])
		assert.Equal(t, int64(2), res.RowsAffected)
	})

	t.Run("returns rows affected", func(t *testing.T) {
		conn := NewTestConnector(types.PostgreSQL)
		conn.ExpectQuery("DELETE FROM").WillReturnRowsAffected(3)

		session, err := conn.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		res, err := session.Query(context.Background(), `DELETE FROM "users"`)
		require.NoError(t, err)
		assert.Empty(t, res.Rows)
		assert.Equal(t, int64(3), res.RowsAffected)
	})

	t.Run("fails on unexpected statement", func(t *testing.T) {
		conn := NewTestConnector(types.PostgreSQL)

		session, err := conn.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		_, err = session.Query(context.Background(), testQuery)
		assert.ErrorContains(t, err, "unexpected query")
	})

	t.Run("returns configured error", func(t *testing.T) {
		boom := errors.New("boom")
		conn := NewTestConnector(types.PostgreSQL)
		conn.ExpectQuery("SELECT").WillReturnError(boom)

		session, err := conn.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		_, err = session.Query(context.Background(), testQuery)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("strict matching", func(t *testing.T) {
		conn := NewTestConnector(types.PostgreSQL).StrictSQLMatching()
		conn.ExpectQuery("SELECT").WillReturnRows(NewRowSet("id"))

		session, err := conn.Connect(context.Background())
		require.NoError(t, err)
		defer session.Close()

		_, err = session.Query(context.Background(), testQuery)
		assert.Error(t, err)
	})
}

func TestTestConnectorSessions(t *testing.T) {
	conn := NewTestConnector(types.SQLite)
	assert.Equal(t, types.SQLite, conn.DatabaseType())

	session, err := conn.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, conn.OpenSessions())

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
	assert.Equal(t, 0, conn.OpenSessions())
	AssertSessionsReleased(t, conn)
	AssertNoQueries(t, conn)

	stats, err := conn.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats["sessions_opened"])

	require.NoError(t, conn.Close())
	assert.True(t, conn.IsClosed())
}

func TestTestConnectorFailures(t *testing.T) {
	connectErr := errors.New("unreachable")
	conn := NewTestConnector(types.PostgreSQL).FailConnect(connectErr)
	_, err := conn.Connect(context.Background())
	assert.ErrorIs(t, err, connectErr)

	closeErr := errors.New("close failed")
	conn = NewTestConnector(types.PostgreSQL).FailSessionClose(closeErr)
	session, err := conn.Connect(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, session.Close(), closeErr)
	AssertSessionsReleased(t, conn)
}

func TestAssertions(t *testing.T) {
	conn := NewTestConnector(types.PostgreSQL)
	conn.ExpectQuery("SELECT").WillReturnRows(NewRowSet("id"))

	session, err := conn.Connect(context.Background())
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Query(context.Background(), testQuery, 1)
	require.NoError(t, err)
	_, err = session.Query(context.Background(), testQuery)
	require.NoError(t, err)

	AssertQueryExecuted(t, conn, `FROM "users"`)
	AssertQueryNotExecuted(t, conn, "DELETE")
	AssertQueryCount(t, conn, "SELECT", 2)
	assert.Equal(t, []any{1}, conn.QueryLog()[0].Args)
}

func TestRowSetFromStructs(t *testing.T) {
	type user struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
		Skip string `db:"-"`
	}

	rs := NewRowSet("id", "name").
		AddRowsFromStructs(&user{ID: 1, Name: "Alice"}, user{ID: 2, Name: "Bob"}).
		AddRows(2, func(i int) []any { return []any{int64(10 + i), "gen"} })

	assert.Equal(t, 4, rs.RowCount())
	rows := rs.toRows()
	assert.Equal(t, "Bob", rows[1]["name"])
	assert.Equal(t, int64(11), rows[3]["id"])

	assert.Panics(t, func() { NewRowSet("id").AddRow(1, 2) })
	assert.Panics(t, func() { NewRowSet("missing").AddRowsFromStructs(&user{}) })
}
