package session

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/types"
)

const selectUsers = `SELECT * FROM "users" WHERE "active" = true`

func newSession(t *testing.T) (*Session, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := Acquire(context.Background(), db)
	require.NoError(t, err)
	return s, mock
}

func TestQueryReadsRows(t *testing.T) {
	s, mock := newSession(t)
	defer s.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "bio"}).
		AddRow(int64(1), []byte("ada"), nil).
		AddRow(int64(2), "grace", []byte("admiral"))
	mock.ExpectQuery(regexp.QuoteMeta(selectUsers)).WillReturnRows(rows)

	res, err := s.Query(context.Background(), selectUsers)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "bio"}, res.Columns)
	assert.Equal(t, []types.Row{
		{"id": int64(1), "name": "ada", "bio": nil},
		{"id": int64(2), "name": "grace", "bio": "admiral"},
	}, res.Rows)
	assert.EqualValues(t, 2, res.RowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEmptyResult(t *testing.T) {
	s, mock := newSession(t)
	defer s.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := s.Query(context.Background(), selectUsers)
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
	assert.Nil(t, res.First())
}

func TestQueryExecutesWrites(t *testing.T) {
	s, mock := newSession(t)
	defer s.Close()

	const update = `UPDATE "users" SET "active" = $1 WHERE "id" = $2`
	mock.ExpectExec(regexp.QuoteMeta(update)).WithArgs(false, 7).WillReturnResult(sqlmock.NewResult(0, 3))

	res, err := s.Query(context.Background(), update, false, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.RowsAffected)
	assert.Empty(t, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryWithReturningReadsRows(t *testing.T) {
	s, mock := newSession(t)
	defer s.Close()

	const insert = `INSERT INTO "users" ("name") VALUES ('ada') RETURNING "id"`
	mock.ExpectQuery(regexp.QuoteMeta(insert)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	res, err := s.Query(context.Background(), insert)
	require.NoError(t, err)
	assert.Equal(t, types.Row{"id": int64(42)}, res.First())
}

func TestQueryRowsAffectedUnavailable(t *testing.T) {
	s, mock := newSession(t)
	defer s.Close()

	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewErrorResult(errors.New("not supported")))

	res, err := s.Query(context.Background(), `DELETE FROM "users"`)
	require.NoError(t, err)
	assert.Zero(t, res.RowsAffected)
}

func TestQueryErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("query", func(t *testing.T) {
		s, mock := newSession(t)
		defer s.Close()
		mock.ExpectQuery("SELECT").WillReturnError(boom)

		_, err := s.Query(context.Background(), selectUsers)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("exec", func(t *testing.T) {
		s, mock := newSession(t)
		defer s.Close()
		mock.ExpectExec("DELETE").WillReturnError(boom)

		_, err := s.Query(context.Background(), `DELETE FROM "users"`)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("row iteration", func(t *testing.T) {
		s, mock := newSession(t)
		defer s.Close()
		rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, boom)
		mock.ExpectQuery("SELECT").WillReturnRows(rows)

		_, err := s.Query(context.Background(), selectUsers)
		assert.ErrorIs(t, err, boom)
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _ := newSession(t)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	_, err := s.Query(context.Background(), selectUsers)
	assert.Error(t, err, "a closed session cannot run statements")
}

func TestAcquireFailsOnClosedPool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	_ = db.Close()

	_, err = Acquire(context.Background(), db)
	assert.ErrorContains(t, err, "failed to acquire connection")
}

func TestConfigurePoolAndStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db, &config.PoolConfig{
		Max:      config.PoolMaxConfig{Connections: 7},
		Idle:     config.PoolIdleConfig{Connections: 2, Time: time.Minute},
		Lifetime: config.LifetimeConfig{Max: time.Hour},
	})

	stats := PoolStats(db)
	assert.Equal(t, 7, stats["max_open_connections"])
	assert.Contains(t, stats, "in_use")
	assert.Contains(t, stats, "idle")
	assert.Contains(t, stats, "wait_duration")
}
