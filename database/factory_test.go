package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/logger"
)

func testLogger() logger.Logger {
	return logger.New("disabled", false)
}

func TestNewConnectionNotConfigured(t *testing.T) {
	conn, err := NewConnection(&config.DatabaseConfig{}, testLogger())
	assert.Nil(t, conn)
	assert.True(t, config.IsNotConfigured(err))

	conn, err = NewConnection(nil, testLogger())
	assert.Nil(t, conn)
	assert.True(t, config.IsNotConfigured(err))
}

func TestNewConnectionUnsupportedType(t *testing.T) {
	conn, err := NewConnection(&config.DatabaseConfig{Type: "mysql", Host: "localhost"}, testLogger())
	assert.Nil(t, conn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: mysql")
}

func TestNewConnectionSQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: config.SQLite, Path: filepath.Join(t.TempDir(), "factory.db")}

	conn, err := NewConnection(cfg, testLogger())
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, SQLite, conn.DatabaseType())

	s, err := conn.Connect(context.Background())
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Query(context.Background(), "SELECT 1 AS one")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0]["one"])
}

func TestValidateDatabaseType(t *testing.T) {
	for _, dbType := range GetSupportedDatabaseTypes() {
		assert.NoError(t, ValidateDatabaseType(dbType), dbType)
	}
	assert.Error(t, ValidateDatabaseType("mongodb"))
	assert.Error(t, ValidateDatabaseType(""))
}
