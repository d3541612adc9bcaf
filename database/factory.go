package database

import (
	"fmt"
	"slices"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/database/internal/tracking"
	"github.com/gaborage/fluentsql/database/oracle"
	"github.com/gaborage/fluentsql/database/postgresql"
	"github.com/gaborage/fluentsql/database/sqlite"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

// ConnectorFunc opens a connector from configuration.
type ConnectorFunc func(*config.DatabaseConfig, logger.Logger) (types.Connector, error)

var vendorConnectors = map[string]ConnectorFunc{
	PostgreSQL: func(cfg *config.DatabaseConfig, log logger.Logger) (types.Connector, error) {
		return postgresql.NewConnection(cfg, log)
	},
	Oracle: func(cfg *config.DatabaseConfig, log logger.Logger) (types.Connector, error) {
		return oracle.NewConnection(cfg, log)
	},
	SQLite: func(cfg *config.DatabaseConfig, log logger.Logger) (types.Connector, error) {
		return sqlite.NewConnection(cfg, log)
	},
	LibSQL: func(cfg *config.DatabaseConfig, log logger.Logger) (types.Connector, error) {
		return sqlite.NewLibSQLConnection(cfg, log)
	},
}

// NewConnection opens the connector selected by cfg.Type and wraps it with
// statement tracking. An unconfigured database yields a not-configured
// *config.ConfigError; an unsupported type an error listing the supported ones.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (types.Connector, error) {
	if cfg == nil || !config.IsDatabaseConfigured(cfg) {
		return nil, config.NewNotConfiguredError("database", "DATABASE_TYPE", "database.type")
	}
	if err := ValidateDatabaseType(cfg.Type); err != nil {
		return nil, err
	}

	conn, err := vendorConnectors[cfg.Type](cfg, log)
	if err != nil {
		return nil, err
	}

	return tracking.NewConnector(conn, log, cfg), nil
}

// ValidateDatabaseType returns nil if dbType is one of the supported database types.
func ValidateDatabaseType(dbType string) error {
	supported := GetSupportedDatabaseTypes()
	if !slices.Contains(supported, dbType) {
		return fmt.Errorf("unsupported database type: %s (supported: %v)", dbType, supported)
	}
	return nil
}

// GetSupportedDatabaseTypes returns a list of supported database types
func GetSupportedDatabaseTypes() []string {
	return []string{PostgreSQL, Oracle, SQLite, LibSQL}
}
