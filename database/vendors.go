package database

import "github.com/gaborage/fluentsql/database/types"

// Re-exported vendor identifiers; the single source of truth lives in types.
const (
	PostgreSQL = types.PostgreSQL
	Oracle     = types.Oracle
	SQLite     = types.SQLite
	LibSQL     = types.LibSQL
)

// Connector and the values it produces, re-exported for callers that only
// import this package.
type (
	Connector = types.Connector
	Session   = types.Session
	Row       = types.Row
	Result    = types.Result
)
