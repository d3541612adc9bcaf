package session

import (
	"database/sql"

	"github.com/gaborage/fluentsql/config"
)

// ConfigurePool applies the configured pool limits to db. Zero values keep
// the database/sql defaults.
func ConfigurePool(db *sql.DB, pool *config.PoolConfig) {
	if pool.Max.Connections > 0 {
		db.SetMaxOpenConns(int(pool.Max.Connections))
	}
	if pool.Idle.Connections > 0 {
		db.SetMaxIdleConns(int(pool.Idle.Connections))
	}
	if pool.Lifetime.Max > 0 {
		db.SetConnMaxLifetime(pool.Lifetime.Max)
	}
	if pool.Idle.Time > 0 {
		db.SetConnMaxIdleTime(pool.Idle.Time)
	}
}

// PoolStats reports database/sql pool statistics for db.
func PoolStats(db *sql.DB) map[string]any {
	stats := db.Stats()
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}
