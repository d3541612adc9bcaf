package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the configuration of a fluentsql program: application
// identity, the database the connector talks to, and logging preferences.
// The koanf instance is kept for access to keys outside these sections.
type Config struct {
	App      AppConfig      `koanf:"app" json:"app" yaml:"app"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database"`
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Env  string `koanf:"env" json:"env" yaml:"env" validate:"required,oneof=development staging production"`
}

// DatabaseConfig holds database connection settings.
//
// Server databases (postgresql, oracle) are addressed by Host/Port/Database or
// by ConnectionString. SQLite uses Path; libSQL uses ConnectionString as the
// remote URL with an optional AuthToken.
type DatabaseConfig struct {
	Type     string `koanf:"type" json:"type" yaml:"type" validate:"omitempty,oneof=postgresql oracle sqlite libsql"`
	Host     string `koanf:"host" json:"host" yaml:"host"`
	Port     int    `koanf:"port" json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Database string `koanf:"database" json:"database" yaml:"database"`
	Username string `koanf:"username" json:"username" yaml:"username"`
	Password string `koanf:"password" json:"password" yaml:"password"`

	ConnectionString string `koanf:"connectionstring" json:"connectionstring" yaml:"connectionstring"`
	Path             string `koanf:"path" json:"path" yaml:"path"`
	AuthToken        string `koanf:"authtoken" json:"authtoken" yaml:"authtoken"`

	TLS    TLSConfig    `koanf:"tls" json:"tls" yaml:"tls"`
	Pool   PoolConfig   `koanf:"pool" json:"pool" yaml:"pool"`
	Query  QueryConfig  `koanf:"query" json:"query" yaml:"query"`
	Oracle OracleConfig `koanf:"oracle" json:"oracle" yaml:"oracle"`
}

// TLSConfig holds TLS settings for server databases.
type TLSConfig struct {
	// Mode is passed through as the PostgreSQL sslmode.
	Mode string `koanf:"mode" json:"mode" yaml:"mode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
}

// PoolConfig holds connection pool settings.
// Defaults applied when a database is configured:
//   - Max.Connections: 25
//   - Idle.Connections: 2
//   - Idle.Time: 5m
//   - Lifetime.Max: 30m
type PoolConfig struct {
	Max      PoolMaxConfig  `koanf:"max" json:"max" yaml:"max"`
	Idle     PoolIdleConfig `koanf:"idle" json:"idle" yaml:"idle"`
	Lifetime LifetimeConfig `koanf:"lifetime" json:"lifetime" yaml:"lifetime"`
}

// PoolMaxConfig holds maximum connections settings.
type PoolMaxConfig struct {
	Connections int32 `koanf:"connections" json:"connections" yaml:"connections" validate:"gte=0"`
}

// PoolIdleConfig holds idle connections settings.
type PoolIdleConfig struct {
	Connections int32         `koanf:"connections" json:"connections" yaml:"connections" validate:"gte=0"`
	Time        time.Duration `koanf:"time" json:"time" yaml:"time" validate:"gte=0"`
}

// LifetimeConfig holds maximum lifetime settings for connections.
type LifetimeConfig struct {
	// Max is the maximum duration a connection may be reused. Zero means no limit.
	Max time.Duration `koanf:"max" json:"max" yaml:"max" validate:"gte=0"`
}

// QueryConfig holds settings for statement tracking.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow" json:"slow" yaml:"slow"`
	Log  QueryLogConfig  `koanf:"log" json:"log" yaml:"log"`
}

// SlowQueryConfig holds settings for slow statement detection.
type SlowQueryConfig struct {
	Threshold time.Duration `koanf:"threshold" json:"threshold" yaml:"threshold" validate:"gte=0"`
	Enabled   bool          `koanf:"enabled" json:"enabled" yaml:"enabled"`
}

// QueryLogConfig holds settings for statement logging.
type QueryLogConfig struct {
	Parameters bool `koanf:"parameters" json:"parameters" yaml:"parameters"`
	MaxLength  int  `koanf:"maxlength" json:"maxlength" yaml:"maxlength" validate:"gte=0"`
}

// OracleConfig holds Oracle-specific database settings.
type OracleConfig struct {
	Service ServiceConfig `koanf:"service" json:"service" yaml:"service"`
}

// ServiceConfig holds Oracle service connection settings.
type ServiceConfig struct {
	Name string `koanf:"name" json:"name" yaml:"name"`
	SID  string `koanf:"sid" json:"sid" yaml:"sid"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}
