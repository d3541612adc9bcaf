package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultSlowQueryThreshold = 200 * time.Millisecond
	defaultMaxQueryLength     = 1000

	defaultMaxConns        = 25
	defaultIdleConns       = 2
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnMaxLifetime = 30 * time.Minute
)

// Database type constants
const (
	PostgreSQL = "postgresql"
	Oracle     = "oracle"
	SQLite     = "sqlite"
	LibSQL     = "libsql"
)

var supportedDatabaseTypes = []string{PostgreSQL, Oracle, SQLite, LibSQL}

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report koanf paths instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks cfg and fills in database pool defaults. Struct tag rules
// run first; cross-field rules per database type run after them.
func Validate(cfg *Config) error {
	if err := validateStruct(cfg, "Config."); err != nil {
		return err
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	return nil
}

// ValidateDatabase checks a database section loaded on its own, such as an
// additional named database, and fills in its defaults.
func ValidateDatabase(cfg *DatabaseConfig) error {
	if err := validateStruct(cfg, "DatabaseConfig."); err != nil {
		return err
	}
	return validateDatabase(cfg)
}

func validateStruct(v any, rootPrefix string) error {
	err := structValidator.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	// the first failure is enough to act on
	fe := validationErrors[0]
	field := strings.TrimPrefix(fe.Namespace(), rootPrefix)
	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field, envVarFor(field), field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value()), nil)
	}
}

// IsDatabaseConfigured determines if a database is intentionally configured.
func IsDatabaseConfigured(cfg *DatabaseConfig) bool {
	return cfg.Type != "" || cfg.Host != "" || cfg.ConnectionString != "" || cfg.Path != ""
}

func validateDatabase(cfg *DatabaseConfig) error {
	if !IsDatabaseConfigured(cfg) {
		return nil
	}

	if cfg.Type == "" {
		return NewMissingFieldError("database.type", "DATABASE_TYPE", "database.type")
	}

	var err error
	switch cfg.Type {
	case PostgreSQL, Oracle:
		err = validateServerDatabase(cfg)
	case SQLite:
		if cfg.Path == "" {
			err = NewMissingFieldError("database.path", "DATABASE_PATH", "database.path")
		}
	case LibSQL:
		if cfg.ConnectionString == "" {
			err = NewMissingFieldError("database.connectionstring", "DATABASE_CONNECTIONSTRING", "database.connectionstring")
		}
	default:
		err = NewInvalidFieldError("database.type", fmt.Sprintf("invalid value %q", cfg.Type), supportedDatabaseTypes)
	}
	if err != nil {
		return err
	}

	applyDatabaseDefaults(cfg)
	return nil
}

// validateServerDatabase checks the fields a PostgreSQL or Oracle connection
// needs when no connection string is given.
func validateServerDatabase(cfg *DatabaseConfig) error {
	if cfg.ConnectionString != "" {
		return nil
	}

	if cfg.Host == "" {
		return NewMissingFieldError("database.host", "DATABASE_HOST", "database.host")
	}
	if cfg.Port == 0 {
		return NewMissingFieldError("database.port", "DATABASE_PORT", "database.port")
	}
	if cfg.Username == "" {
		return NewMissingFieldError("database.username", "DATABASE_USERNAME", "database.username")
	}

	if cfg.Type == Oracle {
		if cfg.Oracle.Service.Name != "" && cfg.Oracle.Service.SID != "" {
			return &ConfigError{
				Category: CategoryInvalid,
				Field:    "database.oracle.service",
				Message:  "name and sid are mutually exclusive",
				Action:   "set only one of database.oracle.service.name or database.oracle.service.sid",
			}
		}
		if cfg.Oracle.Service.Name == "" && cfg.Oracle.Service.SID == "" && cfg.Database == "" {
			return NewMissingFieldError("database.oracle.service.name", "DATABASE_ORACLE_SERVICE_NAME", "database.oracle.service.name")
		}
		return nil
	}

	if cfg.Database == "" {
		return NewMissingFieldError("database.database", "DATABASE_DATABASE", "database.database")
	}
	return nil
}

// applyDatabaseDefaults fills zero pool and query settings in place.
func applyDatabaseDefaults(cfg *DatabaseConfig) {
	if cfg.Pool.Max.Connections == 0 {
		cfg.Pool.Max.Connections = defaultMaxConns
	}
	if cfg.Pool.Idle.Connections == 0 {
		cfg.Pool.Idle.Connections = defaultIdleConns
	}
	if cfg.Pool.Idle.Time == 0 {
		cfg.Pool.Idle.Time = defaultConnMaxIdleTime
	}
	if cfg.Pool.Lifetime.Max == 0 {
		cfg.Pool.Lifetime.Max = defaultConnMaxLifetime
	}
	if cfg.Query.Slow.Threshold == 0 {
		cfg.Query.Slow.Threshold = defaultSlowQueryThreshold
	}
	if cfg.Query.Log.MaxLength == 0 {
		cfg.Query.Log.MaxLength = defaultMaxQueryLength
	}
}

func envVarFor(field string) string {
	return strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
}
