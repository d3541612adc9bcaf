package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured marks an optional section that was left out on purpose.
// A *ConfigError with CategoryNotConfigured matches it under errors.Is.
var ErrNotConfigured = errors.New("not configured")

// ConfigError categories.
const (
	CategoryMissing       = "missing"
	CategoryInvalid       = "invalid"
	CategoryNotConfigured = "not_configured"
)

// ConfigError describes a configuration problem and what to change to fix it.
// Messages are lowercase.
//
//nolint:revive // stutters on purpose; callers match it with errors.As
type ConfigError struct {
	Category string
	Field    string // koanf path, e.g. "database.host"
	Message  string
	Action   string
	Details  []string
}

// Error renders "config_<category>: <field> <message> <action> <details>",
// omitting empty parts.
func (e *ConfigError) Error() string {
	var b strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	if e.Category != "" {
		write("config_" + e.Category + ":")
	}
	write(e.Field)
	write(e.Message)
	write(e.Action)
	write(strings.Join(e.Details, "; "))
	return b.String()
}

// Is reports whether target is ErrNotConfigured and e is a not-configured error.
func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured && e.Category == CategoryNotConfigured
}

// NewMissingFieldError reports a required field that has no value.
func NewMissingFieldError(field, envVar, yamlPath string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to config.yaml", envVar, yamlPath),
	}
}

// NewInvalidFieldError reports a field whose value was rejected. validOptions,
// when given, are listed in the action.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	e := &ConfigError{Category: CategoryInvalid, Field: field, Message: message}
	if len(validOptions) > 0 {
		e.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return e
}

// NewNotConfiguredError reports an optional feature that was not set up.
func NewNotConfiguredError(feature, envVar, yamlPath string) *ConfigError {
	return &ConfigError{
		Category: CategoryNotConfigured,
		Field:    feature,
		Message:  "(optional)",
		Action:   fmt.Sprintf("to enable: set %s env var or add %s to config.yaml", envVar, yamlPath),
	}
}

// IsNotConfigured reports whether err, or anything it wraps, marks a feature
// as not configured.
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}
