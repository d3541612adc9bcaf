package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables, including those from a .env file (highest priority)
// 2. config.yaml and config.<env>.yaml in the working directory
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// YAML files are optional
	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config.yaml: %w", err)
	}

	// the environment is merged last, so APP_ENV has to be consulted directly
	appEnv := k.String("app.env")
	if fromEnv := os.Getenv("APP_ENV"); fromEnv != "" {
		appEnv = fromEnv
	}
	if appEnv != "" {
		envFile := fmt.Sprintf("config.%s.yaml", appEnv)
		if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	return finish(k)
}

// LoadFromBytes loads configuration from a YAML document layered between the
// defaults and the environment. No YAML files are read.
func LoadFromBytes(data []byte) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	if err := loadEnvironment(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv merges a .env file from the working directory into the process
// environment. Variables that are already set keep their value.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	return nil
}

func loadEnvironment(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			// DATABASE_POOL_MAX_CONNECTIONS -> database.pool.max.connections
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name": "fluentsql",
		"app.env":  EnvDevelopment,

		// Database defaults not provided for deterministic behavior.
		// Connection settings only come from explicit configuration.
		"database.query.slow.enabled":   true,
		"database.query.slow.threshold": defaultSlowQueryThreshold.String(),
		"database.query.log.parameters": false,
		"database.query.log.maxlength":  defaultMaxQueryLength,

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
