package database

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gaborage/fluentsql/config"
	"github.com/gaborage/fluentsql/logger"
)

// ConfigSource resolves the configuration of a named database.
type ConfigSource interface {
	DBConfig(ctx context.Context, name string) (*config.DatabaseConfig, error)
}

// ConfigSourceFunc adapts a function to ConfigSource.
type ConfigSourceFunc func(ctx context.Context, name string) (*config.DatabaseConfig, error)

// DBConfig implements ConfigSource.
func (f ConfigSourceFunc) DBConfig(ctx context.Context, name string) (*config.DatabaseConfig, error) {
	return f(ctx, name)
}

// FromConfig resolves the empty name to cfg.Database and any other name to
// the validated section databases.<name>.
func FromConfig(cfg *config.Config) ConfigSource {
	return ConfigSourceFunc(func(_ context.Context, name string) (*config.DatabaseConfig, error) {
		if name == "" {
			return &cfg.Database, nil
		}

		key := "databases." + name
		if !cfg.Exists(key) {
			return nil, config.NewMissingFieldError(key, "DATABASES_"+name+"_TYPE", key)
		}
		var dbCfg config.DatabaseConfig
		if err := cfg.Unmarshal(key, &dbCfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if err := config.ValidateDatabase(&dbCfg); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return &dbCfg, nil
	})
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// MaxSize bounds the number of open databases; the least recently used
	// one is closed to make room. Defaults to 16.
	MaxSize int
	// Open creates connectors. Defaults to NewConnection.
	Open ConnectorFunc
}

// Manager opens named databases on first use and keeps them for reuse.
// Concurrent first requests for one name share a single open.
type Manager struct {
	source  ConfigSource
	logger  logger.Logger
	open    ConnectorFunc
	maxSize int

	mu  sync.Mutex
	dbs map[string]*managedDB
	lru *list.List

	sfg singleflight.Group
}

type managedDB struct {
	db      *DB
	element *list.Element
}

// NewManager creates a Manager resolving configurations from source.
func NewManager(source ConfigSource, log logger.Logger, opts ManagerOptions) *Manager {
	if opts.MaxSize <= 0 {
		opts.MaxSize = 16
	}
	if opts.Open == nil {
		opts.Open = NewConnection
	}

	return &Manager{
		source:  source,
		logger:  log,
		open:    opts.Open,
		maxSize: opts.MaxSize,
		dbs:     make(map[string]*managedDB),
		lru:     list.New(),
	}
}

// Get returns the database registered under name, opening it if needed.
func (m *Manager) Get(ctx context.Context, name string) (*DB, error) {
	if db := m.lookup(name); db != nil {
		return db, nil
	}

	result, err, _ := m.sfg.Do(name, func() (any, error) {
		if db := m.lookup(name); db != nil {
			return db, nil
		}
		return m.create(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	return result.(*DB), nil
}

func (m *Manager) lookup(name string) *DB {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.dbs[name]
	if !ok {
		return nil
	}
	m.lru.MoveToFront(entry.element)
	return entry.db
}

func (m *Manager) create(ctx context.Context, name string) (*DB, error) {
	cfg, err := m.source.DBConfig(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config for %q: %w", name, err)
	}

	conn, err := m.open(cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", name, err)
	}
	db := New(conn)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictIfNeeded()
	m.dbs[name] = &managedDB{db: db, element: m.lru.PushFront(name)}

	m.logger.Info().
		Str("name", name).
		Str("db_type", cfg.Type).
		Msg("Opened database")

	return db, nil
}

// evictIfNeeded closes the least recently used database when at capacity.
// Callers hold m.mu.
func (m *Manager) evictIfNeeded() {
	if len(m.dbs) < m.maxSize {
		return
	}

	oldest := m.lru.Back()
	if oldest == nil {
		return
	}

	name := oldest.Value.(string)
	if err := m.dbs[name].db.Close(); err != nil {
		m.logger.Error().Err(err).Str("name", name).Msg("Error closing evicted database")
	}
	delete(m.dbs, name)
	m.lru.Remove(oldest)

	m.logger.Debug().Str("name", name).Msg("Evicted database due to LRU limit")
}

// Size returns the number of open databases.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dbs)
}

// Close closes every open database and forgets them.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, entry := range m.dbs {
		if err := entry.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database %q: %w", name, err))
		}
	}

	m.dbs = make(map[string]*managedDB)
	m.lru.Init()

	return errors.Join(errs...)
}
