package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/fluentsql/config"
	dbtesting "github.com/gaborage/fluentsql/database/testing"
	"github.com/gaborage/fluentsql/database/types"
	"github.com/gaborage/fluentsql/logger"
)

type fakeOpener struct {
	mu         sync.Mutex
	opens      atomic.Int32
	connectors map[string]*dbtesting.TestConnector
	gate       chan struct{}
	err        error
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{connectors: make(map[string]*dbtesting.TestConnector)}
}

func (f *fakeOpener) open(cfg *config.DatabaseConfig, _ logger.Logger) (types.Connector, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.opens.Add(1)
	if f.err != nil {
		return nil, f.err
	}

	conn := dbtesting.NewTestConnector(cfg.Type)
	f.mu.Lock()
	f.connectors[cfg.Path] = conn
	f.mu.Unlock()
	return conn, nil
}

func (f *fakeOpener) connector(name string) *dbtesting.TestConnector {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectors[name]
}

// pathSource hands out an SQLite config whose path is the database name.
var pathSource = ConfigSourceFunc(func(_ context.Context, name string) (*config.DatabaseConfig, error) {
	return &config.DatabaseConfig{Type: config.SQLite, Path: name}, nil
})

func TestManagerReusesOpenDatabase(t *testing.T) {
	opener := newFakeOpener()
	m := NewManager(pathSource, testLogger(), ManagerOptions{Open: opener.open})
	defer m.Close()

	first, err := m.Get(context.Background(), "reports")
	require.NoError(t, err)
	second, err := m.Get(context.Background(), "reports")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), opener.opens.Load())
	assert.Equal(t, 1, m.Size())
}

func TestManagerSharesConcurrentOpens(t *testing.T) {
	opener := newFakeOpener()
	opener.gate = make(chan struct{})
	m := NewManager(pathSource, testLogger(), ManagerOptions{Open: opener.open})
	defer m.Close()

	const callers = 8
	results := make([]*DB, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := m.Get(context.Background(), "shared")
			assert.NoError(t, err)
			results[i] = db
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(opener.gate)
	wg.Wait()

	assert.Equal(t, int32(1), opener.opens.Load())
	for _, db := range results {
		assert.Same(t, results[0], db)
	}
}

func TestManagerEvictsLeastRecentlyUsed(t *testing.T) {
	opener := newFakeOpener()
	m := NewManager(pathSource, testLogger(), ManagerOptions{MaxSize: 2, Open: opener.open})
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "a")
	require.NoError(t, err)
	_, err = m.Get(ctx, "b")
	require.NoError(t, err)
	// touch a so b becomes the oldest
	_, err = m.Get(ctx, "a")
	require.NoError(t, err)
	_, err = m.Get(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Size())
	assert.True(t, opener.connector("b").IsClosed())
	assert.False(t, opener.connector("a").IsClosed())
	assert.False(t, opener.connector("c").IsClosed())
}

func TestManagerOpenFailure(t *testing.T) {
	opener := newFakeOpener()
	opener.err = errors.New("connection refused")
	m := NewManager(pathSource, testLogger(), ManagerOptions{Open: opener.open})

	db, err := m.Get(context.Background(), "down")
	assert.Nil(t, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to open database "down"`)
	assert.ErrorIs(t, err, opener.err)
	assert.Equal(t, 0, m.Size())
}

func TestManagerConfigFailure(t *testing.T) {
	source := ConfigSourceFunc(func(context.Context, string) (*config.DatabaseConfig, error) {
		return nil, config.ErrNotConfigured
	})
	m := NewManager(source, testLogger(), ManagerOptions{Open: newFakeOpener().open})

	_, err := m.Get(context.Background(), "missing")
	assert.True(t, config.IsNotConfigured(err))
}

func TestManagerClose(t *testing.T) {
	opener := newFakeOpener()
	m := NewManager(pathSource, testLogger(), ManagerOptions{Open: opener.open})
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		_, err := m.Get(ctx, name)
		require.NoError(t, err)
	}

	require.NoError(t, m.Close())
	assert.Equal(t, 0, m.Size())
	assert.True(t, opener.connector("a").IsClosed())
	assert.True(t, opener.connector("b").IsClosed())
}

func TestFromConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.LoadFromBytes([]byte(`
database:
  type: sqlite
  path: primary.db
databases:
  archive:
    type: sqlite
    path: archive.db
  broken:
    type: postgresql
    host: db.internal
`))
	require.NoError(t, err)

	source := FromConfig(cfg)
	ctx := context.Background()

	primary, err := source.DBConfig(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "primary.db", primary.Path)

	archive, err := source.DBConfig(ctx, "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive.db", archive.Path)
	assert.NotZero(t, archive.Pool.Max.Connections)

	_, err = source.DBConfig(ctx, "broken")
	var configErr *config.ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "database.port", configErr.Field)

	_, err = source.DBConfig(ctx, "unknown")
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "missing", configErr.Category)
}
