package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gaborage/fluentsql/config"
)

func TestNewSettingsDefaults(t *testing.T) {
	s := NewSettings(nil)

	assert.Equal(t, DefaultSlowQueryThreshold, s.SlowQueryThreshold())
	assert.Equal(t, DefaultMaxQueryLength, s.MaxQueryLength())
	assert.False(t, s.LogQueryParameters())
	assert.True(t, s.IsSlow(time.Second))
	assert.False(t, s.IsSlow(time.Millisecond))
}

func TestNewSettingsFromConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Threshold = 50 * time.Millisecond
	cfg.Query.Slow.Enabled = true
	cfg.Query.Log.MaxLength = 80
	cfg.Query.Log.Parameters = true

	s := NewSettings(cfg)
	assert.Equal(t, 50*time.Millisecond, s.SlowQueryThreshold())
	assert.Equal(t, 80, s.MaxQueryLength())
	assert.True(t, s.LogQueryParameters())
	assert.True(t, s.IsSlow(51*time.Millisecond))

	cfg.Query.Slow.Enabled = false
	assert.False(t, NewSettings(cfg).IsSlow(time.Hour))
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		maxLen int
		want   string
	}{
		{"disabled", "abcdef", 0, "abcdef"},
		{"short enough", "abc", 5, "abc"},
		{"ellipsis", "abcdefgh", 6, "abc..."},
		{"tiny limit", "abcdef", 2, "ab"},
		{"multibyte", "héllo wörld", 7, "héll..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateString(tt.value, tt.maxLen))
		})
	}
}

func TestSanitizeArgs(t *testing.T) {
	assert.Nil(t, SanitizeArgs(nil, 10))
	assert.Equal(t,
		[]any{"abcdefg...", "<bytes len=2>", "42", "true"},
		SanitizeArgs([]any{"abcdefghijklmnop", []byte{1, 2}, 42, true}, 10))
}

func TestNormalizeDBVendor(t *testing.T) {
	assert.Equal(t, "postgresql", normalizeDBVendor("postgres"))
	assert.Equal(t, "postgresql", normalizeDBVendor("PostgreSQL"))
	assert.Equal(t, "sqlite", normalizeDBVendor("libsql"))
	assert.Equal(t, "sqlite", normalizeDBVendor("sqlite3"))
	assert.Equal(t, "oracle", normalizeDBVendor("oracle"))
}
