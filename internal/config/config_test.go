package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DATA_DIR", "FALLBACK_FILE", "REFERENCE_DATE", "PORT", "LOG_LEVEL",
	"DEFAULT_DAYS", "DEFAULT_TOP_LIMIT", "MAX_TOP_LIMIT", "BREAKER_MAX_FAILURES",
	"READ_TIMEOUT", "WRITE_TIMEOUT", "CACHE_TTL", "CACHE_SWEEP_INTERVAL", "BREAKER_OPEN_TIMEOUT",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.Reference().Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_DIR", "/srv/snapshots")
	t.Setenv("PORT", "8080")
	t.Setenv("DEFAULT_DAYS", "7")
	t.Setenv("CACHE_TTL", "0s")
	t.Setenv("BREAKER_OPEN_TIMEOUT", "1m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/snapshots", cfg.DataDir)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 7, cfg.DefaultDays)
	assert.Zero(t, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.BreakerOpenTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEmptyReferenceDate(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFERENCE_DATE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Empty(t, cfg.ReferenceDate)
	assert.True(t, cfg.Reference().IsZero())
}

func TestLoadYAMLBelowEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/covid
port: "9000"
cache_ttl: 15m
max_top_limit: 50
reference_date: "2020-06-30"
`), 0o644))
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/covid", cfg.DataDir)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.MaxTopLimit)
	assert.Equal(t, "2020-06-30", cfg.Reference().Format(referenceDateLayout))
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"bad duration", "CACHE_TTL", "six hours"},
		{"bad reference date", "REFERENCE_DATE", "01/01/2021"},
		{"non-numeric port", "PORT", "http"},
		{"default above max", "DEFAULT_TOP_LIMIT", "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
