package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kwangun/internal/store"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KWANGUN_DB", "KWANGUN_DB_DRIVER", "KWANGUN_LOG_LEVEL", "KWANGUN_WORKERS"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "kwangun" {
		t.Errorf("expected Name=kwangun, got %s", cfg.Name)
	}
	if cfg.Store.Driver != DriverModernc {
		t.Errorf("expected Driver=%s, got %s", DriverModernc, cfg.Store.Driver)
	}
	if cfg.Derive.Workers != 4 {
		t.Errorf("expected Workers=4, got %d", cfg.Derive.Workers)
	}
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "kwangun.yaml")

	cfg := DefaultConfig()
	cfg.Store.Driver = DriverMattn
	cfg.Store.Path = "/tmp/readings.db"
	cfg.Logging.Categories = map[string]bool{"store": false}
	cfg.Rules.OnsetsFile = "onsets.yaml"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfig_LoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_LoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "kwangun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("derive:\n  workers: 9\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Derive.Workers)
	assert.Equal(t, DriverModernc, cfg.Store.Driver)
	assert.Equal(t, "30s", cfg.Mangle.QueryTimeout)
}

func TestConfig_LoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kwangun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [oops"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"empty path", func(c *Config) { c.Store.Path = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }},
		{"negative workers", func(c *Config) { c.Derive.Workers = -1 }},
		{"negative fact limit", func(c *Config) { c.Mangle.FactLimit = -5 }},
		{"bad timeout", func(c *Config) { c.Mangle.QueryTimeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetQueryTimeout())

	cfg.Mangle.QueryTimeout = "250ms"
	assert.Equal(t, 250*time.Millisecond, cfg.GetQueryTimeout())

	cfg.Mangle.QueryTimeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.GetQueryTimeout())

	assert.False(t, cfg.Rules.HasOverrides())
	cfg.Rules.TonesFile = "tones.yaml"
	assert.True(t, cfg.Rules.HasOverrides())
	assert.True(t, RulesConfig{RhymesFile: "rhymes.yaml"}.HasOverrides())
	assert.True(t, RulesConfig{FlatRhymesFile: "flat.yaml"}.HasOverrides())
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", DebugMode: true, Categories: map[string]bool{"store": false}}

	converted := lc.ToLogging()
	assert.Equal(t, "debug", converted.Level)
	assert.Equal(t, "json", converted.Format)
	assert.True(t, converted.DebugMode)
	assert.Equal(t, lc.Categories, converted.Categories)
}

func TestValidDriversOpenStores(t *testing.T) {
	assert.Equal(t, []string{store.DriverModernc, store.DriverMattn}, ValidDrivers)

	s, err := store.Open(DefaultConfig().Store.Driver, ":memory:")
	require.NoError(t, err)
	assert.Equal(t, store.DriverModernc, s.Driver())
	require.NoError(t, s.Close())
}
