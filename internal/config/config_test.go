package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Initialize(""))

	cfg := Get()
	assert.Equal(t, "", cfg.Guest.Path)
	assert.Equal(t, "reserve_buffer", cfg.Guest.ReserveExport)
	assert.Equal(t, "do_compute", cfg.Guest.ComputeExport)
	assert.Equal(t, "packed64", cfg.Guest.Convention)
	assert.Equal(t, uint32(256), cfg.Runtime.MemoryLimitPages)
	assert.Equal(t, 4, cfg.Runtime.PoolSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Human())
	assert.NotNil(t, GetViper())
}

func TestFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
guest:
  path: /tmp/guest.wasm
  convention: multivalue
  reserve_export: reserve_buffer_mv
  compute_export: do_compute_mv
runtime:
  pool_size: 2
log:
  format: json
`), 0o644))
	t.Setenv("BINIO_RUNTIME_MEMORY_LIMIT_PAGES", "16")
	t.Setenv("BINIO_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/guest.wasm", cfg.Guest.Path)
	assert.Equal(t, "multivalue", cfg.Guest.Convention)
	assert.Equal(t, "do_compute_mv", cfg.Guest.ComputeExport)
	assert.Equal(t, 2, cfg.Runtime.PoolSize)
	assert.Equal(t, uint32(16), cfg.Runtime.MemoryLimitPages)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Human())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Guest:   GuestConfig{ReserveExport: "r", ComputeExport: "c", Convention: "packed64"},
			Runtime: RuntimeConfig{MemoryLimitPages: 1, PoolSize: 1},
			Log:     LogConfig{Level: "info", Format: "human"},
		}
	}

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "convention", mutate: func(c *Config) { c.Guest.Convention = "stack" }},
		{name: "compute export", mutate: func(c *Config) { c.Guest.ComputeExport = "" }},
		{name: "pool size", mutate: func(c *Config) { c.Runtime.PoolSize = 0 }},
		{name: "memory limit", mutate: func(c *Config) { c.Runtime.MemoryLimitPages = 65537 }},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false), "refuses to overwrite")
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Runtime.PoolSize)
	assert.Equal(t, "reserve_buffer", cfg.Guest.ReserveExport)
}
