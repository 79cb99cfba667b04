package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "default", config.Index.Name)
	assert.Equal(t, 32, config.Index.BranchingFactor)
	assert.Equal(t, 500, config.Index.RetentionQueueCapacity)
	assert.Equal(t, "none", config.Index.Compression)
	assert.Equal(t, "file", config.Store.Backend)
	assert.Equal(t, "64MB", config.Store.ReadCacheSize)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Empty(t, ValidateConfig(config))
}

func TestParseConfig(t *testing.T) {
	t.Run("empty config uses defaults", func(t *testing.T) {
		config, err := ParseConfig([]byte(""))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig().Index, config.Index)
	})

	t.Run("overrides", func(t *testing.T) {
		data := `
index:
  name: users
  branchingFactor: 8
  retentionQueueCapacity: 64
  retentionQueueScan: 4
  compression: snappy
  checkpointEvery: 1000
store:
  backend: memory
  readCacheSize: "1MiB"
logging:
  level: debug
  format: json
metrics:
  enabled: true
`
		config, err := ParseConfig([]byte(data))
		require.NoError(t, err)
		assert.Equal(t, "users", config.Index.Name)
		assert.Equal(t, 8, config.Index.BranchingFactor)
		assert.Equal(t, 64, config.Index.RetentionQueueCapacity)
		assert.Equal(t, 4, config.Index.RetentionQueueScan)
		assert.Equal(t, "snappy", config.Index.Compression)
		assert.Equal(t, 1000, config.Index.CheckpointEvery)
		assert.Equal(t, "memory", config.Store.Backend)
		assert.True(t, config.Metrics.Enabled)
		// untouched fields keep their defaults
		assert.Equal(t, 256, config.Index.ParallelLookupChunk)

		n, err := config.Store.ReadCacheBytes()
		require.NoError(t, err)
		assert.Equal(t, int64(1<<20), n)
	})

	t.Run("environment substitution", func(t *testing.T) {
		t.Setenv("STRATUM_TEST_PATH", "/tmp/stratum-env.db")
		config, err := ParseConfig([]byte("store:\n  path: ${STRATUM_TEST_PATH}\n"))
		require.NoError(t, err)
		assert.Equal(t, "/tmp/stratum-env.db", config.Store.Path)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseConfig([]byte("index:\n  fanout: 8\n"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := ParseConfig([]byte("index:\n  branchingFactor: 2\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "index.branchingFactor: must be at least 3")
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty name", func(c *Config) { c.Index.Name = "" }, "index.name"},
		{"small queue", func(c *Config) { c.Index.RetentionQueueCapacity = 1 }, "index.retentionQueueCapacity"},
		{"negative scan", func(c *Config) { c.Index.RetentionQueueScan = -1 }, "index.retentionQueueScan"},
		{"compression", func(c *Config) { c.Index.Compression = "zstd" }, "index.compression"},
		{"checkpoint", func(c *Config) { c.Index.CheckpointEvery = -5 }, "index.checkpointEvery"},
		{"backend", func(c *Config) { c.Store.Backend = "s3" }, "store.backend"},
		{"file path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"read-only memory", func(c *Config) {
			c.Store.Backend = "memory"
			c.Store.ReadOnly = true
		}, "store.readOnly"},
		{"cache size", func(c *Config) { c.Store.ReadCacheSize = "lots" }, "store.readCacheSize"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			errs := ValidateConfig(config)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].(ValidationError).Field)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.Is(err, ErrFileNotFound))

	path := filepath.Join(dir, "stratum.yaml")
	config := DefaultConfig()
	config.Index.Name = "orders"
	config.Store.Path = filepath.Join(dir, "orders.db")
	data, err := Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
}
