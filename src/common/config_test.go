package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfigName = "tmp-config.yaml"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Nil(t, cfg.Validate())
	require.Equal(t, "lru", cfg.Replacer)
	require.Greater(t, cfg.PoolSize, 0)
}

func TestLoadConfigFromFile(t *testing.T) {
	defer os.Remove(testConfigName)
	content := []byte("pool_size: 16\nreplacer: clock\ndata_file: pages.db\nwal_file: pages.wal\nwal_compression: snappy\nenable_metrics: true\n")
	require.Nil(t, os.WriteFile(testConfigName, content, 0644))

	cfg, err := LoadConfig(testConfigName)
	require.Nil(t, err)
	require.Equal(t, 16, cfg.PoolSize)
	require.Equal(t, "clock", cfg.Replacer)
	require.Equal(t, "pages.db", cfg.DataFile)
	require.Equal(t, "pages.wal", cfg.WALFile)
	require.Equal(t, "snappy", cfg.WALCompression)
	require.Equal(t, true, cfg.EnableMetrics)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BUFPOOL_POOL_SIZE", "8")
	t.Setenv("BUFPOOL_REPLACER", "clock")

	cfg, err := LoadConfig("")
	require.Nil(t, err)
	require.Equal(t, 8, cfg.PoolSize)
	require.Equal(t, "clock", cfg.Replacer)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PoolSize = 0
	require.NotNil(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Replacer = "arc"
	require.NotNil(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.WALCompression = "zstd"
	require.NotNil(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DataFile = ""
	require.NotNil(t, cfg.Validate())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	require.NotNil(t, err)
}
