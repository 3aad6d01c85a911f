package common

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the knobs for a pool instance. Loaded once at startup;
// the pool itself never re-reads it.
type Config struct {
	PoolSize       int    `yaml:"pool_size"`       // number of frames
	Replacer       string `yaml:"replacer"`        // "lru" or "clock"
	DataFile       string `yaml:"data_file"`       // page file path
	WALFile        string `yaml:"wal_file"`        // empty disables the log manager
	WALCompression string `yaml:"wal_compression"` // "none", "snappy" or "lz4"
	EnableMetrics  bool   `yaml:"enable_metrics"`
}

func DefaultConfig() *Config {
	return &Config{
		PoolSize:       64,
		Replacer:       "lru",
		DataFile:       "data.db",
		WALFile:        "",
		WALCompression: "none",
		EnableMetrics:  false,
	}
}

// LoadConfig reads a YAML config file on top of the defaults and then
// applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if val := os.Getenv("BUFPOOL_POOL_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			cfg.PoolSize = size
		}
	}
	if val := os.Getenv("BUFPOOL_REPLACER"); val != "" {
		cfg.Replacer = val
	}
	if val := os.Getenv("BUFPOOL_DATA_FILE"); val != "" {
		cfg.DataFile = val
	}
	if val := os.Getenv("BUFPOOL_WAL_FILE"); val != "" {
		cfg.WALFile = val
	}
	if val := os.Getenv("BUFPOOL_WAL_COMPRESSION"); val != "" {
		cfg.WALCompression = val
	}
	if val := os.Getenv("BUFPOOL_ENABLE_METRICS"); val != "" {
		cfg.EnableMetrics = val == "true" || val == "1"
	}
}

func (cfg *Config) Validate() error {
	if cfg.PoolSize <= 0 {
		return fmt.Errorf("pool_size must be positive, got %d", cfg.PoolSize)
	}
	switch cfg.Replacer {
	case "lru", "clock":
	default:
		return fmt.Errorf("unknown replacer policy %q", cfg.Replacer)
	}
	switch cfg.WALCompression {
	case "none", "snappy", "lz4":
	default:
		return fmt.Errorf("unknown wal compression %q", cfg.WALCompression)
	}
	if cfg.DataFile == "" {
		return fmt.Errorf("data_file must not be empty")
	}
	return nil
}
