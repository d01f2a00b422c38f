// Package config loads the engine-wide settings that wire together the
// buffer pool, replacer, B+ tree order, and the logger/metrics config
// structs those packages already declare.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nikhilrp/anchordb/pkg/logger"
	"github.com/nikhilrp/anchordb/pkg/metrics"
)

// Config is the single value most constructors in this module can be
// built from, instead of a long positional parameter list — the same
// role logger.Config and metrics.Config play for their own packages.
type Config struct {
	PoolSize        int            `yaml:"pool_size"`
	PageSize        int            `yaml:"page_size"`
	ReplacerK       int            `yaml:"replacer_k"`
	LeafMaxSize     int            `yaml:"leaf_max_size"`
	InternalMaxSize int            `yaml:"internal_max_size"`
	Logger          logger.Config  `yaml:"logger"`
	Metrics         metrics.Config `yaml:"metrics"`
}

// Default returns the configuration used when no file is supplied:
// enough pool frames and page size for the test fixtures and worked
// examples in this module, metrics and file logging both off.
func Default() Config {
	return Config{
		PoolSize:        64,
		PageSize:        4096,
		ReplacerK:       2,
		LeafMaxSize:     leafOrderFor(4096),
		InternalMaxSize: internalOrderFor(4096),
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stdout",
		},
		Metrics: metrics.Config{
			Enabled:     false,
			ServiceName: "anchordb",
		},
	}
}

// Load reads and parses a YAML config file, filling any field the file
// omits from Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// leafOrderFor and internalOrderFor pick the largest fan-out whose
// fixed-length int64 entries fit in one page after the 36-byte page
// header (253 entries for a 4096-byte page); production sizing
// would derive these from the concrete key/value codec sizes instead of
// assuming int64.
func leafOrderFor(pageSize int) int {
	const headerSize, slot = 36, 16 // int64 key + int64 value
	return (pageSize - headerSize) / slot
}

func internalOrderFor(pageSize int) int {
	const headerSize, slot = 36, 16 // int64 key + page.ID child pointer
	return (pageSize - headerSize) / slot
}
