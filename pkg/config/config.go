// Package config loads the application configuration from a YAML file and
// supplies sensible defaults for everything the file leaves out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Stravanni/bdm/pkg/logger"
	"github.com/Stravanni/bdm/pkg/telemetry"
)

// PoolConfig configures the buffer pool.
type PoolConfig struct {
	// Size is the number of frames in the pool.
	Size int `yaml:"size"`
	// Policy selects the eviction policy: "FIFO", "LRU" or "CLOCK".
	Policy string `yaml:"policy"`
	// ActivityTimeout is the window within which a tenant counts as active.
	// Only used by the tenant-aware pool.
	ActivityTimeout time.Duration `yaml:"activity_timeout"`
}

// DiskConfig configures the paging layer.
type DiskConfig struct {
	// Path is the database file location.
	Path string `yaml:"path"`
}

// Config is the root configuration for the bdm binaries.
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Pool      PoolConfig       `yaml:"pool"`
	Disk      DiskConfig       `yaml:"disk"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Logger: logger.Config{
			Level:      "info",
			Format:     "console",
			OutputFile: "stderr",
		},
		Telemetry: telemetry.Config{
			Enabled:        false,
			ServiceName:    "bdm",
			PrometheusPort: 9090,
		},
		Pool: PoolConfig{
			Size:            10,
			Policy:          "LRU",
			ActivityTimeout: 5 * time.Minute,
		},
		Disk: DiskConfig{
			Path: "orders.db",
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
