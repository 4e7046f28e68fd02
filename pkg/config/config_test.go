package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.Equal(t, "LRU", cfg.Pool.Policy)
	require.Equal(t, 10, cfg.Pool.Size)
	require.Equal(t, 5*time.Minute, cfg.Pool.ActivityTimeout)
	require.Equal(t, "orders.db", cfg.Disk.Path)
	require.False(t, cfg.Telemetry.Enabled)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bdm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  size: 64
  policy: CLOCK
disk:
  path: /tmp/test.db
telemetry:
  enabled: true
  prometheus_port: 2112
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 64, cfg.Pool.Size)
	require.Equal(t, "CLOCK", cfg.Pool.Policy)
	require.Equal(t, "/tmp/test.db", cfg.Disk.Path)
	require.True(t, cfg.Telemetry.Enabled)
	require.Equal(t, 2112, cfg.Telemetry.PrometheusPort)

	// Untouched sections keep their defaults.
	require.Equal(t, 5*time.Minute, cfg.Pool.ActivityTimeout)
	require.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool: ["), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
