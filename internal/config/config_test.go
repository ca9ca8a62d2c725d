package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "georef.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocode.NominatimBaseURL)
	assert.Equal(t, 10, cfg.Geocode.TimeoutSecs)
	assert.InDelta(t, 1.0, cfg.Geocode.RateLimitPerSec, 0.001)
	assert.Equal(t, 720, cfg.Geocode.CacheTTLHours)
	assert.Equal(t, 15, cfg.GISDB.TimeoutSecs)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  path: /var/lib/georef/runs.db
log:
  level: debug
  format: console
plss:
  calibration_path: calibrations.yaml
batch:
  max_concurrent: 8
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/georef/runs.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "calibrations.yaml", cfg.PLSS.CalibrationPath)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Geocode.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chTempDir(t)

	yaml := `
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOREF_LOG_LEVEL", "warn")
	t.Setenv("GEOREF_STORE_PATH", "/tmp/override.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/tmp/override.db", cfg.Store.Path)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Store:   StoreConfig{Driver: "sqlite", Path: "georef.db"},
		Geocode: GeocodeConfig{NominatimBaseURL: "https://nominatim.openstreetmap.org", TimeoutSecs: 10, RateLimitPerSec: 1},
		Batch:   BatchConfig{MaxConcurrent: 4},
	}
}

func TestValidateGeoref(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("georef"))

	cfg := validDefaults()
	cfg.Store.Path = ""
	cfg.Geocode.TimeoutSecs = 0
	err := cfg.Validate("georef")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path is required")
	assert.Contains(t, err.Error(), "geocode.timeout_secs")
}

func TestValidateBatchConcurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.MaxConcurrent = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent must be between 1 and 32")

	cfg.Batch.MaxConcurrent = 32
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateExtract(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic = AnthropicConfig{Key: "sk-ant-key", Model: "claude-sonnet-4-5-20250929"}
	assert.NoError(t, cfg.Validate("extract"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
