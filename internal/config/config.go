// Package config loads application configuration from config.yaml, a
// local .env file, and GEOREF_-prefixed environment variables.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	GISDB     GISDBConfig     `yaml:"gisdb" mapstructure:"gisdb"`
	PLSS      PLSSConfig      `yaml:"plss" mapstructure:"plss"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the geocoding cascade.
type GeocodeConfig struct {
	NominatimBaseURL string  `yaml:"nominatim_base_url" mapstructure:"nominatim_base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitPerSec  float64 `yaml:"rate_limit_per_sec" mapstructure:"rate_limit_per_sec"`
	CacheDatabaseURL string  `yaml:"cache_database_url" mapstructure:"cache_database_url"`
	CacheTTLHours    int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// GISDBConfig configures county GIS lookups.
type GISDBConfig struct {
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PLSSConfig configures legal-description resolution.
type PLSSConfig struct {
	CalibrationPath string `yaml:"calibration_path" mapstructure:"calibration_path"`
	ShapefilePath   string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
}

// CacheConfig configures the jurisdiction discovery cache.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr" mapstructure:"redis_addr"`
	TTLHours  int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// AnthropicConfig holds document extraction API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is folded into the environment first, if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOREF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "georef.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("geocode.nominatim_base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.rate_limit_per_sec", 1)
	v.SetDefault("geocode.cache_ttl_hours", 720)
	v.SetDefault("gisdb.timeout_secs", 15)
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("batch.max_concurrent", 4)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on. Modes: "georef"
// (single-document resolution), "batch", "extract".
func (c *Config) Validate(mode string) error {
	var problems []string

	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	switch mode {
	case "georef", "batch":
		check(c.Store.Driver == "sqlite", "store.driver must be sqlite")
		check(c.Store.Path != "", "store.path is required")
		check(c.Geocode.NominatimBaseURL != "", "geocode.nominatim_base_url is required")
		check(c.Geocode.TimeoutSecs > 0, "geocode.timeout_secs must be > 0")
		check(c.Geocode.RateLimitPerSec > 0, "geocode.rate_limit_per_sec must be > 0")
		if mode == "batch" {
			check(c.Batch.MaxConcurrent >= 1 && c.Batch.MaxConcurrent <= 32,
				"batch.max_concurrent must be between 1 and 32")
		}
	case "extract":
		check(c.Anthropic.Key != "", "anthropic.key is required")
		check(c.Anthropic.Model != "", "anthropic.model is required")
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
