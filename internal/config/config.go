package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"futureweaver/internal/errors"

	"github.com/BurntSushi/toml"
)

// Store backends
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config represents the complete application configuration. Values come from defaults,
// then the optional TOML file named by FW_CONFIG_FILE, then environment variables.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Ops       OpsConfig       `toml:"ops"`
	Presets   PresetsConfig   `toml:"presets"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string        `toml:"port"`
	GinMode      string        `toml:"gin_mode"`
	CORSOrigins  []string      `toml:"cors_origins"`
	RateLimit    float64       `toml:"rate_limit"` // requests per second, 0 disables
	RateBurst    int           `toml:"rate_burst"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// StoreConfig selects and configures the table store
type StoreConfig struct {
	Backend     string `toml:"backend"`
	DataDir     string `toml:"data_dir"`
	DatabaseURL string `toml:"database_url"`
	SQLitePath  string `toml:"sqlite_path"`
	CacheSize   int    `toml:"cache_size"`
}

// AnalysisConfig holds analysis engine settings
type AnalysisConfig struct {
	Seed int64 `toml:"seed"` // 0 seeds from the clock
}

// TelemetryConfig holds tracing settings. Tracing is off without an endpoint.
type TelemetryConfig struct {
	Endpoint    string  `toml:"endpoint"`
	ServiceName string  `toml:"service_name"`
	SampleRate  float64 `toml:"sample_rate"`
	Insecure    bool    `toml:"insecure"`
}

// OpsConfig holds the metrics and profiling listener settings
type OpsConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    string `toml:"port"`
}

// PresetsConfig points at the lever preset file
type PresetsConfig struct {
	File string `toml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			GinMode:      "debug",
			CORSOrigins:  []string{"*"},
			RateLimit:    20,
			RateBurst:    40,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Backend:   BackendCSV,
			DataDir:   "./data",
			CacheSize: 32,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "futureweaver",
			SampleRate:  1.0,
		},
		Ops: OpsConfig{
			Enabled: true,
			Port:    "6060",
		},
	}
}

// Load reads configuration from the optional TOML file and environment variables and
// validates it
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("FW_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to parse config file %s", path)
		}
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnvOrDefault("PORT", c.Server.Port)
	c.Server.GinMode = getEnvOrDefault("GIN_MODE", c.Server.GinMode)
	c.Server.CORSOrigins = getEnvListOrDefault("CORS_ORIGINS", c.Server.CORSOrigins)
	c.Server.RateLimit = getEnvFloatOrDefault("RATE_LIMIT_RPS", c.Server.RateLimit)
	c.Server.RateBurst = getEnvIntOrDefault("RATE_LIMIT_BURST", c.Server.RateBurst)
	c.Server.ReadTimeout = getEnvDurationOrDefault("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDurationOrDefault("WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Store.Backend = strings.ToLower(getEnvOrDefault("FW_STORE_BACKEND", c.Store.Backend))
	c.Store.DataDir = getEnvOrDefault("FW_DATA_DIR", c.Store.DataDir)
	c.Store.DatabaseURL = getEnvOrDefault("DATABASE_URL", c.Store.DatabaseURL)
	c.Store.SQLitePath = getEnvOrDefault("FW_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.CacheSize = getEnvIntOrDefault("FW_TABLE_CACHE_SIZE", c.Store.CacheSize)

	c.Analysis.Seed = int64(getEnvIntOrDefault("FW_RNG_SEED", int(c.Analysis.Seed)))

	c.Telemetry.Endpoint = getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.Endpoint)
	c.Telemetry.ServiceName = getEnvOrDefault("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)
	c.Telemetry.SampleRate = getEnvFloatOrDefault("FW_TRACE_SAMPLE_RATE", c.Telemetry.SampleRate)
	c.Telemetry.Insecure = getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", c.Telemetry.Insecure)

	c.Ops.Enabled = getEnvBoolOrDefault("PPROF_ENABLED", c.Ops.Enabled)
	c.Ops.Port = getEnvOrDefault("PPROF_PORT", c.Ops.Port)

	c.Presets.File = getEnvOrDefault("FW_PRESETS_FILE", c.Presets.File)
}

// Validate checks that the selected backend is usable and the numeric settings are sane
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return errors.ConfigInvalid("rate limit settings must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst == 0 {
		return errors.ConfigInvalid("rate burst must be positive when rate limiting is on")
	}

	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.DataDir == "" {
			return errors.ConfigInvalid("FW_DATA_DIR is required for the csv backend")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.ConfigInvalid("FW_SQLITE_PATH is required for the sqlite backend")
		}
	case BackendMemory:
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown store backend %q", c.Store.Backend))
	}

	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return errors.ConfigInvalid("trace sample rate must be within [0, 1]")
	}
	if c.Ops.Enabled && c.Ops.Port == "" {
		return errors.ConfigInvalid("ops port is required when the ops listener is enabled")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
