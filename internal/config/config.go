// Package config reads the service configuration from environment
// variables and validates it before anything else starts.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"goenso/adapters/sign"
	"goenso/app"
	"goenso/domain/core"
	"goenso/domain/enso"
	"goenso/internal/errors"
	"goenso/internal/smoothing"
)

// Strategy names accepted by SIGN_STRATEGY.
const (
	SignLoadingBox  = "loading-box"
	SignEventWindow = "event-window"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Engine   EngineConfig
	Compute  ComputeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	GinMode        string
	MetricsEnabled bool
}

// DatabaseConfig holds Postgres connection settings. An empty URL disables
// persistence; runs are then kept in memory only.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataConfig holds the default input dataset settings.
type DataConfig struct {
	SSTFile   string
	Variable  string
	Dataset   string
	ExportDir string
}

// EngineConfig holds the index pipeline defaults.
type EngineConfig struct {
	BaseStart    string
	BaseEnd      string
	LatMin       float64
	LatMax       float64
	LonMin       float64
	LonMax       float64
	Kernel       []float64
	SignStrategy string
}

// ComputeConfig bounds the in-flight decomposition work.
type ComputeConfig struct {
	MaxConcurrent int64
	Timeout       time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{}

	config.Server = loadServerConfig()
	config.Database = loadDatabaseConfig()
	config.Data = loadDataConfig()

	engineConfig, err := loadEngineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine configuration")
	}
	config.Engine = *engineConfig

	config.Compute = loadComputeConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		MetricsEnabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:             getEnvOrDefault("DATABASE_URL", ""),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", 30*time.Minute),
	}
}

func loadDataConfig() DataConfig {
	return DataConfig{
		SSTFile:   getEnvOrDefault("SST_FILE", ""),
		Variable:  getEnvOrDefault("SST_VARIABLE", "sst"),
		Dataset:   getEnvOrDefault("DATASET_NAME", "ersstv5"),
		ExportDir: getEnvOrDefault("EXPORT_DIR", "."),
	}
}

func loadEngineConfig() (*EngineConfig, error) {
	kernel, err := getEnvFloats("SMOOTH_KERNEL", []float64{1, 2, 1})
	if err != nil {
		return nil, err
	}
	return &EngineConfig{
		BaseStart:    getEnvOrDefault("BASE_PERIOD_START", "1979-01-01"),
		BaseEnd:      getEnvOrDefault("BASE_PERIOD_END", "2009-12-30"),
		LatMin:       getEnvFloatOrDefault("LAT_MIN", -10),
		LatMax:       getEnvFloatOrDefault("LAT_MAX", 10),
		LonMin:       getEnvFloatOrDefault("LON_MIN", 110),
		LonMax:       getEnvFloatOrDefault("LON_MAX", 290),
		Kernel:       kernel,
		SignStrategy: getEnvOrDefault("SIGN_STRATEGY", SignLoadingBox),
	}, nil
}

func loadComputeConfig() ComputeConfig {
	return ComputeConfig{
		MaxConcurrent: int64(getEnvIntOrDefault("MAX_CONCURRENT_COMPUTE", 2)),
		Timeout:       getEnvDurationOrDefault("COMPUTE_TIMEOUT", 5*time.Minute),
	}
}

func validateConfig(config *Config) error {
	if _, err := config.Engine.Period().Resolve(); err != nil {
		return errors.ConfigInvalid("base period is not parseable: " + err.Error())
	}
	if err := config.Engine.Domain().Validate(); err != nil {
		return errors.ConfigInvalid("analysis domain is invalid: " + err.Error())
	}
	if _, err := config.Engine.SmoothingKernel(); err != nil {
		return errors.ConfigInvalid("smoothing kernel is invalid: " + err.Error())
	}
	switch config.Engine.SignStrategy {
	case SignLoadingBox, SignEventWindow:
	default:
		return errors.ConfigInvalid("sign strategy must be " + SignLoadingBox + " or " + SignEventWindow)
	}
	if config.Compute.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_COMPUTE must be at least 1")
	}
	return nil
}

// Period returns the configured base period as a domain value.
func (e EngineConfig) Period() core.Period {
	return core.NewPeriod(e.BaseStart, e.BaseEnd)
}

// Domain returns the configured analysis box as a domain value.
func (e EngineConfig) Domain() enso.Region {
	return enso.Region{LatMin: e.LatMin, LatMax: e.LatMax, LonMin: e.LonMin, LonMax: e.LonMax}
}

// SmoothingKernel builds the configured kernel, normalizing its weights.
func (e EngineConfig) SmoothingKernel() (smoothing.Kernel, error) {
	return smoothing.NewKernel(e.Kernel)
}

// PipelineConfig assembles the engine configuration, resolving the sign
// strategy by name.
func (e EngineConfig) PipelineConfig() (app.Config, error) {
	kernel, err := e.SmoothingKernel()
	if err != nil {
		return app.Config{}, err
	}
	resolver, err := sign.ForStrategy(e.SignStrategy)
	if err != nil {
		return app.Config{}, err
	}
	return app.Config{
		Domain:   e.Domain(),
		Base:     e.Period(),
		Kernel:   kernel,
		Resolver: resolver,
	}, nil
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

// getEnvFloats parses a comma-separated list. A malformed entry is an
// error rather than a silent fallback, since a mistyped kernel would
// quietly change every smoothed product.
func getEnvFloats(key string, defaultValue []float64) ([]float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parts := strings.Split(value, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.ConfigInvalid(key + " holds a non-numeric entry: " + p)
		}
		out = append(out, f)
	}
	return out, nil
}
