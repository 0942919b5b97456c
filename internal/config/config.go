package config

import (
	"os"
	"strconv"
	"strings"

	"flavorfit/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Fit  FitConfig
	Data DataConfig
	Scan ScanConfig
	Log  LogConfig
}

// FitConfig selects which combination is evaluated and how
type FitConfig struct {
	Mode       string
	Normalized bool
}

// DataConfig holds the measurement table location
type DataConfig struct {
	File string // empty selects the embedded dataset
}

// ScanConfig holds profile scan settings
type ScanConfig struct {
	Workers int
	Points  int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

var (
	validModes     = []string{"gamma", "charm", "combined"}
	validLogLevels = []string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Fit: FitConfig{
			Mode:       strings.ToLower(getEnvOrDefault("FLAVORFIT_MODE", "combined")),
			Normalized: getEnvBoolOrDefault("FLAVORFIT_NORMALIZED", false),
		},
		Data: DataConfig{
			File: getEnvOrDefault("FLAVORFIT_DATA_FILE", ""),
		},
		Scan: ScanConfig{
			Workers: getEnvIntOrDefault("FLAVORFIT_WORKERS", 4),
			Points:  getEnvIntOrDefault("FLAVORFIT_SCAN_POINTS", 101),
		},
		Log: LogConfig{
			Level: strings.ToUpper(getEnvOrDefault("LOG_LEVEL", "INFO")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks value ranges; CLI flag overrides call it again.
func (c *Config) Validate() error {
	if !contains(validModes, c.Fit.Mode) {
		return errors.ConfigInvalid("FLAVORFIT_MODE must be one of " + strings.Join(validModes, ", ") + ", got " + strconv.Quote(c.Fit.Mode))
	}
	if c.Scan.Workers < 1 {
		return errors.ConfigInvalid("FLAVORFIT_WORKERS must be at least 1")
	}
	if c.Scan.Points < 2 {
		return errors.ConfigInvalid("FLAVORFIT_SCAN_POINTS must be at least 2")
	}
	if !contains(validLogLevels, c.Log.Level) {
		return errors.ConfigInvalid("LOG_LEVEL must be one of " + strings.Join(validLogLevels, ", "))
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
