package config

import (
	"os"
	"strconv"
	"time"

	"gostair/internal/errors"
)

// Config represents the complete application configuration loaded from the
// environment. Per-session experiment settings live in SessionConfig and are
// loaded from a YAML file instead.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Output   OutputConfig
}

// DatabaseConfig holds trial-store connection settings
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	URL    string // DSN for postgres, file path for sqlite
}

// ServerConfig holds diagnostics server settings
type ServerConfig struct {
	Port    string
	Enabled bool
}

// OutputConfig holds result file paths
type OutputConfig struct {
	ResultsDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("DB_DRIVER", "sqlite"),
			URL:    getEnvOrDefault("DATABASE_URL", "gostair.db"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("DIAG_PORT", "8080"),
			Enabled: getEnvBoolOrDefault("DIAG_ENABLED", true),
		},
		Output: OutputConfig{
			ResultsDir: getEnvOrDefault("RESULTS_DIR", "results"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return errors.ConfigInvalid("DB_DRIVER must be postgres or sqlite")
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// Duration parsing helper (for future use)
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
