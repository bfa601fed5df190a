package config

import (
	"os"
	"strconv"

	"erhsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Archive    ArchiveConfig
	Simulation SimulationConfig
	Paths      PathConfig
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port string
}

// ArchiveConfig holds run-archive database settings. The archive is
// optional; an empty DSN disables it.
type ArchiveConfig struct {
	DSN     string
	Enabled bool
}

// SimulationConfig holds the default simulation knobs. Each knob can be
// overridden per request; these are the values cmd mains start from.
type SimulationConfig struct {
	Seed       int64
	Tau        float64
	NumActions int
	XMax       int
}

// PathConfig holds file system paths for report and export output
type PathConfig struct {
	ReportDir string
	ExcelFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:     loadServerConfig(),
		Archive:    loadArchiveConfig(),
		Simulation: loadSimulationConfig(),
		Paths:      loadPathConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("SERVER_PORT", "8080"),
	}
}

func loadArchiveConfig() ArchiveConfig {
	dsn := os.Getenv("ARCHIVE_DSN")
	return ArchiveConfig{
		DSN:     dsn,
		Enabled: dsn != "",
	}
}

func loadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Seed:       getEnvInt64OrDefault("SIM_SEED", 42),
		Tau:        getEnvFloatOrDefault("SIM_TAU", 0.2),
		NumActions: getEnvIntOrDefault("SIM_ACTIONS", 2000),
		XMax:       getEnvIntOrDefault("SIM_XMAX", 100),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		ReportDir: getEnvOrDefault("REPORT_DIR", "."),
		ExcelFile: getEnvOrDefault("EXCEL_FILE", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Simulation.Tau < 0 {
		return errors.ConfigInvalid("SIM_TAU must be >= 0")
	}
	if config.Simulation.NumActions <= 0 {
		return errors.ConfigInvalid("SIM_ACTIONS must be > 0")
	}
	if config.Simulation.XMax < 1 {
		return errors.ConfigInvalid("SIM_XMAX must be >= 1")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
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
