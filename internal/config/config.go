package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"grouper/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths  PathConfig
	Load   LoadConfig
	Output OutputConfig
	Log    LogConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	DataDir    string
	OutputDir  string
	RosterFile string // empty means the embedded default roster
}

// LoadConfig holds spreadsheet loading settings
type LoadConfig struct {
	Parallelism int
	Sheet       string // empty means the first sheet of each workbook
}

// OutputConfig holds output workbook settings
type OutputConfig struct {
	WriteReport bool
	DateLayout  string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	config := &Config{
		Paths:  *loadPathConfig(),
		Load:   *loadLoadConfig(),
		Output: *loadOutputConfig(),
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := Validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to load %s", path)
	}
	return nil
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		DataDir:    getEnvOrDefault("DATA_DIR", ""),
		OutputDir:  getEnvOrDefault("OUTPUT_DIR", "."),
		RosterFile: getEnvOrDefault("ROSTER_FILE", ""),
	}
}

func loadLoadConfig() *LoadConfig {
	return &LoadConfig{
		Parallelism: getEnvIntOrDefault("LOAD_PARALLELISM", 4),
		Sheet:       getEnvOrDefault("INPUT_SHEET", ""),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		WriteReport: getEnvBoolOrDefault("WRITE_REPORT", false),
		DateLayout:  getEnvOrDefault("OUTPUT_DATE_LAYOUT", "02-01-06"),
	}
}

// Validate checks values that flags may also have overridden.
func Validate(config *Config) error {
	if config.Load.Parallelism < 1 {
		return errors.ConfigInvalid("LOAD_PARALLELISM must be at least 1")
	}
	if config.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Output.DateLayout == "" {
		return errors.ConfigInvalid("OUTPUT_DATE_LAYOUT cannot be empty")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
