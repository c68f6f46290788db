package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the environment configuration shared by the commands
type Config struct {
	// Inputs and outputs
	DataDir       string
	OutputDir     string
	OperatorsFile string

	// Pipeline behaviour
	Pretty            bool
	SkipValidation    bool
	StaticRefreshDays int

	// Dataset export
	DatabasePath string
	DatabaseURL  string
	KeepRuns     int

	// Preview API
	Port               string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DataDir:       getEnv("GTFS_DATA_DIR", "data/gtfs"),
		OutputDir:     getEnv("OUTPUT_DIR", "output"),
		OperatorsFile: getEnv("OPERATORS_FILE", ""),

		Pretty:            getEnvBool("PRETTY_OUTPUT", false),
		SkipValidation:    getEnvBool("SKIP_VALIDATION", false),
		StaticRefreshDays: getEnvInt("STATIC_REFRESH_DAYS", 0),

		DatabasePath: getEnv("SQLITE_DATABASE", ""),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		KeepRuns:     getEnvInt("KEEP_RUNS", 10),

		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
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
