// Package config reads process-level configuration from the environment.
package config

import (
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds the process-level configuration. Per-stage thresholds live in
// each stage's own Config struct and are passed explicitly into the
// pipeline; only operational knobs belong here.
type Config struct {
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// PipelineConfig carries the operational pipeline overrides.
type PipelineConfig struct {
	// Workers bounds batch concurrency across files.
	Workers int
	// SimilarityThreshold overrides the duplicate detector's description
	// similarity cutoff (0-100).
	SimilarityThreshold int
	// SortBatchByDate orders merged batch output by transaction date.
	SortBatchByDate bool
}

type LoggingConfig struct {
	Level string
	JSON  bool
}

type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Workers:             getEnvAsInt("PIPELINE_WORKERS", 4),
			SimilarityThreshold: getEnvAsInt("PIPELINE_DUPLICATE_SIMILARITY", 70),
			SortBatchByDate:     getEnvAsBool("PIPELINE_SORT_BY_DATE", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", false),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", false),
			Port:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
