package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 70, cfg.Pipeline.SimilarityThreshold)
	assert.True(t, cfg.Pipeline.SortBatchByDate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_DUPLICATE_SIMILARITY", "85")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("METRICS_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 85, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "many")
	t.Setenv("LOG_JSON", "yes please")

	cfg := Load()
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.False(t, cfg.Logging.JSON)
}
