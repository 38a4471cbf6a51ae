package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calai/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "data/calai.db", cfg.DB.Path)
	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, int64(25), cfg.Storage.MaxFileSizeMB)

	assert.Equal(t, "openai", cfg.LLM.Primary.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Primary.DefaultModel)

	assert.Equal(t, 3, cfg.Pipeline.MaxQuestions)
	assert.Equal(t, 0.95, cfg.Pipeline.ConfidenceThreshold)
	assert.Equal(t, 0.1, cfg.Pipeline.MinVolumeLitres)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.AnswerTimeout)

	assert.Equal(t, 0.05, cfg.Validation.DensityMin)
	assert.Equal(t, 2.0, cfg.Validation.DensityMax)
	assert.Equal(t, 1.0, cfg.Validation.DensityDefault)
	assert.Equal(t, 1.0, cfg.Validation.PercentageTolerance)
	assert.Equal(t, 0.7, cfg.Validation.ReviewMinConfidence)
	assert.Equal(t, 0.5, cfg.Validation.ReviewMaxDeviation)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CALAI_SERVER_PORT", ":9090")
	t.Setenv("CALAI_DB_PATH", "/tmp/test.db")
	t.Setenv("CALAI_STORAGE_PROVIDER", "s3")
	t.Setenv("CALAI_LLM_PRIMARY_PROVIDER", "claude")
	t.Setenv("CALAI_PIPELINE_MAX_QUESTIONS", "5")
	t.Setenv("CALAI_VALIDATION_DENSITY_MAX", "3.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	assert.Equal(t, "s3", cfg.Storage.Provider)
	assert.Equal(t, "claude", cfg.LLM.Primary.Provider)
	assert.Equal(t, 5, cfg.Pipeline.MaxQuestions)
	assert.Equal(t, 3.5, cfg.Validation.DensityMax)
}

func TestLoadPortFallback(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Port)
}

func TestSecondaryConfig(t *testing.T) {
	cfg := config.LLMConfig{
		Primary: config.LLMProviderConfig{Provider: "openai"},
	}
	assert.Nil(t, cfg.SecondaryConfig())
	assert.Nil(t, cfg.TertiaryConfig())

	cfg.Secondary = config.LLMProviderConfig{Provider: "claude", APIKey: "sk-2"}
	secondary := cfg.SecondaryConfig()
	require.NotNil(t, secondary)
	assert.Equal(t, "claude", secondary.Provider)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CALAI_CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.CORS.AllowedOrigins)
}
