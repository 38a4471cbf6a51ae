package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	Storage    StorageConfig
	Log        LogConfig
	LLM        LLMConfig
	Search     SearchConfig
	Corpus     CorpusConfig
	Segmenter  SegmenterConfig
	Pipeline   PipelineConfig
	Validation ValidationConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds SQLite settings for the meal history store.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig holds photo storage settings. Provider is "local" or "s3".
type StorageConfig struct {
	Provider      string `mapstructure:"provider"`
	LocalDir      string `mapstructure:"local_dir"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	S3            S3Config
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LLMProviderConfig holds settings for a single chat model provider.
type LLMProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds chat model settings with multi-provider support.
type LLMConfig struct {
	Primary   LLMProviderConfig `mapstructure:"primary"`
	Secondary LLMProviderConfig `mapstructure:"secondary"`
	Tertiary  LLMProviderConfig `mapstructure:"tertiary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (c *LLMConfig) SecondaryConfig() *LLMProviderConfig {
	if c.Secondary.Provider != "" {
		return &c.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (c *LLMConfig) TertiaryConfig() *LLMProviderConfig {
	if c.Tertiary.Provider != "" {
		return &c.Tertiary
	}
	return nil
}

// SearchConfig holds web search settings.
type SearchConfig struct {
	APIKey      string `mapstructure:"api_key"`
	Depth       string `mapstructure:"depth"`
	MaxResults  int    `mapstructure:"max_results"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// CorpusConfig holds settings for the density reference corpus service.
type CorpusConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	TopK        int    `mapstructure:"top_k"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// SegmenterConfig holds settings for the volume estimation service.
type SegmenterConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	PlateRatio  float64 `mapstructure:"plate_ratio"`
	TimeoutSecs int     `mapstructure:"timeout_secs"`
}

// PipelineConfig holds stage orchestration settings.
type PipelineConfig struct {
	DataDir             string        `mapstructure:"data_dir"`
	MaxQuestions        int           `mapstructure:"max_questions"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	MinVolumeLitres     float64       `mapstructure:"min_volume_litres"`
	AnswerTimeout       time.Duration `mapstructure:"answer_timeout"`
	StageTimeout        time.Duration `mapstructure:"stage_timeout"`
}

// ValidationConfig holds plausibility bounds and tolerances.
type ValidationConfig struct {
	DensityMin          float64 `mapstructure:"density_min"`
	DensityMax          float64 `mapstructure:"density_max"`
	DensityDefault      float64 `mapstructure:"density_default"`
	PercentageTolerance float64 `mapstructure:"percentage_tolerance"`
	MassTolerance       float64 `mapstructure:"mass_tolerance"`
	ReviewMinConfidence float64 `mapstructure:"review_min_confidence"`
	ReviewMaxDeviation  float64 `mapstructure:"review_max_deviation"`
}

// Load reads configuration from environment variables with the CALAI_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CALAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.path", "data/calai.db")

	// Storage defaults
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_dir", "data/photos")
	v.SetDefault("storage.max_file_size_mb", 25)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "calai-photos")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// LLM provider defaults
	v.SetDefault("llm.primary.provider", "openai")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.default_model", "gpt-4o")
	v.SetDefault("llm.primary.max_retries", 2)
	v.SetDefault("llm.primary.timeout_secs", 120)
	v.SetDefault("llm.secondary.provider", "")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.default_model", "")
	v.SetDefault("llm.secondary.max_retries", 2)
	v.SetDefault("llm.secondary.timeout_secs", 120)
	v.SetDefault("llm.tertiary.provider", "")
	v.SetDefault("llm.tertiary.api_key", "")
	v.SetDefault("llm.tertiary.default_model", "")
	v.SetDefault("llm.tertiary.max_retries", 2)
	v.SetDefault("llm.tertiary.timeout_secs", 120)

	// Search defaults
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.depth", "advanced")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout_secs", 30)

	// Corpus defaults
	v.SetDefault("corpus.base_url", "")
	v.SetDefault("corpus.top_k", 3)
	v.SetDefault("corpus.timeout_secs", 15)

	// Segmenter defaults
	v.SetDefault("segmenter.base_url", "http://localhost:5000")
	v.SetDefault("segmenter.plate_ratio", 0.0)
	v.SetDefault("segmenter.timeout_secs", 300)

	// Pipeline defaults
	v.SetDefault("pipeline.data_dir", "data/runs")
	v.SetDefault("pipeline.max_questions", 3)
	v.SetDefault("pipeline.confidence_threshold", 0.95)
	v.SetDefault("pipeline.min_volume_litres", 0.1)
	v.SetDefault("pipeline.answer_timeout", "5m")
	v.SetDefault("pipeline.stage_timeout", "5m")

	// Validation defaults
	v.SetDefault("validation.density_min", 0.05)
	v.SetDefault("validation.density_max", 2.0)
	v.SetDefault("validation.density_default", 1.0)
	v.SetDefault("validation.percentage_tolerance", 1.0)
	v.SetDefault("validation.mass_tolerance", 0.5)
	v.SetDefault("validation.review_min_confidence", 0.7)
	v.SetDefault("validation.review_max_deviation", 0.5)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "CALAI_SERVER_PORT",
		"server.read_timeout":              "CALAI_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "CALAI_SERVER_WRITE_TIMEOUT",
		"server.environment":               "CALAI_SERVER_ENVIRONMENT",
		"db.path":                          "CALAI_DB_PATH",
		"storage.provider":                 "CALAI_STORAGE_PROVIDER",
		"storage.local_dir":                "CALAI_STORAGE_LOCAL_DIR",
		"storage.max_file_size_mb":         "CALAI_STORAGE_MAX_FILE_SIZE_MB",
		"storage.s3.region":                "CALAI_STORAGE_S3_REGION",
		"storage.s3.bucket":                "CALAI_STORAGE_S3_BUCKET",
		"storage.s3.endpoint":              "CALAI_STORAGE_S3_ENDPOINT",
		"storage.s3.access_key":            "CALAI_STORAGE_S3_ACCESS_KEY",
		"storage.s3.secret_key":            "CALAI_STORAGE_S3_SECRET_KEY",
		"storage.s3.presign_expiry":        "CALAI_STORAGE_S3_PRESIGN_EXPIRY",
		"log.level":                        "CALAI_LOG_LEVEL",
		"log.format":                       "CALAI_LOG_FORMAT",
		"cors.allowed_origins":             "CALAI_CORS_ALLOWED_ORIGINS",
		"llm.primary.provider":             "CALAI_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":              "CALAI_LLM_PRIMARY_API_KEY",
		"llm.primary.default_model":        "CALAI_LLM_PRIMARY_DEFAULT_MODEL",
		"llm.primary.max_retries":          "CALAI_LLM_PRIMARY_MAX_RETRIES",
		"llm.primary.timeout_secs":         "CALAI_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.secondary.provider":           "CALAI_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":            "CALAI_LLM_SECONDARY_API_KEY",
		"llm.secondary.default_model":      "CALAI_LLM_SECONDARY_DEFAULT_MODEL",
		"llm.secondary.max_retries":        "CALAI_LLM_SECONDARY_MAX_RETRIES",
		"llm.secondary.timeout_secs":       "CALAI_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.tertiary.provider":            "CALAI_LLM_TERTIARY_PROVIDER",
		"llm.tertiary.api_key":             "CALAI_LLM_TERTIARY_API_KEY",
		"llm.tertiary.default_model":       "CALAI_LLM_TERTIARY_DEFAULT_MODEL",
		"llm.tertiary.max_retries":         "CALAI_LLM_TERTIARY_MAX_RETRIES",
		"llm.tertiary.timeout_secs":        "CALAI_LLM_TERTIARY_TIMEOUT_SECS",
		"search.api_key":                   "CALAI_SEARCH_API_KEY",
		"search.depth":                     "CALAI_SEARCH_DEPTH",
		"search.max_results":               "CALAI_SEARCH_MAX_RESULTS",
		"search.timeout_secs":              "CALAI_SEARCH_TIMEOUT_SECS",
		"corpus.base_url":                  "CALAI_CORPUS_BASE_URL",
		"corpus.top_k":                     "CALAI_CORPUS_TOP_K",
		"corpus.timeout_secs":              "CALAI_CORPUS_TIMEOUT_SECS",
		"segmenter.base_url":               "CALAI_SEGMENTER_BASE_URL",
		"segmenter.plate_ratio":            "CALAI_SEGMENTER_PLATE_RATIO",
		"segmenter.timeout_secs":           "CALAI_SEGMENTER_TIMEOUT_SECS",
		"pipeline.data_dir":                "CALAI_PIPELINE_DATA_DIR",
		"pipeline.max_questions":           "CALAI_PIPELINE_MAX_QUESTIONS",
		"pipeline.confidence_threshold":    "CALAI_PIPELINE_CONFIDENCE_THRESHOLD",
		"pipeline.min_volume_litres":       "CALAI_PIPELINE_MIN_VOLUME_LITRES",
		"pipeline.answer_timeout":          "CALAI_PIPELINE_ANSWER_TIMEOUT",
		"pipeline.stage_timeout":           "CALAI_PIPELINE_STAGE_TIMEOUT",
		"validation.density_min":           "CALAI_VALIDATION_DENSITY_MIN",
		"validation.density_max":           "CALAI_VALIDATION_DENSITY_MAX",
		"validation.density_default":       "CALAI_VALIDATION_DENSITY_DEFAULT",
		"validation.percentage_tolerance":  "CALAI_VALIDATION_PERCENTAGE_TOLERANCE",
		"validation.mass_tolerance":        "CALAI_VALIDATION_MASS_TOLERANCE",
		"validation.review_min_confidence": "CALAI_VALIDATION_REVIEW_MIN_CONFIDENCE",
		"validation.review_max_deviation":  "CALAI_VALIDATION_REVIEW_MAX_DEVIATION",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CALAI_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CALAI_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Path: v.GetString("db.path"),
	}
	cfg.Storage = StorageConfig{
		Provider:      v.GetString("storage.provider"),
		LocalDir:      v.GetString("storage.local_dir"),
		MaxFileSizeMB: v.GetInt64("storage.max_file_size_mb"),
		S3: S3Config{
			Region:        v.GetString("storage.s3.region"),
			Bucket:        v.GetString("storage.s3.bucket"),
			Endpoint:      v.GetString("storage.s3.endpoint"),
			AccessKey:     v.GetString("storage.s3.access_key"),
			SecretKey:     v.GetString("storage.s3.secret_key"),
			PresignExpiry: v.GetInt64("storage.s3.presign_expiry"),
		},
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.LLM = LLMConfig{
		Primary: LLMProviderConfig{
			Provider:     v.GetString("llm.primary.provider"),
			APIKey:       v.GetString("llm.primary.api_key"),
			DefaultModel: v.GetString("llm.primary.default_model"),
			MaxRetries:   v.GetInt("llm.primary.max_retries"),
			TimeoutSecs:  v.GetInt("llm.primary.timeout_secs"),
		},
		Secondary: LLMProviderConfig{
			Provider:     v.GetString("llm.secondary.provider"),
			APIKey:       v.GetString("llm.secondary.api_key"),
			DefaultModel: v.GetString("llm.secondary.default_model"),
			MaxRetries:   v.GetInt("llm.secondary.max_retries"),
			TimeoutSecs:  v.GetInt("llm.secondary.timeout_secs"),
		},
		Tertiary: LLMProviderConfig{
			Provider:     v.GetString("llm.tertiary.provider"),
			APIKey:       v.GetString("llm.tertiary.api_key"),
			DefaultModel: v.GetString("llm.tertiary.default_model"),
			MaxRetries:   v.GetInt("llm.tertiary.max_retries"),
			TimeoutSecs:  v.GetInt("llm.tertiary.timeout_secs"),
		},
	}

	cfg.Search = SearchConfig{
		APIKey:      v.GetString("search.api_key"),
		Depth:       v.GetString("search.depth"),
		MaxResults:  v.GetInt("search.max_results"),
		TimeoutSecs: v.GetInt("search.timeout_secs"),
	}
	cfg.Corpus = CorpusConfig{
		BaseURL:     v.GetString("corpus.base_url"),
		TopK:        v.GetInt("corpus.top_k"),
		TimeoutSecs: v.GetInt("corpus.timeout_secs"),
	}
	cfg.Segmenter = SegmenterConfig{
		BaseURL:     v.GetString("segmenter.base_url"),
		PlateRatio:  v.GetFloat64("segmenter.plate_ratio"),
		TimeoutSecs: v.GetInt("segmenter.timeout_secs"),
	}
	cfg.Pipeline = PipelineConfig{
		DataDir:             v.GetString("pipeline.data_dir"),
		MaxQuestions:        v.GetInt("pipeline.max_questions"),
		ConfidenceThreshold: v.GetFloat64("pipeline.confidence_threshold"),
		MinVolumeLitres:     v.GetFloat64("pipeline.min_volume_litres"),
		AnswerTimeout:       v.GetDuration("pipeline.answer_timeout"),
		StageTimeout:        v.GetDuration("pipeline.stage_timeout"),
	}
	cfg.Validation = ValidationConfig{
		DensityMin:          v.GetFloat64("validation.density_min"),
		DensityMax:          v.GetFloat64("validation.density_max"),
		DensityDefault:      v.GetFloat64("validation.density_default"),
		PercentageTolerance: v.GetFloat64("validation.percentage_tolerance"),
		MassTolerance:       v.GetFloat64("validation.mass_tolerance"),
		ReviewMinConfidence: v.GetFloat64("validation.review_min_confidence"),
		ReviewMaxDeviation:  v.GetFloat64("validation.review_max_deviation"),
	}

	return cfg, nil
}
