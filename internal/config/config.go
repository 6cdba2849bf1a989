/**
 * Configuration for the extraction/mapping engine worker.
 *
 * Loads configuration from environment variables.
 */
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds worker configuration.
type Config struct {
	// Queue
	RedisURL  string
	QueueName string

	// PostgreSQL
	DatabaseURL string

	// LLM provider (C2)
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// Object detector endpoint (C4)
	DetectorURL      string
	DetectorAPIKey   string
	DetectorsEnabled bool

	// PDF page rendering (C1); Open Question 4 resolves these as config, not constants
	RenderScale             float64
	ScaleXExtra             float64
	ScaleYExtra             float64
	OffsetX                 float64
	OffsetY                 float64
	TextConfidenceThreshold float64

	// Pipeline concurrency (C5)
	WorkerConcurrency   int
	MaxWorkers          int
	PagesPerThread      int
	MaxRetriesPerStage  int
	PipelineDeadlineSec int

	// Mapping (C8)
	MappingBatchSize          int
	MappingMaxParallelBatches int

	// Source adapters (§6)
	SourceFolderRoot string

	// Misc
	TempDir string
	NodeEnv string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		RedisURL:  getEnvOrDefault("REDIS_URL", "redis://127.0.0.1:6379"),
		QueueName: getEnvOrDefault("QUEUE_NAME", "document-processing"),

		DatabaseURL: getEnvOrThrow("DATABASE_URL"),

		LLMAPIKey:  getEnvOrThrow("LLM_API_KEY"),
		LLMBaseURL: getEnvOrDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LLMModel:   getEnvOrDefault("LLM_MODEL", "openai/gpt-4o"),

		DetectorURL:      getEnvOrDefault("DETECTOR_URL", ""),
		DetectorAPIKey:   getEnvOrDefault("DETECTOR_API_KEY", ""),
		DetectorsEnabled: getEnvAsBoolOrDefault("DETECTORS_ENABLED", false),

		RenderScale:             getEnvAsFloatOrDefault("RENDER_SCALE", 5.0), // 5x native -> >=300 DPI
		ScaleXExtra:             getEnvAsFloatOrDefault("COORD_SCALE_X_EXTRA", 1.0),
		ScaleYExtra:             getEnvAsFloatOrDefault("COORD_SCALE_Y_EXTRA", 1.0),
		OffsetX:                 getEnvAsFloatOrDefault("COORD_OFFSET_X", 0.0),
		OffsetY:                 getEnvAsFloatOrDefault("COORD_OFFSET_Y", 0.0),
		TextConfidenceThreshold: getEnvAsFloatOrDefault("TEXT_CONFIDENCE_THRESHOLD", 0.6),

		WorkerConcurrency:   getEnvAsIntOrDefault("WORKER_CONCURRENCY", 10),
		MaxWorkers:          getEnvAsIntOrDefault("MAX_WORKERS", 8),
		PagesPerThread:      getEnvAsIntOrDefault("PAGES_PER_THREAD", 1),
		MaxRetriesPerStage:  getEnvAsIntOrDefault("MAX_RETRIES_PER_STAGE", 1),
		PipelineDeadlineSec: getEnvAsIntOrDefault("PIPELINE_DEADLINE_SECONDS", 600), // 10 minutes

		MappingBatchSize:          getEnvAsIntOrDefault("MAPPING_BATCH_SIZE", 20),
		MappingMaxParallelBatches: getEnvAsIntOrDefault("MAPPING_MAX_PARALLEL_BATCHES", 3),

		SourceFolderRoot: getEnvOrDefault("SOURCE_FOLDER_ROOT", "/tmp/extraction-inbox"),

		TempDir: getEnvOrDefault("TEMP_DIR", "/tmp/extraction-engine"),
		NodeEnv: getEnvOrDefault("NODE_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.MaxWorkers < 1 {
		return fmt.Errorf("MAX_WORKERS must be at least 1, got %d", c.MaxWorkers)
	}

	if c.TextConfidenceThreshold < 0 || c.TextConfidenceThreshold > 1 {
		return fmt.Errorf("TEXT_CONFIDENCE_THRESHOLD must be in [0,1], got %f", c.TextConfidenceThreshold)
	}

	if c.MappingBatchSize < 1 {
		return fmt.Errorf("MAPPING_BATCH_SIZE must be at least 1, got %d", c.MappingBatchSize)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
