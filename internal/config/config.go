// ABOUTME: Centralized configuration for the document assistant
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the assistant
type Config struct {
	// Embedding settings
	EmbeddingModel      string
	EmbeddingURL        string
	EmbeddingKey        string
	EmbeddingTimeout    time.Duration
	EmbeddingMaxRetries int
	EmbeddingRetryDelay time.Duration

	// Chunk store files
	IndexPath string
	ChunkPath string

	// Completion endpoint settings
	CompletionURL         string
	CompletionModel       string
	CompletionTimeout     time.Duration
	CompletionTemperature float64
	CompletionTopP        float64
	CompletionMaxTokens   int

	// Retrieval settings
	MaxDistance  float64
	TopK         int
	FallbackMode bool
	LexiconPath  string

	// Ingestion settings
	IngestConcurrency int
	IngestBatchSize   int

	// Logging
	LogLevel string
	LogJSON  bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		EmbeddingModel:        getEnv("EMBEDDING_MODEL_NAME", "nomic-embed-text"),
		EmbeddingURL:          getEnv("EMBEDDING_API_URL", "http://localhost:11434/v1"),
		EmbeddingKey:          getEnv("EMBEDDING_API_KEY", "ollama"),
		EmbeddingTimeout:      getEnvDuration("EMBEDDING_TIMEOUT", 10*time.Second),
		EmbeddingMaxRetries:   getEnvInt("EMBEDDING_MAX_RETRIES", 3),
		EmbeddingRetryDelay:   getEnvDuration("EMBEDDING_RETRY_DELAY", time.Second),
		IndexPath:             getEnv("VECTOR_DB_INDEX", "data/index.vec"),
		ChunkPath:             getEnv("VECTOR_DB_DOCS", "data/chunks.db"),
		CompletionURL:         getEnv("OLLAMA_API_URL", "http://localhost:11434/api/generate"),
		CompletionModel:       getEnv("OLLAMA_MODEL_NAME", "mistral"),
		CompletionTimeout:     getEnvDuration("COMPLETION_TIMEOUT", 30*time.Second),
		CompletionTemperature: getEnvFloat("COMPLETION_TEMPERATURE", 0.3),
		CompletionTopP:        getEnvFloat("COMPLETION_TOP_P", 0.9),
		CompletionMaxTokens:   getEnvInt("COMPLETION_MAX_TOKENS", 400),
		MaxDistance:           getEnvFloat("MAX_DISTANCE_THRESHOLD", 0.65),
		TopK:                  getEnvInt("RETRIEVAL_TOP_K", 4),
		FallbackMode:          getEnvBool("FALLBACK_MODE", false),
		LexiconPath:           os.Getenv("LEXICON_PATH"),
		IngestConcurrency:     getEnvInt("INGEST_CONCURRENCY", 4),
		IngestBatchSize:       getEnvInt("INGEST_BATCH_SIZE", 16),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogJSON:               getEnvBool("LOG_JSON", false),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxDistance <= 0 {
		return fmt.Errorf("MAX_DISTANCE_THRESHOLD must be positive, got %f", c.MaxDistance)
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be 1-50, got %d", c.TopK)
	}
	if c.CompletionTemperature < 0 || c.CompletionTemperature > 2 {
		return fmt.Errorf("COMPLETION_TEMPERATURE must be 0-2, got %f", c.CompletionTemperature)
	}
	if c.CompletionTopP < 0 || c.CompletionTopP > 1 {
		return fmt.Errorf("COMPLETION_TOP_P must be 0-1, got %f", c.CompletionTopP)
	}
	if c.CompletionMaxTokens <= 0 {
		return fmt.Errorf("COMPLETION_MAX_TOKENS must be positive, got %d", c.CompletionMaxTokens)
	}
	if c.CompletionTimeout <= 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT must be positive, got %v", c.CompletionTimeout)
	}
	if c.EmbeddingMaxRetries < 0 || c.EmbeddingMaxRetries > 10 {
		return fmt.Errorf("EMBEDDING_MAX_RETRIES must be 0-10, got %d", c.EmbeddingMaxRetries)
	}
	if c.IngestConcurrency < 1 || c.IngestConcurrency > 64 {
		return fmt.Errorf("INGEST_CONCURRENCY must be 1-64, got %d", c.IngestConcurrency)
	}
	if c.IngestBatchSize < 1 || c.IngestBatchSize > 512 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be 1-512, got %d", c.IngestBatchSize)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// EmbeddingEnabled reports whether the vector path should be attempted
func (c *Config) EmbeddingEnabled() bool {
	return !c.FallbackMode && c.EmbeddingURL != ""
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
