// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing and validation
package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment to test defaults
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.EmbeddingModel != "nomic-embed-text" {
		t.Errorf("EmbeddingModel = %s, want nomic-embed-text", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingURL != "http://localhost:11434/v1" {
		t.Errorf("EmbeddingURL = %s, want http://localhost:11434/v1", cfg.EmbeddingURL)
	}
	if cfg.IndexPath != "data/index.vec" {
		t.Errorf("IndexPath = %s, want data/index.vec", cfg.IndexPath)
	}
	if cfg.ChunkPath != "data/chunks.db" {
		t.Errorf("ChunkPath = %s, want data/chunks.db", cfg.ChunkPath)
	}
	if cfg.CompletionURL != "http://localhost:11434/api/generate" {
		t.Errorf("CompletionURL = %s, want http://localhost:11434/api/generate", cfg.CompletionURL)
	}
	if cfg.CompletionModel != "mistral" {
		t.Errorf("CompletionModel = %s, want mistral", cfg.CompletionModel)
	}
	if cfg.CompletionTimeout != 30*time.Second {
		t.Errorf("CompletionTimeout = %v, want 30s", cfg.CompletionTimeout)
	}
	if cfg.MaxDistance != 0.65 {
		t.Errorf("MaxDistance = %f, want 0.65", cfg.MaxDistance)
	}
	if cfg.TopK != 4 {
		t.Errorf("TopK = %d, want 4", cfg.TopK)
	}
	if cfg.FallbackMode {
		t.Error("FallbackMode = true, want false")
	}
	if cfg.LexiconPath != "" {
		t.Errorf("LexiconPath = %s, want empty", cfg.LexiconPath)
	}
	if cfg.IngestConcurrency != 4 {
		t.Errorf("IngestConcurrency = %d, want 4", cfg.IngestConcurrency)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if !cfg.EmbeddingEnabled() {
		t.Error("EmbeddingEnabled() = false, want true")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	os.Setenv("EMBEDDING_MODEL_NAME", "mxbai-embed-large")
	os.Setenv("EMBEDDING_TIMEOUT", "5s")
	os.Setenv("VECTOR_DB_INDEX", "/srv/mawell/index.vec")
	os.Setenv("VECTOR_DB_DOCS", "/srv/mawell/chunks.db")
	os.Setenv("OLLAMA_API_URL", "http://ollama:11434/api/generate")
	os.Setenv("OLLAMA_MODEL_NAME", "llama3")
	os.Setenv("COMPLETION_TIMEOUT", "45s")
	os.Setenv("COMPLETION_MAX_TOKENS", "256")
	os.Setenv("MAX_DISTANCE_THRESHOLD", "0.85")
	os.Setenv("RETRIEVAL_TOP_K", "6")
	os.Setenv("FALLBACK_MODE", "true")
	os.Setenv("LEXICON_PATH", "/etc/mawell/lexicon.yaml")
	os.Setenv("LOG_JSON", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.EmbeddingModel != "mxbai-embed-large" {
		t.Errorf("EmbeddingModel = %s, want mxbai-embed-large", cfg.EmbeddingModel)
	}
	if cfg.EmbeddingTimeout != 5*time.Second {
		t.Errorf("EmbeddingTimeout = %v, want 5s", cfg.EmbeddingTimeout)
	}
	if cfg.IndexPath != "/srv/mawell/index.vec" {
		t.Errorf("IndexPath = %s, want /srv/mawell/index.vec", cfg.IndexPath)
	}
	if cfg.ChunkPath != "/srv/mawell/chunks.db" {
		t.Errorf("ChunkPath = %s, want /srv/mawell/chunks.db", cfg.ChunkPath)
	}
	if cfg.CompletionURL != "http://ollama:11434/api/generate" {
		t.Errorf("CompletionURL = %s", cfg.CompletionURL)
	}
	if cfg.CompletionModel != "llama3" {
		t.Errorf("CompletionModel = %s, want llama3", cfg.CompletionModel)
	}
	if cfg.CompletionTimeout != 45*time.Second {
		t.Errorf("CompletionTimeout = %v, want 45s", cfg.CompletionTimeout)
	}
	if cfg.CompletionMaxTokens != 256 {
		t.Errorf("CompletionMaxTokens = %d, want 256", cfg.CompletionMaxTokens)
	}
	if cfg.MaxDistance != 0.85 {
		t.Errorf("MaxDistance = %f, want 0.85", cfg.MaxDistance)
	}
	if cfg.TopK != 6 {
		t.Errorf("TopK = %d, want 6", cfg.TopK)
	}
	if !cfg.FallbackMode {
		t.Error("FallbackMode = false, want true")
	}
	if cfg.EmbeddingEnabled() {
		t.Error("EmbeddingEnabled() = true in fallback mode, want false")
	}
	if cfg.LexiconPath != "/etc/mawell/lexicon.yaml" {
		t.Errorf("LexiconPath = %s", cfg.LexiconPath)
	}
	if !cfg.LogJSON {
		t.Error("LogJSON = false, want true")
	}
}

func TestLoad_InvalidValueFails(t *testing.T) {
	os.Clearenv()
	os.Setenv("RETRIEVAL_TOP_K", "0")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail for RETRIEVAL_TOP_K=0")
	}
}

func validConfig() *Config {
	return &Config{
		CompletionTimeout:     time.Second,
		CompletionTemperature: 0.3,
		CompletionTopP:        0.9,
		CompletionMaxTokens:   100,
		MaxDistance:           0.65,
		TopK:                  4,
		EmbeddingMaxRetries:   3,
		IngestConcurrency:     2,
		IngestBatchSize:       8,
		LogLevel:              "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero distance", func(c *Config) { c.MaxDistance = 0 }, true},
		{"top k too large", func(c *Config) { c.TopK = 51 }, true},
		{"temperature too high", func(c *Config) { c.CompletionTemperature = 2.5 }, true},
		{"top p above one", func(c *Config) { c.CompletionTopP = 1.1 }, true},
		{"no max tokens", func(c *Config) { c.CompletionMaxTokens = 0 }, true},
		{"no completion timeout", func(c *Config) { c.CompletionTimeout = 0 }, true},
		{"too many retries", func(c *Config) { c.EmbeddingMaxRetries = 15 }, true},
		{"negative retries", func(c *Config) { c.EmbeddingMaxRetries = -1 }, true},
		{"no ingest workers", func(c *Config) { c.IngestConcurrency = 0 }, true},
		{"huge batch", func(c *Config) { c.IngestBatchSize = 1000 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, true},
		{"warning log level", func(c *Config) { c.LogLevel = "WARNING" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		defaultVal bool
		want       bool
	}{
		{"empty uses default true", "", true, true},
		{"empty uses default false", "", false, false},
		{"true", "true", false, true},
		{"1", "1", false, true},
		{"false", "false", true, false},
		{"0", "0", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv("TEST_BOOL", tt.value)
			}
			got := getEnvBool("TEST_BOOL", tt.defaultVal)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvNumbers_IgnoreGarbage(t *testing.T) {
	os.Clearenv()
	os.Setenv("TEST_INT", "many")
	os.Setenv("TEST_FLOAT", "high")
	os.Setenv("TEST_DURATION", "soon")

	if got := getEnvInt("TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt() = %d, want 7", got)
	}
	if got := getEnvFloat("TEST_FLOAT", 0.5); got != 0.5 {
		t.Errorf("getEnvFloat() = %f, want 0.5", got)
	}
	if got := getEnvDuration("TEST_DURATION", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() = %v, want 1m", got)
	}
}
