// ABOUTME: Embedding client for any OpenAI-compatible /embeddings endpoint
// ABOUTME: Ollama serves one at /v1; queries get one attempt, ingestion retries
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mawell/doc-assistant/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the default embedding model served by Ollama
	DefaultEmbeddingModel = "nomic-embed-text"
	// DefaultEmbeddingURL is Ollama's OpenAI-compatible base URL
	DefaultEmbeddingURL = "http://localhost:11434/v1"
)

// ErrEmbeddingUnavailable wraps every failure to obtain an embedding
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// EmbeddingConfig holds configuration for the embedding client
type EmbeddingConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultEmbeddingConfig returns the default client configuration
func DefaultEmbeddingConfig() *EmbeddingConfig {
	return &EmbeddingConfig{
		BaseURL:    DefaultEmbeddingURL,
		APIKey:     "ollama",
		Model:      DefaultEmbeddingModel,
		Timeout:    10 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// EmbeddingClient wraps the go-openai client
type EmbeddingClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewEmbeddingClient creates an embedding client from config
func NewEmbeddingClient(cfg *EmbeddingConfig) (*EmbeddingClient, error) {
	if cfg == nil {
		cfg = DefaultEmbeddingConfig()
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = cfg.BaseURL

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &EmbeddingClient{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		timeout:    timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Model returns the embedding model identifier
func (c *EmbeddingClient) Model() string {
	return c.model
}

// Embed encodes a single query. One attempt only: on the query path a
// failure falls through to lexical retrieval instead of waiting.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch encodes texts in order, retrying with exponential backoff
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Wait(ctx, c.retryDelay, attempt); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
			}
		}

		vectors, err := c.create(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
	}

	return nil, fmt.Errorf("failed to embed batch after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *EmbeddingClient) create(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", ErrEmbeddingUnavailable, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(texts) || vectors[idx] != nil {
			idx = i
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for input %d", ErrEmbeddingUnavailable, idx)
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}
