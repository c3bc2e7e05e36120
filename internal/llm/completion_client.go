// ABOUTME: Completion client for an Ollama-style /api/generate endpoint
// ABOUTME: Single attempt with a bounded timeout; only HTTP 200 counts as success
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultCompletionURL is Ollama's generate endpoint
	DefaultCompletionURL = "http://localhost:11434/api/generate"
	// DefaultCompletionModel is the default completion model
	DefaultCompletionModel = "mistral"
)

// ErrCompletionUnavailable wraps transport errors, non-200 statuses and
// malformed bodies alike.
var ErrCompletionUnavailable = errors.New("completion unavailable")

// CompletionConfig holds configuration for the completion client
type CompletionConfig struct {
	URL         string
	Model       string
	Timeout     time.Duration
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// DefaultCompletionConfig returns the default completion configuration
func DefaultCompletionConfig() *CompletionConfig {
	return &CompletionConfig{
		URL:         DefaultCompletionURL,
		Model:       DefaultCompletionModel,
		Timeout:     30 * time.Second,
		Temperature: 0.3,
		TopP:        0.9,
		MaxTokens:   400,
	}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response *string `json:"response"`
}

// CompletionClient posts prompts to the completion endpoint
type CompletionClient struct {
	http *resty.Client
	cfg  CompletionConfig
}

// NewCompletionClient creates a completion client. Retries are disabled.
func NewCompletionClient(cfg *CompletionConfig) (*CompletionClient, error) {
	if cfg == nil {
		cfg = DefaultCompletionConfig()
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("completion URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("completion model is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("completion timeout must be positive")
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &CompletionClient{http: client, cfg: *cfg}, nil
}

// Model returns the completion model identifier
func (c *CompletionClient) Model() string {
	return c.cfg.Model
}

// Complete sends the prompt and returns the generated text
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(generateRequest{
			Model:  c.cfg.Model,
			Prompt: prompt,
			Stream: false,
			Options: generateOptions{
				Temperature: c.cfg.Temperature,
				TopP:        c.cfg.TopP,
				MaxTokens:   c.cfg.MaxTokens,
			},
		}).
		Post(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrCompletionUnavailable, resp.StatusCode())
	}

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("%w: malformed body: %v", ErrCompletionUnavailable, err)
	}
	if out.Response == nil {
		return "", fmt.Errorf("%w: body has no response field", ErrCompletionUnavailable)
	}
	return *out.Response, nil
}
