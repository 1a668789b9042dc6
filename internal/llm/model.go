// Package llm constructs chat model clients for hosted OpenAI-compatible APIs.
package llm

import (
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrInvalidConfig indicates invalid model configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds configuration for a chat model client.
type Config struct {
	// BaseURL is the API base URL.
	// Default: "https://api.openai.com/v1"
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// Model is the chat model name.
	// Default: "gpt-4o-mini"
	Model string

	// Temperature controls sampling randomness in [0,2].
	Temperature float64
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key required", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature must be in [0,2], got %f", ErrInvalidConfig, c.Temperature)
	}
	return nil
}

// New creates a chat model client from the configuration.
//
// Any endpoint speaking the OpenAI chat completions API works, including
// proxies and self-hosted gateways, by pointing BaseURL at it.
func New(cfg Config) (llms.Model, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat model client: %w", err)
	}
	return client, nil
}
