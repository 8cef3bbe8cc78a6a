package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProviderConfig selects and configures the model client.
type ProviderConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Retry       RetryConfig
	Logger      zerolog.Logger
}

// NamedClient is a ModelClient that reports the model it targets.
type NamedClient interface {
	ModelClient
	Model() string
}

// NewModelClient constructs the client for cfg.Provider. A missing
// credential yields a ConfigurationError.
func NewModelClient(ctx context.Context, cfg ProviderConfig) (NamedClient, error) {
	httpClient := NewHTTPClient(cfg.Retry, cfg.Logger)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", providerGemini:
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:          cfg.APIKey,
			Model:           cfg.Model,
			BaseURL:         cfg.BaseURL,
			MaxOutputTokens: int32(cfg.MaxTokens),
			Temperature:     cfg.Temperature,
			HTTPClient:      httpClient,
			Logger:          cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case providerOpenAI:
		client, err := NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			HTTPClient:  httpClient,
			Logger:      cfg.Logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported ai provider %q", cfg.Provider)}
	}
}

// DefaultRetry is the transport retry policy used when none is configured.
func DefaultRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, WaitMin: 500 * time.Millisecond, WaitMax: 5 * time.Second}
}
