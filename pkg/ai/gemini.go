package ai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiConfig defines configuration options for the Gemini model client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	MaxOutputTokens int32
	Temperature     float32
	HTTPClient      *http.Client
	Logger          zerolog.Logger
}

// GeminiClient implements ModelClient against the Google generative language API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ ModelClient = (*GeminiClient)(nil)

// NewGeminiClient builds a Gemini client. The credential is checked before any
// network activity.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{Reason: "gemini api key is required"}
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 1024
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, &ConfigurationError{Reason: "gemini client: " + err.Error()}
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/englishmastery-api/pkg/ai/gemini"),
		logger: cfg.Logger.With().Str("component", "gemini_client").Logger(),
	}, nil
}

// Generate sends the prompt and concatenates the text parts of the first candidate.
func (c *GeminiClient) Generate(parent context.Context, prompt string) (string, error) {
	ctx, span := c.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.Int("prompt.length", len(prompt)),
	))
	defer span.End()

	temperature := c.cfg.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	modelDuration.WithLabelValues(providerGemini, c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		modelFailures.WithLabelValues(providerGemini, c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", &TransportError{Provider: providerGemini, Err: err}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.logger.Warn().Str("model", c.cfg.Model).Msg("gemini returned no candidates")
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// Model returns the model identifier used for requests.
func (c *GeminiClient) Model() string {
	return c.cfg.Model
}
