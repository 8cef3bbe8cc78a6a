package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTimeout = 30 * time.Second

// Config carries the evaluation settings resolved at process start.
type Config struct {
	APIKey  string
	Timeout time.Duration
	// EnforceWordLimits applies the rubric's word-count penalty locally in
	// addition to asking the model to apply it.
	EnforceWordLimits bool
}

// Service runs the evaluation pipeline: prompt, model call, extraction.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	cfg    Config
	client ModelClient
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ Evaluator = (*Service)(nil)

// NewService constructs an evaluation service. A nil client is allowed when
// the credential is absent; calls then fail with a ConfigurationError.
func NewService(cfg Config, client ModelClient, logger zerolog.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Service{
		cfg:    cfg,
		client: client,
		tracer: otel.Tracer("github.com/noah-isme/englishmastery-api/pkg/ai/service"),
		logger: logger.With().Str("component", "evaluation_pipeline").Logger(),
	}
}

// CompareContent grades a written rewrite against the reference transcript.
func (s *Service) CompareContent(ctx context.Context, reference, candidate string) (EvaluationResult, error) {
	return s.Evaluate(ctx, EvaluationRequest{
		ReferenceText: reference,
		CandidateText: candidate,
		Mode:          ModeContentRewrite,
	})
}

// EvaluatePresentation grades a spoken presentation transcript against the
// reference transcript.
func (s *Service) EvaluatePresentation(ctx context.Context, reference, transcript string) (EvaluationResult, error) {
	return s.Evaluate(ctx, EvaluationRequest{
		ReferenceText: reference,
		CandidateText: transcript,
		Mode:          ModeVideoPresentation,
	})
}

// Evaluate builds the prompt for the request, calls the model once and
// returns the validated result or the first failure.
func (s *Service) Evaluate(parent context.Context, req EvaluationRequest) (EvaluationResult, error) {
	ctx, span := s.tracer.Start(parent, "evaluation.evaluate", trace.WithAttributes(
		attribute.String("mode", string(req.Mode)),
	))
	defer span.End()

	result, err := s.evaluate(ctx, req)
	if err != nil {
		evaluationsTotal.WithLabelValues(string(req.Mode), outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Str("mode", string(req.Mode)).Msg("evaluation failed")
		return EvaluationResult{}, err
	}

	evaluationsTotal.WithLabelValues(string(req.Mode), "success").Inc()
	evaluationScores.WithLabelValues(string(req.Mode)).Observe(result.Score)
	span.SetAttributes(attribute.Float64("score", result.Score))
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, req EvaluationRequest) (EvaluationResult, error) {
	if strings.TrimSpace(s.cfg.APIKey) == "" || s.client == nil {
		return EvaluationResult{}, &ConfigurationError{Reason: "model api key is not configured"}
	}

	if err := validateRequest(req); err != nil {
		return EvaluationResult{}, err
	}

	prompt := BuildPrompt(req)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := s.client.Generate(callCtx, prompt)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return EvaluationResult{}, err
		}
		return EvaluationResult{}, &TransportError{Provider: "model", Err: err}
	}

	result, err := ExtractResult(raw)
	if err != nil {
		s.logger.Debug().Str("response", excerpt(raw)).Msg("unparseable model response")
		return EvaluationResult{}, err
	}

	if s.cfg.EnforceWordLimits {
		result = applyWordLimit(result, req)
	}

	return result, nil
}

func validateRequest(req EvaluationRequest) error {
	if !req.Mode.Valid() {
		return &ValidationError{Field: "mode", Reason: "unsupported mode " + string(req.Mode)}
	}
	if strings.TrimSpace(req.ReferenceText) == "" {
		return &ValidationError{Field: "referenceText", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.CandidateText) == "" {
		return &ValidationError{Field: "candidateText", Reason: "must not be empty"}
	}
	return nil
}

// applyWordLimit caps the overall score below 20 when the candidate is
// shorter than the mode's minimum word count.
func applyWordLimit(result EvaluationResult, req EvaluationRequest) EvaluationResult {
	const shortSubmissionCap = 19

	if len(strings.Fields(req.CandidateText)) < minWordsFor(req.Mode) && result.Score > shortSubmissionCap {
		result.Score = shortSubmissionCap
	}
	return result
}

func outcomeLabel(err error) string {
	var (
		cfgErr        *ConfigurationError
		transportErr  *TransportError
		extractionErr *ExtractionError
		validationErr *ValidationError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "configuration_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &extractionErr):
		return "extraction_error"
	case errors.As(err, &validationErr):
		return "validation_error"
	default:
		return "error"
	}
}
