package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/models"
	"github.com/noah-isme/englishmastery-api/internal/repository"
	"github.com/noah-isme/englishmastery-api/pkg/ai"
)

var (
	// ErrEvaluationNotFound indicates the evaluation does not exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")
	// ErrEvaluationForbidden indicates the caller may not read the evaluation.
	ErrEvaluationForbidden = errors.New("evaluation belongs to another learner")
	// ErrEmptySubmission indicates the submitted text was empty once markup was removed.
	ErrEmptySubmission = errors.New("submission contains no text")
)

// EvaluationService grades learner submissions and keeps their history.
type EvaluationService interface {
	EvaluateContent(ctx context.Context, learnerID uint, req dto.ContentEvaluationRequest) (dto.EvaluationOutcome, error)
	EvaluatePresentation(ctx context.Context, learnerID uint, req dto.PresentationEvaluationRequest) (dto.EvaluationOutcome, error)
	List(ctx context.Context, learnerID uint, req dto.EvaluationListRequest) (dto.EvaluationListResponse, error)
	Get(ctx context.Context, id, requesterID uint, role string) (dto.EvaluationResponse, error)
}

// EvaluationServiceConfig labels stored evaluations with the model that produced them.
type EvaluationServiceConfig struct {
	Provider string
	Model    string
}

// EvaluationDependencies groups the collaborators of the evaluation service.
type EvaluationDependencies struct {
	Evaluator    ai.Evaluator
	Evaluations  repository.EvaluationRepository
	Lessons      repository.LessonRepository
	Quota        QuotaService
	Achievements AchievementService
	Events       EventPublisher
	Progress     ProgressService
	Validator    *validator.Validate
}

type evaluationService struct {
	evaluator    ai.Evaluator
	evaluations  repository.EvaluationRepository
	lessons      repository.LessonRepository
	quota        QuotaService
	achievements AchievementService
	events       EventPublisher
	progress     ProgressService
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	cfg          EvaluationServiceConfig
	logger       zerolog.Logger
	tracer       trace.Tracer
}

type submission struct {
	mode         ai.Mode
	lessonID     *uint
	reference    string
	candidate    string
	recordingURL string
}

// NewEvaluationService constructs the evaluation service.
func NewEvaluationService(deps EvaluationDependencies, cfg EvaluationServiceConfig, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		evaluator:    deps.Evaluator,
		evaluations:  deps.Evaluations,
		lessons:      deps.Lessons,
		quota:        deps.Quota,
		achievements: deps.Achievements,
		events:       deps.Events,
		progress:     deps.Progress,
		validator:    deps.Validator,
		sanitizer:    bluemonday.StrictPolicy(),
		cfg:          cfg,
		logger:       logger.With().Str("component", "evaluation_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/englishmastery-api/internal/service/evaluation"),
	}
}

func (s *evaluationService) EvaluateContent(ctx context.Context, learnerID uint, req dto.ContentEvaluationRequest) (dto.EvaluationOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluationOutcome{}, err
	}
	return s.run(ctx, learnerID, submission{
		mode:      ai.ModeContentRewrite,
		lessonID:  req.LessonID,
		reference: req.ReferenceText,
		candidate: req.CandidateText,
	})
}

func (s *evaluationService) EvaluatePresentation(ctx context.Context, learnerID uint, req dto.PresentationEvaluationRequest) (dto.EvaluationOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluationOutcome{}, err
	}
	return s.run(ctx, learnerID, submission{
		mode:         ai.ModeVideoPresentation,
		lessonID:     req.LessonID,
		reference:    req.ReferenceText,
		candidate:    req.Transcript,
		recordingURL: strings.TrimSpace(req.RecordingURL),
	})
}

func (s *evaluationService) run(ctx context.Context, learnerID uint, sub submission) (dto.EvaluationOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "evaluation.submit", trace.WithAttributes(
		attribute.String("evaluation.mode", string(sub.mode)),
		attribute.Int("evaluation.learner_id", int(learnerID)),
	))
	defer span.End()

	fail := func(err error) (dto.EvaluationOutcome, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.EvaluationOutcome{}, err
	}

	reference, err := s.resolveReference(ctx, sub)
	if err != nil {
		return fail(err)
	}
	candidate := plainText(s.sanitizer, sub.candidate)
	if candidate == "" || reference == "" {
		return fail(ErrEmptySubmission)
	}

	reservation, err := s.quota.Consume(ctx, learnerID)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("evaluation.quota_remaining", reservation.Remaining))

	var result ai.EvaluationResult
	switch sub.mode {
	case ai.ModeVideoPresentation:
		result, err = s.evaluator.EvaluatePresentation(ctx, reference, candidate)
	default:
		result, err = s.evaluator.CompareContent(ctx, reference, candidate)
	}
	if err != nil {
		s.quota.Release(ctx, reservation)
		s.logger.Warn().
			Err(err).
			Uint("learner_id", learnerID).
			Str("mode", string(sub.mode)).
			Bool("retryable", ai.IsRetryable(err)).
			Msg("evaluation failed")
		return fail(err)
	}

	evaluation := models.Evaluation{
		LearnerID:        learnerID,
		LessonID:         sub.lessonID,
		Mode:             string(sub.mode),
		CandidateText:    candidate,
		RecordingURL:     sub.recordingURL,
		Score:            result.Score,
		Band:             ai.BandFor(result.Score),
		Feedback:         result.Feedback,
		GrammarScore:     result.GrammarScore,
		ContentScore:     result.ContentScore,
		OriginalityScore: result.OriginalityScore,
		Strengths:        result.Strengths,
		Weaknesses:       result.Weaknesses,
		Provider:         s.cfg.Provider,
		Model:            s.cfg.Model,
	}
	if err := s.evaluations.Create(ctx, &evaluation); err != nil {
		return fail(err)
	}
	span.SetAttributes(
		attribute.Int("evaluation.id", int(evaluation.ID)),
		attribute.Float64("evaluation.score", evaluation.Score),
	)
	if s.progress != nil {
		s.progress.Invalidate(ctx, learnerID)
	}

	unlocked, err := s.achievements.AwardFor(ctx, evaluation)
	if err != nil {
		s.logger.Error().Err(err).Uint("evaluation_id", evaluation.ID).Msg("failed to award achievements")
	}

	unlockedCodes := make([]string, 0, len(unlocked))
	for _, achievement := range unlocked {
		unlockedCodes = append(unlockedCodes, achievement.Code)
	}
	if err := s.events.PublishEvaluationCompleted(ctx, EvaluationCompletedEvent{
		EvaluationID: evaluation.ID,
		LearnerID:    learnerID,
		LessonID:     evaluation.LessonID,
		Mode:         evaluation.Mode,
		Score:        evaluation.Score,
		Band:         evaluation.Band,
		Achievements: unlockedCodes,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("evaluation_id", evaluation.ID).Msg("failed to publish evaluation event")
	}

	s.logger.Info().
		Uint("evaluation_id", evaluation.ID).
		Uint("learner_id", learnerID).
		Str("mode", evaluation.Mode).
		Float64("score", evaluation.Score).
		Msg("evaluation stored")

	return dto.EvaluationOutcome{
		Evaluation:   dto.NewEvaluationResponse(evaluation),
		Achievements: dto.NewAchievementResponseSlice(unlocked),
	}, nil
}

// resolveReference prefers the lesson transcript over inline reference text.
func (s *evaluationService) resolveReference(ctx context.Context, sub submission) (string, error) {
	if sub.lessonID == nil {
		return plainText(s.sanitizer, sub.reference), nil
	}

	lesson, err := s.lessons.GetByID(ctx, *sub.lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLessonNotFound
		}
		return "", err
	}
	return strings.TrimSpace(lesson.Transcript), nil
}

func (s *evaluationService) List(ctx context.Context, learnerID uint, req dto.EvaluationListRequest) (dto.EvaluationListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	mode := strings.TrimSpace(req.Mode)
	if mode != "" && !ai.Mode(mode).Valid() {
		return dto.EvaluationListResponse{}, &ai.ValidationError{Field: "mode", Reason: "unsupported evaluation mode"}
	}

	items, total, err := s.evaluations.List(ctx, repository.EvaluationFilter{
		LearnerID: learnerID,
		Mode:      mode,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return dto.EvaluationListResponse{}, err
	}

	return dto.EvaluationListResponse{
		Items:      dto.NewEvaluationResponseSlice(items),
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *evaluationService) Get(ctx context.Context, id, requesterID uint, role string) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	switch strings.ToLower(strings.TrimSpace(role)) {
	case "teacher", "admin":
	default:
		if evaluation.LearnerID != requesterID {
			return dto.EvaluationResponse{}, ErrEvaluationForbidden
		}
	}

	return dto.NewEvaluationResponse(evaluation), nil
}
