package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/models"
	"github.com/noah-isme/englishmastery-api/internal/observability"
	"github.com/noah-isme/englishmastery-api/internal/repository"
)

const (
	excellentScore   = 80
	exceptionalScore = 90
)

// AchievementService awards badges for evaluation milestones.
type AchievementService interface {
	AwardFor(ctx context.Context, evaluation models.Evaluation) ([]models.Achievement, error)
	List(ctx context.Context, learnerID uint) ([]dto.AchievementResponse, error)
}

type achievementService struct {
	repo   repository.AchievementRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewAchievementService constructs the achievement service.
func NewAchievementService(repo repository.AchievementRepository, logger zerolog.Logger) AchievementService {
	return &achievementService{
		repo:   repo,
		logger: logger.With().Str("component", "achievement_service").Logger(),
		now:    time.Now,
	}
}

// AwardFor returns only the achievements newly unlocked by the evaluation.
func (s *achievementService) AwardFor(ctx context.Context, evaluation models.Evaluation) ([]models.Achievement, error) {
	awarded := make([]models.Achievement, 0, 2)
	for _, code := range earnedCodes(evaluation) {
		achievement := models.Achievement{
			LearnerID:    evaluation.LearnerID,
			Code:         code,
			EvaluationID: evaluation.ID,
			AwardedAt:    s.now().UTC(),
		}
		created, err := s.repo.Award(ctx, &achievement)
		if err != nil {
			return awarded, err
		}
		if !created {
			continue
		}

		observability.AchievementsAwarded().WithLabelValues(code).Inc()
		s.logger.Info().
			Uint("learner_id", evaluation.LearnerID).
			Str("code", code).
			Msg("achievement unlocked")
		awarded = append(awarded, achievement)
	}
	return awarded, nil
}

func (s *achievementService) List(ctx context.Context, learnerID uint) ([]dto.AchievementResponse, error) {
	items, err := s.repo.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return dto.NewAchievementResponseSlice(items), nil
}

func earnedCodes(evaluation models.Evaluation) []string {
	codes := []string{models.AchievementFirstEvaluation}

	if evaluation.Score >= excellentScore {
		switch evaluation.Mode {
		case models.EvaluationModeContentRewrite:
			codes = append(codes, models.AchievementExcellentRewrite)
		case models.EvaluationModeVideoPresentation:
			codes = append(codes, models.AchievementExcellentPresenter)
		}
	}
	if evaluation.Score >= exceptionalScore {
		codes = append(codes, models.AchievementExceptional)
	}
	return codes
}
