package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/repository"
	"github.com/noah-isme/englishmastery-api/pkg/ai"
)

const recentEvaluationLimit = 5

// ProgressService produces per-learner score summaries.
type ProgressService interface {
	GetProgress(ctx context.Context, learnerID uint) (dto.ProgressResponse, error)
	Invalidate(ctx context.Context, learnerID uint)
}

type progressService struct {
	evaluations repository.EvaluationRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewProgressService builds the progress aggregator. A nil cache disables caching.
func NewProgressService(evaluations repository.EvaluationRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	return &progressService{
		evaluations: evaluations,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "progress_service").Logger(),
	}
}

func progressCacheKey(learnerID uint) string {
	return fmt.Sprintf("progress:learner:%d", learnerID)
}

func (s *progressService) GetProgress(ctx context.Context, learnerID uint) (dto.ProgressResponse, error) {
	cacheKey := progressCacheKey(learnerID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("learner_id", learnerID).Msg("progress cache hit")
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	stats, err := s.evaluations.Stats(ctx, learnerID)
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	recent, _, err := s.evaluations.List(ctx, repository.EvaluationFilter{
		LearnerID: learnerID,
		Page:      1,
		PageSize:  recentEvaluationLimit,
	})
	if err != nil {
		return dto.ProgressResponse{}, err
	}

	response := buildProgress(stats)
	response.Recent = dto.NewEvaluationResponseSlice(recent)

	if s.cache != nil && s.cacheTTL > 0 {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) Invalidate(ctx context.Context, learnerID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, progressCacheKey(learnerID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("learner_id", learnerID).Msg("failed to invalidate progress cache")
	}
}

func buildProgress(stats []repository.EvaluationStats) dto.ProgressResponse {
	response := dto.ProgressResponse{Modes: make([]dto.ModeProgress, 0, len(stats))}

	var weighted float64
	for _, stat := range stats {
		response.TotalEvaluations += stat.Count
		weighted += stat.AverageScore * float64(stat.Count)
		response.Modes = append(response.Modes, dto.ModeProgress{
			Mode:         stat.Mode,
			Evaluations:  stat.Count,
			AverageScore: roundScore(stat.AverageScore),
			BestScore:    stat.BestScore,
			Band:         ai.BandFor(stat.AverageScore),
		})
	}

	if response.TotalEvaluations > 0 {
		average := weighted / float64(response.TotalEvaluations)
		response.AverageScore = roundScore(average)
		response.Band = ai.BandFor(average)
	}

	return response
}

func roundScore(v float64) float64 {
	return math.Round(v*10) / 10
}
