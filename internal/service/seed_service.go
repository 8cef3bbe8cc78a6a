package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/models"
	"github.com/noah-isme/englishmastery-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrSeedBatchSize indicates an empty batch or one above MaxSeedBatch.
	ErrSeedBatchSize = fmt.Errorf("seed batch must contain 1 to %d lessons", MaxSeedBatch)
)

// MaxSeedBatch bounds a single seeding request.
const MaxSeedBatch = 500

// SeedService loads lesson catalogues in bulk for new environments.
type SeedService interface {
	SeedLessons(ctx context.Context, token string, items []dto.LessonCreateRequest) (int64, error)
}

type seedService struct {
	lessons   repository.LessonRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(lessons repository.LessonRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		lessons:   lessons,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedLessons(ctx context.Context, token string, items []dto.LessonCreateRequest) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	if len(items) == 0 || len(items) > MaxSeedBatch {
		return 0, ErrSeedBatchSize
	}

	lessons := make([]models.Lesson, 0, len(items))
	for i, item := range items {
		if err := s.validator.Struct(item); err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		lessons = append(lessons, models.Lesson{
			Slug:       strings.ToLower(strings.TrimSpace(item.Slug)),
			Title:      plainText(s.sanitizer, item.Title),
			VideoURL:   strings.TrimSpace(item.VideoURL),
			Transcript: plainText(s.sanitizer, item.Transcript),
			Level:      item.Level,
		})
	}

	affected, err := s.lessons.UpsertBatch(ctx, lessons)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("lessons seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}
