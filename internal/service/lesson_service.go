package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/englishmastery-api/internal/dto"
	"github.com/noah-isme/englishmastery-api/internal/models"
	"github.com/noah-isme/englishmastery-api/internal/repository"
)

var (
	// ErrLessonNotFound indicates the referenced lesson does not exist.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrLessonSlugTaken indicates another lesson already uses the slug.
	ErrLessonSlugTaken = errors.New("lesson slug already exists")
)

// LessonService manages the catalogue of video lessons.
type LessonService interface {
	List(ctx context.Context, req dto.LessonListRequest) (dto.LessonListResponse, error)
	GetBySlug(ctx context.Context, slug string) (dto.LessonResponse, error)
	Create(ctx context.Context, createdBy uint, req dto.LessonCreateRequest) (dto.LessonResponse, error)
}

type lessonService struct {
	repo      repository.LessonRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(repo repository.LessonRepository, validate *validator.Validate, logger zerolog.Logger) LessonService {
	return &lessonService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "lesson_service").Logger(),
	}
}

func (s *lessonService) List(ctx context.Context, req dto.LessonListRequest) (dto.LessonListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	items, total, err := s.repo.List(ctx, repository.LessonFilter{
		Level:    req.Level,
		Search:   req.Search,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.LessonListResponse{}, err
	}

	summaries := make([]dto.LessonSummary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, dto.NewLessonSummary(item))
	}

	return dto.LessonListResponse{
		Items:      summaries,
		Pagination: dto.NewPaginationMeta(page, pageSize, total),
	}, nil
}

func (s *lessonService) GetBySlug(ctx context.Context, slug string) (dto.LessonResponse, error) {
	lesson, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}
	return dto.NewLessonResponse(lesson), nil
}

func (s *lessonService) Create(ctx context.Context, createdBy uint, req dto.LessonCreateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LessonResponse{}, err
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return dto.LessonResponse{}, ErrLessonSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		Slug:       slug,
		Title:      plainText(s.sanitizer, req.Title),
		VideoURL:   strings.TrimSpace(req.VideoURL),
		Transcript: plainText(s.sanitizer, req.Transcript),
		Level:      req.Level,
		CreatedBy:  createdBy,
	}
	if lesson.Title == "" || lesson.Transcript == "" {
		return dto.LessonResponse{}, errors.New("lesson title and transcript must contain text")
	}

	if err := s.repo.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Str("slug", lesson.Slug).Uint("created_by", createdBy).Msg("lesson created")
	return dto.NewLessonResponse(lesson), nil
}
