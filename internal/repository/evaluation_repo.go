package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// EvaluationFilter narrows a learner's evaluation history.
type EvaluationFilter struct {
	LearnerID uint
	Mode      string
	Page      int
	PageSize  int
}

// EvaluationStats aggregates a learner's scores for one mode.
type EvaluationStats struct {
	Mode         string
	Count        int64
	AverageScore float64
	BestScore    float64
}

// EvaluationRepository exposes persistence helpers for evaluations.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *models.Evaluation) error
	GetByID(ctx context.Context, id uint) (models.Evaluation, error)
	List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error)
	Stats(ctx context.Context, learnerID uint) ([]EvaluationStats, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository constructs the repository implementation.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *models.Evaluation) error {
	return r.db.WithContext(ctx).Omit("Lesson").Create(evaluation).Error
}

func (r *evaluationRepository) GetByID(ctx context.Context, id uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	err := r.db.WithContext(ctx).
		Preload("Lesson").
		First(&evaluation, id).Error
	if err != nil {
		return models.Evaluation{}, err
	}
	return evaluation, nil
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]models.Evaluation, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Evaluation{}).Where("learner_id = ?", filter.LearnerID)
	if mode := strings.TrimSpace(filter.Mode); mode != "" {
		query = query.Where("mode = ?", mode)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var items []models.Evaluation
	if err := query.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *evaluationRepository) Stats(ctx context.Context, learnerID uint) ([]EvaluationStats, error) {
	var stats []EvaluationStats
	err := r.db.WithContext(ctx).
		Model(&models.Evaluation{}).
		Select("mode, COUNT(*) AS count, AVG(score) AS average_score, MAX(score) AS best_score").
		Where("learner_id = ?", learnerID).
		Group("mode").
		Order("mode").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
