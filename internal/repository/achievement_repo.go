package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// AchievementRepository exposes persistence helpers for learner achievements.
type AchievementRepository interface {
	// Award stores the achievement unless the learner already holds the code.
	// It reports whether a new row was written.
	Award(ctx context.Context, achievement *models.Achievement) (bool, error)
	ListByLearner(ctx context.Context, learnerID uint) ([]models.Achievement, error)
}

type achievementRepository struct {
	db *gorm.DB
}

// NewAchievementRepository constructs the repository implementation.
func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) Award(ctx context.Context, achievement *models.Achievement) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(achievement)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *achievementRepository) ListByLearner(ctx context.Context, learnerID uint) ([]models.Achievement, error) {
	var items []models.Achievement
	err := r.db.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("awarded_at ASC, id ASC").
		Find(&items).Error
	return items, err
}
