package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// LessonFilter filters lesson list queries.
type LessonFilter struct {
	Level    string
	Search   string
	Page     int
	PageSize int
}

// LessonRepository exposes persistence helpers for lessons.
type LessonRepository interface {
	List(ctx context.Context, filter LessonFilter) ([]models.Lesson, int64, error)
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	GetBySlug(ctx context.Context, slug string) (models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	UpsertBatch(ctx context.Context, lessons []models.Lesson) (int64, error)
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository constructs the repository implementation.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) List(ctx context.Context, filter LessonFilter) ([]models.Lesson, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Lesson{})

	if level := strings.ToLower(strings.TrimSpace(filter.Level)); level != "" {
		query = query.Where("level = ?", level)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE ? OR slug LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	var items []models.Lesson
	if err := query.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *lessonRepository) GetBySlug(ctx context.Context, slug string) (models.Lesson, error) {
	var lesson models.Lesson
	err := r.db.WithContext(ctx).
		Where("slug = ?", strings.ToLower(strings.TrimSpace(slug))).
		First(&lesson).Error
	if err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

// UpsertBatch inserts lessons, overwriting content of existing rows with the same slug.
func (r *lessonRepository) UpsertBatch(ctx context.Context, lessons []models.Lesson) (int64, error) {
	if len(lessons) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "video_url", "transcript", "level", "updated_at"}),
	}).Create(&lessons)
	return result.RowsAffected, result.Error
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
