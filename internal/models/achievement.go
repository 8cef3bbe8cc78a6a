package models

import "time"

// Achievement codes awarded by the evaluation pipeline.
const (
	AchievementFirstEvaluation    = "first_evaluation"
	AchievementExcellentRewrite   = "excellent_rewrite"
	AchievementExcellentPresenter = "excellent_presenter"
	AchievementExceptional        = "exceptional"
)

// Achievement records a badge earned by a learner. A learner holds each code at most once.
type Achievement struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LearnerID    uint      `gorm:"not null;uniqueIndex:idx_achievement_learner_code" json:"learner_id"`
	Code         string    `gorm:"size:64;not null;uniqueIndex:idx_achievement_learner_code" json:"code"`
	EvaluationID uint      `gorm:"index" json:"evaluation_id"`
	AwardedAt    time.Time `json:"awarded_at"`
}
