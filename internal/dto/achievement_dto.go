package dto

import (
	"time"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// AchievementResponse describes an earned badge.
type AchievementResponse struct {
	Code         string    `json:"code"`
	Title        string    `json:"title"`
	EvaluationID uint      `json:"evaluation_id"`
	AwardedAt    time.Time `json:"awarded_at"`
}

var achievementTitles = map[string]string{
	models.AchievementFirstEvaluation:    "First Steps",
	models.AchievementExcellentRewrite:   "Wordsmith",
	models.AchievementExcellentPresenter: "Confident Presenter",
	models.AchievementExceptional:        "Exceptional Work",
}

// NewAchievementResponse converts a model into a DTO.
func NewAchievementResponse(model models.Achievement) AchievementResponse {
	title, ok := achievementTitles[model.Code]
	if !ok {
		title = model.Code
	}
	return AchievementResponse{
		Code:         model.Code,
		Title:        title,
		EvaluationID: model.EvaluationID,
		AwardedAt:    model.AwardedAt,
	}
}

// NewAchievementResponseSlice converts a slice of models into DTOs.
func NewAchievementResponseSlice(items []models.Achievement) []AchievementResponse {
	out := make([]AchievementResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewAchievementResponse(item))
	}
	return out
}
