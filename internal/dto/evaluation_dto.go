package dto

import (
	"time"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// ContentEvaluationRequest is the payload for grading a written rewrite.
// Either LessonID or ReferenceText must identify the reference material.
type ContentEvaluationRequest struct {
	LessonID      *uint  `json:"lesson_id" validate:"omitempty,gt=0"`
	ReferenceText string `json:"reference_text" validate:"required_without=LessonID,max=20000"`
	CandidateText string `json:"candidate_text" validate:"required,max=20000"`
}

// PresentationEvaluationRequest is the payload for grading a spoken presentation transcript.
type PresentationEvaluationRequest struct {
	LessonID      *uint  `json:"lesson_id" validate:"omitempty,gt=0"`
	ReferenceText string `json:"reference_text" validate:"required_without=LessonID,max=20000"`
	Transcript    string `json:"transcript" validate:"required,max=40000"`
	RecordingURL  string `json:"recording_url" validate:"omitempty,url,max=512"`
}

// EvaluationListRequest filters the caller's evaluation history.
type EvaluationListRequest struct {
	Page     int
	PageSize int
	Mode     string
}

// EvaluationResponse is the serialized form of a stored evaluation.
type EvaluationResponse struct {
	ID               uint      `json:"id"`
	LearnerID        uint      `json:"learner_id"`
	LessonID         *uint     `json:"lesson_id"`
	LessonTitle      string    `json:"lesson_title,omitempty"`
	Mode             string    `json:"mode"`
	Score            float64   `json:"score"`
	Band             string    `json:"band"`
	Feedback         string    `json:"feedback"`
	Strengths        []string  `json:"strengths"`
	Weaknesses       []string  `json:"weaknesses"`
	GrammarScore     float64   `json:"grammar_score"`
	ContentScore     float64   `json:"content_score"`
	OriginalityScore float64   `json:"originality_score"`
	RecordingURL     string    `json:"recording_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// EvaluationOutcome bundles a new evaluation with the achievements it unlocked.
type EvaluationOutcome struct {
	Evaluation   EvaluationResponse    `json:"evaluation"`
	Achievements []AchievementResponse `json:"achievements"`
}

// EvaluationListResponse contains a page of evaluations.
type EvaluationListResponse struct {
	Items      []EvaluationResponse `json:"items"`
	Pagination PaginationMeta       `json:"pagination"`
}

// NewEvaluationResponse converts a model into a DTO.
func NewEvaluationResponse(model models.Evaluation) EvaluationResponse {
	strengths := model.Strengths
	if strengths == nil {
		strengths = []string{}
	}
	weaknesses := model.Weaknesses
	if weaknesses == nil {
		weaknesses = []string{}
	}

	response := EvaluationResponse{
		ID:               model.ID,
		LearnerID:        model.LearnerID,
		LessonID:         model.LessonID,
		Mode:             model.Mode,
		Score:            model.Score,
		Band:             model.Band,
		Feedback:         model.Feedback,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		GrammarScore:     model.GrammarScore,
		ContentScore:     model.ContentScore,
		OriginalityScore: model.OriginalityScore,
		RecordingURL:     model.RecordingURL,
		CreatedAt:        model.CreatedAt,
	}
	if model.Lesson != nil {
		response.LessonTitle = model.Lesson.Title
	}
	return response
}

// NewEvaluationResponseSlice converts a slice of models into DTOs.
func NewEvaluationResponseSlice(items []models.Evaluation) []EvaluationResponse {
	out := make([]EvaluationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewEvaluationResponse(item))
	}
	return out
}
