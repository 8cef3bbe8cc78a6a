package dto

import (
	"time"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

// LessonCreateRequest is the payload for publishing a lesson.
type LessonCreateRequest struct {
	Slug       string `json:"slug" validate:"required,min=3,max=160"`
	Title      string `json:"title" validate:"required,min=3,max=255"`
	VideoURL   string `json:"video_url" validate:"omitempty,url,max=512"`
	Transcript string `json:"transcript" validate:"required,min=20"`
	Level      string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
}

// LessonListRequest filters the lesson catalogue.
type LessonListRequest struct {
	Page     int
	PageSize int
	Level    string
	Search   string
}

// LessonSummary is the list representation of a lesson without its transcript.
type LessonSummary struct {
	ID        uint      `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	VideoURL  string    `json:"video_url"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

// LessonResponse is the detail representation of a lesson.
type LessonResponse struct {
	LessonSummary
	Transcript string `json:"transcript"`
}

// LessonListResponse contains a page of lessons.
type LessonListResponse struct {
	Items      []LessonSummary `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}

// NewLessonSummary converts a model into its list DTO.
func NewLessonSummary(model models.Lesson) LessonSummary {
	return LessonSummary{
		ID:        model.ID,
		Slug:      model.Slug,
		Title:     model.Title,
		VideoURL:  model.VideoURL,
		Level:     model.Level,
		CreatedAt: model.CreatedAt,
	}
}

// NewLessonResponse converts a model into its detail DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		LessonSummary: NewLessonSummary(model),
		Transcript:    model.Transcript,
	}
}
