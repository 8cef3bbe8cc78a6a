package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Lesson levels.
const (
	LessonLevelBeginner     = "beginner"
	LessonLevelIntermediate = "intermediate"
	LessonLevelAdvanced     = "advanced"
)

// Lesson is a video lesson whose transcript serves as the reference text for evaluations.
type Lesson struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Slug       string    `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	VideoURL   string    `gorm:"size:512" json:"video_url"`
	Transcript string    `gorm:"type:text;not null" json:"transcript"`
	Level      string    `gorm:"size:32;index" json:"level"`
	CreatedBy  uint      `gorm:"index" json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeSave normalises slug and level.
func (l *Lesson) BeforeSave(tx *gorm.DB) error {
	l.Slug = strings.ToLower(strings.TrimSpace(l.Slug))
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = LessonLevelBeginner
	}
	return nil
}
