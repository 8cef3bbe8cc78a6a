package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Evaluation modes persisted alongside each result.
const (
	EvaluationModeContentRewrite    = "content_rewrite"
	EvaluationModeVideoPresentation = "video_presentation"
)

// Evaluation stores the outcome of an AI evaluation for a learner submission.
type Evaluation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	LearnerID        uint           `gorm:"not null;index" json:"learner_id"`
	LessonID         *uint          `gorm:"index" json:"lesson_id"`
	Mode             string         `gorm:"size:32;not null;index" json:"mode"`
	CandidateText    string         `gorm:"type:text;not null" json:"candidate_text"`
	RecordingURL     string         `gorm:"size:512" json:"recording_url"`
	Score            float64        `gorm:"not null" json:"score"`
	Band             string         `gorm:"size:32" json:"band"`
	Feedback         string         `gorm:"type:text" json:"feedback"`
	GrammarScore     float64        `json:"grammar_score"`
	ContentScore     float64        `json:"content_score"`
	OriginalityScore float64        `json:"originality_score"`
	StrengthsRaw     datatypes.JSON `gorm:"column:strengths" json:"-"`
	WeaknessesRaw    datatypes.JSON `gorm:"column:weaknesses" json:"-"`
	Provider         string         `gorm:"size:32" json:"provider"`
	Model            string         `gorm:"size:64" json:"model"`
	CreatedAt        time.Time      `gorm:"index" json:"created_at"`
	Lesson           *Lesson        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"lesson,omitempty"`
	Strengths        []string       `gorm:"-" json:"strengths"`
	Weaknesses       []string       `gorm:"-" json:"weaknesses"`
}

// BeforeSave encodes observation lists into their JSON columns.
func (e *Evaluation) BeforeSave(tx *gorm.DB) error {
	var err error
	if e.StrengthsRaw, err = encodeObservations(e.Strengths); err != nil {
		return err
	}
	e.WeaknessesRaw, err = encodeObservations(e.Weaknesses)
	return err
}

// AfterFind hydrates observation lists after retrieval.
func (e *Evaluation) AfterFind(tx *gorm.DB) error {
	var err error
	if e.Strengths, err = decodeObservations(e.StrengthsRaw); err != nil {
		return err
	}
	e.Weaknesses, err = decodeObservations(e.WeaknessesRaw)
	return err
}

func encodeObservations(items []string) (datatypes.JSON, error) {
	if items == nil {
		items = []string{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}

func decodeObservations(raw datatypes.JSON) ([]string, error) {
	items := []string{}
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
