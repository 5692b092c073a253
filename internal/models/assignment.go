package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question kinds supported by the assessment engine.
const (
	QuestionKindMCQ   = "mcq"
	QuestionKindEssay = "essay"
)

// Assignment represents a quiz or test composed of ordered questions.
type Assignment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	Description     string     `gorm:"type:text" json:"description"`
	DurationMinutes *int       `json:"duration_minutes"`
	DueAt           *time.Time `json:"due_at"`
	VariantCodes    string     `gorm:"size:16;default:'ABCD'" json:"variant_codes"`
	Questions       []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MaxScore sums the maximum score of every question on the assignment.
func (a Assignment) MaxScore() float64 {
	total := 0.0
	for _, q := range a.Questions {
		total += q.MaxScore
	}
	return total
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueAt != nil && reference.After(*a.DueAt)
}

// Question belongs to an assignment. Position defines the canonical sequence
// used when no shuffled variant is applied.
type Question struct {
	ID                 uint                        `gorm:"primaryKey" json:"id"`
	AssignmentID       uint                        `gorm:"not null;index" json:"assignment_id"`
	Position           int                         `gorm:"not null" json:"position"`
	Kind               string                      `gorm:"size:16;not null" json:"kind"`
	Prompt             string                      `gorm:"type:text;not null" json:"prompt"`
	Choices            datatypes.JSONSlice[string] `gorm:"type:json" json:"choices,omitempty"`
	CorrectChoiceIndex *int                        `json:"correct_choice_index,omitempty"`
	MaxScore           float64                     `gorm:"not null" json:"max_score"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// IsMCQ reports whether the question is objectively keyed.
func (q Question) IsMCQ() bool {
	return q.Kind == QuestionKindMCQ
}
