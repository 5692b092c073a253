package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. The state machine is strictly forward-only:
// in_progress -> submitted -> graded.
const (
	SubmissionStatusInProgress = "in_progress"
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusGraded     = "graded"
)

// Submission is one student's attempt at one assignment. The unique index on
// (assignment_id, student_id) backs the at-most-one-attempt guarantee.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AssignmentID   uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID      uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"student_id"`
	Status         string     `gorm:"size:32;not null" json:"status"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	GradedAt       *time.Time `json:"graded_at"`
	TotalScore     *float64   `json:"total_score"`
	MaxScore       float64    `gorm:"not null" json:"max_score"`
	TeacherComment string     `gorm:"type:text" json:"teacher_comment"`
	Answers        []Answer   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
	Assignment     Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student        Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsInProgress reports whether answers may still be mutated.
func (s Submission) IsInProgress() bool {
	return s.Status == SubmissionStatusInProgress
}

// IsGraded reports whether the submission reached the terminal status.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// Deadline returns the instant after which answer updates are rejected, or
// nil when the assignment carries no time limit.
func (s Submission) Deadline(durationMinutes *int) *time.Time {
	if durationMinutes == nil {
		return nil
	}
	deadline := s.StartedAt.Add(time.Duration(*durationMinutes) * time.Minute)
	return &deadline
}

// AnswerByQuestion returns the answer row for a question id, if present.
func (s Submission) AnswerByQuestion(questionID uint) (Answer, bool) {
	for _, answer := range s.Answers {
		if answer.QuestionID == questionID {
			return answer, true
		}
	}
	return Answer{}, false
}

// Answer is one question's response within a submission. The owning
// question's kind discriminates which fields are meaningful: mcq answers use
// SelectedChoiceIndex/IsCorrect, essay answers use AnswerText and the
// teacher-set score.
type Answer struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	SubmissionID        uint           `gorm:"not null;uniqueIndex:idx_answers_submission_question" json:"submission_id"`
	QuestionID          uint           `gorm:"not null;uniqueIndex:idx_answers_submission_question" json:"question_id"`
	SelectedChoiceIndex *int           `json:"selected_choice_index"`
	IsCorrect           *bool          `json:"is_correct"`
	AnswerText          string         `gorm:"type:text" json:"answer_text"`
	Score               *float64       `json:"score"`
	TeacherComment      string         `gorm:"type:text" json:"teacher_comment"`
	AISuggestion        datatypes.JSON `gorm:"type:json" json:"ai_suggestion,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
