package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/assess-go-api/internal/models"
)

// SubmissionStartRequest opens (or returns) a student's attempt.
type SubmissionStartRequest struct {
	AssignmentID uint `json:"assignment_id" validate:"required,gt=0"`
	StudentID    uint `json:"student_id" validate:"required,gt=0"`
}

// AnswerUpdate patches one question's answer. Omitted fields are left
// untouched, so repeated saves are idempotent per field.
type AnswerUpdate struct {
	QuestionID          uint    `json:"question_id" validate:"required,gt=0"`
	SelectedChoiceIndex *int    `json:"selected_choice_index" validate:"omitempty,gte=0"`
	AnswerText          *string `json:"answer_text"`
}

// AnswerUpdateRequest carries a batch of per-question answer patches.
type AnswerUpdateRequest struct {
	Answers []AnswerUpdate `json:"answers" validate:"required,min=1,dive"`
}

// AISuggestionResponse is the advisory grading signal attached to an essay
// answer. Advisory only, never the authoritative score.
type AISuggestionResponse struct {
	SuggestedScore float64  `json:"suggested_score"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	Comment        string   `json:"comment"`
	Source         string   `json:"source"`
}

// AnswerResponse serializes one answer within a submission.
type AnswerResponse struct {
	QuestionID          uint                  `json:"question_id"`
	SelectedChoiceIndex *int                  `json:"selected_choice_index"`
	IsCorrect           *bool                 `json:"is_correct"`
	AnswerText          string                `json:"answer_text"`
	Score               *float64              `json:"score"`
	TeacherComment      string                `json:"teacher_comment"`
	AISuggestion        *AISuggestionResponse `json:"ai_suggestion,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID             uint             `json:"id"`
	AssignmentID   uint             `json:"assignment_id"`
	StudentID      uint             `json:"student_id"`
	Status         string           `json:"status"`
	StartedAt      time.Time        `json:"started_at"`
	SubmittedAt    *time.Time       `json:"submitted_at"`
	GradedAt       *time.Time       `json:"graded_at"`
	TotalScore     *float64         `json:"total_score"`
	MaxScore       float64          `json:"max_score"`
	TeacherComment string           `json:"teacher_comment"`
	Answers        []AnswerResponse `json:"answers"`
	Assignment     AssignmentLite   `json:"assignment"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes *int       `json:"duration_minutes"`
	DueAt           *time.Time `json:"due_at"`
}

// NewAnswerResponse converts an answer model into a DTO.
func NewAnswerResponse(model models.Answer) AnswerResponse {
	response := AnswerResponse{
		QuestionID:          model.QuestionID,
		SelectedChoiceIndex: model.SelectedChoiceIndex,
		IsCorrect:           model.IsCorrect,
		AnswerText:          model.AnswerText,
		Score:               model.Score,
		TeacherComment:      model.TeacherComment,
	}

	if len(model.AISuggestion) > 0 {
		var suggestion AISuggestionResponse
		if err := json.Unmarshal(model.AISuggestion, &suggestion); err == nil {
			response.AISuggestion = &suggestion
		}
	}

	return response
}

// NewSubmissionResponse converts a submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	answers := make([]AnswerResponse, 0, len(model.Answers))
	for _, answer := range model.Answers {
		answers = append(answers, NewAnswerResponse(answer))
	}

	response := SubmissionResponse{
		ID:             model.ID,
		AssignmentID:   model.AssignmentID,
		StudentID:      model.StudentID,
		Status:         model.Status,
		StartedAt:      model.StartedAt,
		SubmittedAt:    model.SubmittedAt,
		GradedAt:       model.GradedAt,
		TotalScore:     model.TotalScore,
		MaxScore:       model.MaxScore,
		TeacherComment: model.TeacherComment,
		Answers:        answers,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:              model.Assignment.ID,
			Title:           model.Assignment.Title,
			DurationMinutes: model.Assignment.DurationMinutes,
			DueAt:           model.Assignment.DueAt,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
