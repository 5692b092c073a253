package dto

import (
	"time"

	"github.com/noah-isme/assess-go-api/internal/models"
)

// QuestionCreateRequest describes one question in an assignment payload.
type QuestionCreateRequest struct {
	Kind               string   `json:"kind" validate:"required,oneof=mcq essay"`
	Prompt             string   `json:"prompt" validate:"required,min=3"`
	Choices            []string `json:"choices" validate:"omitempty,min=2,dive,min=1"`
	CorrectChoiceIndex *int     `json:"correct_choice_index"`
	MaxScore           float64  `json:"max_score" validate:"required,gt=0"`
}

// AssignmentCreateRequest describes the payload to create an assignment with
// its ordered questions.
type AssignmentCreateRequest struct {
	Title           string                  `json:"title" validate:"required,min=3,max=255"`
	Description     string                  `json:"description"`
	DurationMinutes *int                    `json:"duration_minutes" validate:"omitempty,gt=0"`
	DueAt           *time.Time              `json:"due_at"`
	VariantCodes    string                  `json:"variant_codes" validate:"omitempty,uppercase,min=1,max=8"`
	Questions       []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

// AssignmentFilter describes query string filters for listing assignments.
type AssignmentFilter struct {
	Search   string `query:"search"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// QuestionResponse serializes a question. The correct choice index is only
// included in teacher-facing payloads.
type QuestionResponse struct {
	ID                 uint     `json:"id"`
	Position           int      `json:"position"`
	Kind               string   `json:"kind"`
	Prompt             string   `json:"prompt"`
	Choices            []string `json:"choices,omitempty"`
	CorrectChoiceIndex *int     `json:"correct_choice_index,omitempty"`
	MaxScore           float64  `json:"max_score"`
}

// AssignmentResponse is returned to API clients when viewing assignments.
type AssignmentResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	DurationMinutes *int               `json:"duration_minutes"`
	DueAt           *time.Time         `json:"due_at"`
	VariantCodes    string             `json:"variant_codes"`
	MaxScore        float64            `json:"max_score"`
	Questions       []QuestionResponse `json:"questions"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewQuestionResponse converts a question model into a DTO. When
// includeKey is false the correct choice index is stripped, for
// student-facing payloads.
func NewQuestionResponse(model models.Question, includeKey bool) QuestionResponse {
	response := QuestionResponse{
		ID:       model.ID,
		Position: model.Position,
		Kind:     model.Kind,
		Prompt:   model.Prompt,
		Choices:  model.Choices,
		MaxScore: model.MaxScore,
	}
	if includeKey {
		response.CorrectChoiceIndex = model.CorrectChoiceIndex
	}
	return response
}

// NewAssignmentResponse converts an assignment model into a DTO.
func NewAssignmentResponse(model models.Assignment, includeKeys bool) AssignmentResponse {
	questions := make([]QuestionResponse, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, NewQuestionResponse(question, includeKeys))
	}

	return AssignmentResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		DurationMinutes: model.DurationMinutes,
		DueAt:           model.DueAt,
		VariantCodes:    model.VariantCodes,
		MaxScore:        model.MaxScore(),
		Questions:       questions,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment, includeKeys bool) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment, includeKeys))
	}

	return responses
}
