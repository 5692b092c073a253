package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates an assignment could not be found.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrInvalidQuestion indicates a question payload that fails the mcq
	// structural checks.
	ErrInvalidQuestion = errors.New("invalid question")
)

// AssignmentService orchestrates assignment workflows. Creation is a thin
// pass-through plus validation; the assessment engine itself only reads.
type AssignmentService interface {
	List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error)
	Get(ctx context.Context, id uint, includeKeys bool) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignmentRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, 0, err
	}

	assignments, total, err := s.assignments.List(ctx, repository.AssignmentFilter{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssignmentResponseSlice(assignments, false), total, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint, includeKeys bool) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment, includeKeys), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for position, q := range payload.Questions {
		question := models.Question{
			Position: position,
			Kind:     q.Kind,
			Prompt:   strings.TrimSpace(s.sanitizer.Sanitize(q.Prompt)),
			MaxScore: q.MaxScore,
		}

		if q.Kind == models.QuestionKindMCQ {
			if len(q.Choices) < 2 {
				return dto.AssignmentResponse{}, fmt.Errorf("%w: question %d: mcq needs at least two choices", ErrInvalidQuestion, position+1)
			}
			if q.CorrectChoiceIndex == nil || *q.CorrectChoiceIndex < 0 || *q.CorrectChoiceIndex >= len(q.Choices) {
				return dto.AssignmentResponse{}, fmt.Errorf("%w: question %d: correct choice index out of range", ErrInvalidQuestion, position+1)
			}
			question.Choices = q.Choices
			question.CorrectChoiceIndex = q.CorrectChoiceIndex
		}

		questions = append(questions, question)
	}

	codes := strings.ToUpper(strings.TrimSpace(payload.VariantCodes))
	if codes == "" {
		codes = "ABCD"
	}

	assignment := models.Assignment{
		Title:           strings.TrimSpace(payload.Title),
		Description:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		DurationMinutes: payload.DurationMinutes,
		DueAt:           payload.DueAt,
		VariantCodes:    codes,
		Questions:       questions,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Int("questions", len(questions)).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment, true), nil
}
