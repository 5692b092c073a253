package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/repository"
	"github.com/noah-isme/assess-go-api/internal/variant"
)

// ErrInvalidVariantRequest wraps variant generator validation failures.
var ErrInvalidVariantRequest = errors.New("invalid variant request")

// ExamService produces printable shuffled exam variants with answer keys.
// Generation is pure; the service only resolves the assignment and renders
// DTOs, so a teacher can regenerate a lost answer key at any time.
type ExamService interface {
	GenerateVariants(ctx context.Context, assignmentID uint, codes []string) ([]dto.ExamVariantResponse, error)
}

type examService struct {
	assignments repository.AssignmentRepository
	logger      zerolog.Logger
}

// NewExamService constructs an ExamService instance.
func NewExamService(assignmentRepo repository.AssignmentRepository, logger zerolog.Logger) ExamService {
	return &examService{
		assignments: assignmentRepo,
		logger:      logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) GenerateVariants(ctx context.Context, assignmentID uint, codes []string) ([]dto.ExamVariantResponse, error) {
	tracer := otel.Tracer("exam-service")
	ctx, span := tracer.Start(ctx, "exam.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("assignment.id", int(assignmentID)))

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	if len(codes) == 0 {
		codes = splitCodes(assignment.VariantCodes)
	}

	variants, err := variant.Generate(assignment.ID, assignment.Questions, codes)
	if err != nil {
		return nil, errors.Join(ErrInvalidVariantRequest, err)
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("variants", len(variants)).
		Msg("exam variants generated")

	return dto.NewExamVariantResponseSlice(variants, assignment.Questions), nil
}

// splitCodes turns the stored code alphabet ("ABCD") into variant codes.
func splitCodes(stored string) []string {
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return variant.DefaultCodes
	}

	codes := make([]string, 0, len(stored))
	for _, r := range stored {
		codes = append(codes, string(r))
	}
	return codes
}
