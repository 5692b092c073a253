package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/repository"
)

func TestAssignmentServiceCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), validator.New(), testLogger())
	ctx := context.Background()

	correct := 1
	created, err := svc.Create(ctx, dto.AssignmentCreateRequest{
		Title:       "Geometry quiz",
		Description: "<b>Covers</b> triangles",
		Questions: []dto.QuestionCreateRequest{
			{Kind: "mcq", Prompt: "Angles of a triangle sum to?", Choices: []string{"90", "180", "360"}, CorrectChoiceIndex: &correct, MaxScore: 2},
			{Kind: "essay", Prompt: "Prove the triangle inequality.", MaxScore: 8},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Covers triangles", created.Description, "markup is stripped")
	require.Equal(t, "ABCD", created.VariantCodes)
	require.Equal(t, 10.0, created.MaxScore)
	require.NotNil(t, created.Questions[0].CorrectChoiceIndex)

	teacherView, err := svc.Get(ctx, created.ID, true)
	require.NoError(t, err)
	require.Equal(t, 1, *teacherView.Questions[0].CorrectChoiceIndex)

	studentView, err := svc.Get(ctx, created.ID, false)
	require.NoError(t, err)
	require.Nil(t, studentView.Questions[0].CorrectChoiceIndex, "answer keys never reach students")

	_, err = svc.Get(ctx, 9999, true)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentServiceCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), validator.New(), testLogger())
	ctx := context.Background()

	correct := 5
	_, err := svc.Create(ctx, dto.AssignmentCreateRequest{
		Title: "Bad quiz",
		Questions: []dto.QuestionCreateRequest{
			{Kind: "mcq", Prompt: "Pick one", Choices: []string{"a", "b"}, CorrectChoiceIndex: &correct, MaxScore: 1},
		},
	})
	require.ErrorContains(t, err, "correct choice index out of range")

	zero := 0
	_, err = svc.Create(ctx, dto.AssignmentCreateRequest{
		Title: "Bad quiz",
		Questions: []dto.QuestionCreateRequest{
			{Kind: "mcq", Prompt: "Pick one", Choices: []string{"only"}, CorrectChoiceIndex: &zero, MaxScore: 1},
		},
	})
	require.Error(t, err)
}

func TestAssignmentServiceList(t *testing.T) {
	db := newTestDB(t)
	seedExam(t, db)
	svc := NewAssignmentService(repository.NewAssignmentRepository(db), validator.New(), testLogger())

	all, total, err := svc.List(context.Background(), dto.AssignmentFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, all, 1)
	require.Nil(t, all[0].Questions[0].CorrectChoiceIndex, "listing is student-safe")

	none, total, err := svc.List(context.Background(), dto.AssignmentFilter{Search: "chemistry"})
	require.NoError(t, err)
	require.Equal(t, int64(0), total)
	require.Empty(t, none)
}
