package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assess-go-api/internal/dto"
)

func TestAssignmentCreateOverHTTP(t *testing.T) {
	app, _ := setupApp(t)

	body := fiber.Map{
		"title": "Geometry quiz",
		"questions": []fiber.Map{
			{"kind": "mcq", "prompt": "Angles of a triangle sum to?", "choices": []string{"90", "180", "360"}, "correct_choice_index": 1, "max_score": 2},
			{"kind": "essay", "prompt": "Prove the triangle inequality.", "max_score": 8},
		},
	}

	// students cannot create assignments
	resp := doJSON(t, app, http.MethodPost, "/api/v1/assignments", body, 1, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/assignments", body, 99, "teacher")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var createResp struct {
		Success bool                   `json:"success"`
		Data    dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &createResp)
	require.True(t, createResp.Success)
	require.NotZero(t, createResp.Data.ID)
	require.Equal(t, 10.0, createResp.Data.MaxScore)

	// the student view strips answer keys
	resp = doJSON(t, app, http.MethodGet, urlFor("/api/v1/assignments/%d", createResp.Data.ID), nil, 1, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var getResp struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &getResp)
	require.Nil(t, getResp.Data.Questions[0].CorrectChoiceIndex)

	// the teacher view keeps them
	resp = doJSON(t, app, http.MethodGet, urlFor("/api/v1/assignments/%d", createResp.Data.ID), nil, 99, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeResponse(t, resp, &getResp)
	require.NotNil(t, getResp.Data.Questions[0].CorrectChoiceIndex)
}

func TestAssignmentCreateRejectsBadQuestions(t *testing.T) {
	app, _ := setupApp(t)

	body := fiber.Map{
		"title": "Broken quiz",
		"questions": []fiber.Map{
			{"kind": "mcq", "prompt": "Pick one", "choices": []string{"a", "b"}, "correct_choice_index": 5, "max_score": 1},
		},
	}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/assignments", body, 99, "teacher")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssignmentVariantsOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	_, assignment := seedExamData(t, db)

	resp := doJSON(t, app, http.MethodGet, urlFor("/api/v1/assignments/%d/variants?codes=A,B", assignment.ID), nil, 99, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var variantResp struct {
		Data []dto.ExamVariantResponse `json:"data"`
	}
	decodeResponse(t, resp, &variantResp)
	require.Len(t, variantResp.Data, 2)
	require.Equal(t, "A", variantResp.Data[0].Code)
	require.Len(t, variantResp.Data[0].Questions, 2)
	require.Len(t, variantResp.Data[0].AnswerKey, 2)

	// variants carry answer keys, so students are locked out
	resp = doJSON(t, app, http.MethodGet, urlFor("/api/v1/assignments/%d/variants", assignment.ID), nil, 1, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/assignments/9999/variants", nil, 99, "teacher")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAssignmentListOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	seedExamData(t, db)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/assignments?search=algebra", nil, 1, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listResp struct {
		Data struct {
			Assignments []dto.AssignmentResponse `json:"assignments"`
			Total       int64                    `json:"total"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &listResp)
	require.Equal(t, int64(1), listResp.Data.Total)
	require.Len(t, listResp.Data.Assignments, 1)
}
