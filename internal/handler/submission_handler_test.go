package handler_test

import (
	"io"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/config"
	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/handler"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/repository"
	"github.com/noah-isme/assess-go-api/internal/router"
	"github.com/noah-isme/assess-go-api/internal/service"
)

// setupApp wires the full HTTP stack against sqlite. The stub JWT
// middleware reads identity from test headers instead of real tokens.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Question{}, &models.Submission{}, &models.Answer{}, &models.ActivityLog{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, validate, logger)
	examService := service.NewExamService(assignmentRepo, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, nil, activityService, 30*time.Second, logger)
	gradingService := service.NewGradingService(submissionRepo, validate, nil, nil, activityService, logger)
	dashboardService := service.NewStudentDashboardService(studentRepo, assignmentRepo, submissionRepo, nil, time.Minute, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret"}, router.Dependencies{
		AssignmentHandler:       handler.NewAssignmentHandler(assignmentService, examService, logger),
		SubmissionHandler:       handler.NewSubmissionHandler(submissionService, logger),
		GradingHandler:          handler.NewGradingHandler(gradingService, logger),
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		ActivityHandler:         handler.NewActivityHandler(activityService, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			if id := c.Get("X-Test-User"); id != "" {
				if parsed, err := strconv.ParseUint(id, 10, 64); err == nil {
					c.Locals("user_id", uint(parsed))
				}
			}
			if role := c.Get("X-Test-Role"); role != "" {
				c.Locals("user_role", role)
			}
			return c.Next()
		},
	})

	return app, db
}

func seedExamData(t *testing.T, db *gorm.DB) (models.Student, models.Assignment) {
	t.Helper()

	student := models.Student{Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, db.Create(&student).Error)

	correct := 1
	assignment := models.Assignment{
		Title: "Algebra quiz",
		Questions: []models.Question{
			{Position: 0, Kind: models.QuestionKindMCQ, Prompt: "1+1?", Choices: datatypes.JSONSlice[string]{"1", "2", "3"}, CorrectChoiceIndex: &correct, MaxScore: 2},
			{Position: 1, Kind: models.QuestionKindEssay, Prompt: "Explain.", MaxScore: 8},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)
	return student, assignment
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	student, assignment := seedExamData(t, db)

	// start
	resp := doJSON(t, app, http.MethodPost, "/api/v1/submissions", fiber.Map{"assignment_id": assignment.ID}, student.ID, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var startResp struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &startResp)
	require.True(t, startResp.Success)
	require.Equal(t, "in_progress", startResp.Data.Status)
	submissionID := startResp.Data.ID

	// starting again returns the same attempt
	resp = doJSON(t, app, http.MethodPost, "/api/v1/submissions", fiber.Map{"assignment_id": assignment.ID}, student.ID, "student")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var repeatResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &repeatResp)
	require.Equal(t, submissionID, repeatResp.Data.ID)

	// save answers
	resp = doJSON(t, app, http.MethodPatch, urlFor("/api/v1/submissions/%d/answers", submissionID), fiber.Map{
		"answers": []fiber.Map{
			{"question_id": assignment.Questions[0].ID, "selected_choice_index": 1},
			{"question_id": assignment.Questions[1].ID, "answer_text": "Because addition is associative."},
		},
	}, student.ID, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// submit, mcq auto-graded
	resp = doJSON(t, app, http.MethodPost, urlFor("/api/v1/submissions/%d/submit", submissionID), nil, student.ID, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var submitResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &submitResp)
	require.Equal(t, "submitted", submitResp.Data.Status)
	require.NotNil(t, submitResp.Data.TotalScore)
	require.Equal(t, 2.0, *submitResp.Data.TotalScore, "correct mcq points count before any manual grading")

	// a second submit conflicts
	resp = doJSON(t, app, http.MethodPost, urlFor("/api/v1/submissions/%d/submit", submissionID), nil, student.ID, "student")
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// students cannot grade
	gradeBody := fiber.Map{"essay_scores": []fiber.Map{{"question_id": assignment.Questions[1].ID, "score": 7}}}
	resp = doJSON(t, app, http.MethodPost, urlFor("/api/v1/submissions/%d/grade", submissionID), gradeBody, student.ID, "student")
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// teachers can
	resp = doJSON(t, app, http.MethodPost, urlFor("/api/v1/submissions/%d/grade", submissionID), gradeBody, 99, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var gradeResp struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &gradeResp)
	require.Equal(t, "graded", gradeResp.Data.Status)
	require.Equal(t, 9.0, *gradeResp.Data.TotalScore, "two mcq points plus seven essay points")

	// heuristic suggestion endpoint
	resp = doJSON(t, app, http.MethodGet, urlFor("/api/v1/submissions/%d/answers/%d/suggestion", submissionID, assignment.Questions[1].ID), nil, 99, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var suggestResp struct {
		Data dto.AISuggestionResponse `json:"data"`
	}
	decodeResponse(t, resp, &suggestResp)
	require.Equal(t, "heuristic", suggestResp.Data.Source)

	// audit trail recorded the submit and grade
	resp = doJSON(t, app, http.MethodGet, "/api/v1/activities", nil, 99, "teacher")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var activityResp struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	decodeResponse(t, resp, &activityResp)
	require.Equal(t, int64(2), activityResp.Data.Total)
}

func TestSubmissionHandlerErrors(t *testing.T) {
	app, db := setupApp(t)
	student, _ := seedExamData(t, db)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/submissions", fiber.Map{"assignment_id": 9999}, student.ID, "student")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/submissions/4242", nil, student.ID, "student")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/submissions/not-a-number", nil, student.ID, "student")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStudentDashboardOverHTTP(t *testing.T) {
	app, db := setupApp(t)
	student, _ := seedExamData(t, db)

	resp := doJSON(t, app, http.MethodGet, urlFor("/api/v1/students/%d/dashboard", student.ID), nil, student.ID, "student")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var dashResp struct {
		Data dto.StudentDashboardResponse `json:"data"`
	}
	decodeResponse(t, resp, &dashResp)
	require.Equal(t, student.ID, dashResp.Data.StudentID)
	require.Equal(t, 1, dashResp.Data.OpenCount)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/students/9999/dashboard", nil, student.ID, "student")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
