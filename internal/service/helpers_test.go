package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Question{}, &models.Submission{}, &models.Answer{}, &models.ActivityLog{}))
	return db
}

// seedExam creates a student and an assignment with two mcq questions and
// one essay question, worth 12 points in total.
func seedExam(t *testing.T, db *gorm.DB) (models.Student, models.Assignment) {
	t.Helper()

	student := models.Student{Name: "Jane", Email: "jane@example.com", Class: "10A"}
	require.NoError(t, db.Create(&student).Error)

	correctA := 2
	correctB := 0
	duration := 60
	assignment := models.Assignment{
		Title:           "Algebra midterm",
		DurationMinutes: &duration,
		VariantCodes:    "AB",
		Questions: []models.Question{
			{Position: 0, Kind: models.QuestionKindMCQ, Prompt: "What is 2+2?", Choices: datatypes.JSONSlice[string]{"3", "5", "4"}, CorrectChoiceIndex: &correctA, MaxScore: 1},
			{Position: 1, Kind: models.QuestionKindMCQ, Prompt: "What is 3*3?", Choices: datatypes.JSONSlice[string]{"9", "6", "12"}, CorrectChoiceIndex: &correctB, MaxScore: 1},
			{Position: 2, Kind: models.QuestionKindEssay, Prompt: "Explain why the distributive law holds.", MaxScore: 10},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)
	return student, assignment
}

// eventRecorder captures published events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []SubmissionEvent
}

func (r *eventRecorder) Publish(_ context.Context, event SubmissionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) recorded() []SubmissionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SubmissionEvent, len(r.events))
	copy(out, r.events)
	return out
}
