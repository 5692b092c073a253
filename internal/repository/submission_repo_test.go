package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Question{}, &models.Submission{}, &models.Answer{}, &models.ActivityLog{}))
	return db
}

func seedSubmission(t *testing.T, db *gorm.DB) models.Submission {
	t.Helper()

	correct := 1
	assignment := models.Assignment{
		Title: "Algebra quiz",
		Questions: []models.Question{
			{Position: 0, Kind: models.QuestionKindMCQ, Prompt: "1+1?", Choices: datatypes.JSONSlice[string]{"1", "2"}, CorrectChoiceIndex: &correct, MaxScore: 1},
			{Position: 1, Kind: models.QuestionKindEssay, Prompt: "Explain.", MaxScore: 10},
		},
	}
	require.NoError(t, db.Create(&assignment).Error)

	student := models.Student{Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, db.Create(&student).Error)

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.ID,
		Status:       models.SubmissionStatusInProgress,
		StartedAt:    time.Now(),
		MaxScore:     11,
		Answers: []models.Answer{
			{QuestionID: assignment.Questions[0].ID},
			{QuestionID: assignment.Questions[1].ID},
		},
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryUniquePerStudentAndAssignment(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	existing := seedSubmission(t, db)

	duplicate := models.Submission{
		AssignmentID: existing.AssignmentID,
		StudentID:    existing.StudentID,
		Status:       models.SubmissionStatusInProgress,
		StartedAt:    time.Now(),
		MaxScore:     11,
	}
	err := repo.Create(context.Background(), &duplicate)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	winner, err := repo.GetByAssignmentAndStudent(context.Background(), existing.AssignmentID, existing.StudentID)
	require.NoError(t, err)
	require.Equal(t, existing.ID, winner.ID)
}

func TestSubmissionRepositoryUpdateAnswerFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := seedSubmission(t, db)

	questionID := submission.Answers[1].QuestionID
	err := repo.UpdateAnswerFields(context.Background(), submission.ID, questionID, map[string]interface{}{
		"answer_text": "Because the terms cancel.",
	})
	require.NoError(t, err)

	reloaded, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	answer, ok := reloaded.AnswerByQuestion(questionID)
	require.True(t, ok)
	require.Equal(t, "Because the terms cancel.", answer.AnswerText)
	require.Nil(t, answer.SelectedChoiceIndex, "unrelated fields stay untouched")

	err = repo.UpdateAnswerFields(context.Background(), submission.ID, 9999, map[string]interface{}{"answer_text": "x"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryUpdateAnswerFieldsAfterSubmit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := seedSubmission(t, db)

	questionID := submission.Answers[1].QuestionID
	require.NoError(t, repo.UpdateAnswerFields(context.Background(), submission.ID, questionID, map[string]interface{}{
		"answer_text": "Draft before the timer ran out.",
	}))

	require.NoError(t, repo.MarkSubmitted(context.Background(), submission.ID, time.Now(), nil, nil))

	err := repo.UpdateAnswerFields(context.Background(), submission.ID, questionID, map[string]interface{}{
		"answer_text": "Sneaky edit after submit.",
	})
	require.ErrorIs(t, err, ErrStatusConflict)

	reloaded, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	answer, ok := reloaded.AnswerByQuestion(questionID)
	require.True(t, ok)
	require.Equal(t, "Draft before the timer ran out.", answer.AnswerText, "frozen answer stays untouched")
}

func TestSubmissionRepositoryMarkSubmittedSingleFire(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := seedSubmission(t, db)

	isCorrect := true
	score := 1.0
	graded := []models.Answer{{QuestionID: submission.Answers[0].QuestionID, IsCorrect: &isCorrect, Score: &score}}

	require.NoError(t, repo.MarkSubmitted(context.Background(), submission.ID, time.Now(), graded, &score))

	err := repo.MarkSubmitted(context.Background(), submission.ID, time.Now(), graded, &score)
	require.ErrorIs(t, err, ErrStatusConflict)

	reloaded, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, reloaded.Status)
	require.NotNil(t, reloaded.SubmittedAt)
	require.NotNil(t, reloaded.TotalScore)
	require.Equal(t, 1.0, *reloaded.TotalScore, "auto-graded total is persisted with the transition")

	answer, ok := reloaded.AnswerByQuestion(submission.Answers[0].QuestionID)
	require.True(t, ok)
	require.NotNil(t, answer.IsCorrect)
	require.True(t, *answer.IsCorrect)
	require.Equal(t, 1.0, *answer.Score)
}

func TestSubmissionRepositoryApplyGrades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	submission := seedSubmission(t, db)

	err := repo.ApplyGrades(context.Background(), submission.ID, nil, 0, "", time.Now())
	require.ErrorIs(t, err, ErrStatusConflict, "grading requires a submitted attempt")

	require.NoError(t, repo.MarkSubmitted(context.Background(), submission.ID, time.Now(), nil, nil))

	comment := "Solid derivation."
	updates := []AnswerGradeUpdate{{QuestionID: submission.Answers[1].QuestionID, Score: 8.5, TeacherComment: &comment}}
	require.NoError(t, repo.ApplyGrades(context.Background(), submission.ID, updates, 8.5, "Good work", time.Now()))

	reloaded, err := repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, reloaded.Status)
	require.Equal(t, 8.5, *reloaded.TotalScore)
	require.Equal(t, "Good work", reloaded.TeacherComment)

	answer, ok := reloaded.AnswerByQuestion(submission.Answers[1].QuestionID)
	require.True(t, ok)
	require.Equal(t, 8.5, *answer.Score)
	require.Equal(t, "Solid derivation.", answer.TeacherComment)

	// re-grading overwrites
	require.NoError(t, repo.ApplyGrades(context.Background(), submission.ID, []AnswerGradeUpdate{{QuestionID: submission.Answers[1].QuestionID, Score: 9}}, 9, "Better", time.Now()))
	reloaded, err = repo.GetByID(context.Background(), submission.ID)
	require.NoError(t, err)
	require.Equal(t, 9.0, *reloaded.TotalScore)
}
