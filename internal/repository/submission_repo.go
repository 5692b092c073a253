package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/models"
)

// ErrStatusConflict is returned when a conditional status transition matched
// no row, i.e. the submission was no longer in the expected status.
var ErrStatusConflict = errors.New("submission status conflict")

// AnswerGradeUpdate carries one teacher-assigned essay score.
type AnswerGradeUpdate struct {
	QuestionID     uint
	Score          float64
	TeacherComment *string
}

// SubmissionRepository defines data operations for submissions and their
// answers. Status transitions are conditional updates so concurrent callers
// cannot double-apply them.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpdateAnswerFields(ctx context.Context, submissionID, questionID uint, fields map[string]interface{}) error
	MarkSubmitted(ctx context.Context, submissionID uint, submittedAt time.Time, graded []models.Answer, totalScore *float64) error
	ApplyGrades(ctx context.Context, submissionID uint, updates []AnswerGradeUpdate, totalScore float64, teacherComment string, gradedAt time.Time) error
	SaveSuggestion(ctx context.Context, submissionID, questionID uint, suggestion datatypes.JSON) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Answers").
		Preload("Assignment.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).
		Where("assignment_id = ?", assignmentID).
		Where("student_id = ?", studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Assignment").
		Where("student_id = ?", studentID).
		Order("started_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

// UpdateAnswerFields patches a single answer row; unspecified fields are left
// untouched. The update is guarded on the owning submission still being
// in_progress so a save racing a concurrent submit cannot mutate a frozen
// answer: such a race returns ErrStatusConflict. Returns
// gorm.ErrRecordNotFound when the question has no answer row on the
// submission.
func (r *submissionRepository) UpdateAnswerFields(ctx context.Context, submissionID, questionID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	inProgress := r.db.Model(&models.Submission{}).
		Select("id").
		Where("id = ?", submissionID).
		Where("status = ?", models.SubmissionStatusInProgress)

	result := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("submission_id IN (?)", inProgress).
		Where("question_id = ?", questionID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var status string
		if err := r.db.WithContext(ctx).Model(&models.Submission{}).
			Select("status").
			Where("id = ?", submissionID).
			Take(&status).Error; err != nil {
			return err
		}
		if status != models.SubmissionStatusInProgress {
			return ErrStatusConflict
		}
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkSubmitted flips in_progress -> submitted and persists auto-graded mcq
// results plus the resulting total in one transaction. The conditional
// update makes the transition single-fire under concurrent submits. A nil
// totalScore leaves the total unset, used when no answer was auto-gradable.
func (r *submissionRepository) MarkSubmitted(ctx context.Context, submissionID uint, submittedAt time.Time, graded []models.Answer, totalScore *float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":       models.SubmissionStatusSubmitted,
			"submitted_at": submittedAt,
		}
		if totalScore != nil {
			updates["total_score"] = *totalScore
		}

		result := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Where("status = ?", models.SubmissionStatusInProgress).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}

		for _, answer := range graded {
			if err := tx.Model(&models.Answer{}).
				Where("submission_id = ?", submissionID).
				Where("question_id = ?", answer.QuestionID).
				Updates(map[string]interface{}{
					"is_correct": answer.IsCorrect,
					"score":      answer.Score,
				}).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// ApplyGrades writes teacher essay scores, the overall comment and the
// recomputed total in one transaction. Valid from submitted or graded status
// since re-grading is a normal workflow.
func (r *submissionRepository) ApplyGrades(ctx context.Context, submissionID uint, updates []AnswerGradeUpdate, totalScore float64, teacherComment string, gradedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Submission{}).
			Where("id = ?", submissionID).
			Where("status IN ?", []string{models.SubmissionStatusSubmitted, models.SubmissionStatusGraded}).
			Updates(map[string]interface{}{
				"status":          models.SubmissionStatusGraded,
				"graded_at":       gradedAt,
				"total_score":     totalScore,
				"teacher_comment": teacherComment,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}

		for _, update := range updates {
			fields := map[string]interface{}{"score": update.Score}
			if update.TeacherComment != nil {
				fields["teacher_comment"] = *update.TeacherComment
			}
			if err := tx.Model(&models.Answer{}).
				Where("submission_id = ?", submissionID).
				Where("question_id = ?", update.QuestionID).
				Updates(fields).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *submissionRepository) SaveSuggestion(ctx context.Context, submissionID, questionID uint, suggestion datatypes.JSON) error {
	result := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("submission_id = ?", submissionID).
		Where("question_id = ?", questionID).
		Update("ai_suggestion", suggestion)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
