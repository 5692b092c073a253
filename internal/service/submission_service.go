package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/grading"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/observability"
	"github.com/noah-isme/assess-go-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionNotInProgress indicates a mutation was attempted after submit.
	ErrSubmissionNotInProgress = errors.New("submission is not in progress")
	// ErrUnknownQuestion indicates an answer update referenced a question id
	// that is not part of the submission.
	ErrUnknownQuestion = errors.New("question is not part of the submission")
	// ErrChoiceOutOfRange indicates a selected choice index outside the
	// question's choice list.
	ErrChoiceOutOfRange = errors.New("selected choice index out of range")
	// ErrAnswerKindMismatch indicates a choice selection on an essay question
	// or answer text on an mcq question.
	ErrAnswerKindMismatch = errors.New("answer fields do not match question kind")
	// ErrDeadlineExceeded indicates the attempt's time limit has elapsed.
	ErrDeadlineExceeded = errors.New("submission deadline exceeded")
	// ErrAssignmentPastDue indicates an attempt was opened after the
	// assignment's due date.
	ErrAssignmentPastDue = errors.New("assignment is past due")
)

// SubmissionService owns the per-student attempt lifecycle:
// getOrCreate -> repeated answer saves -> submit (auto-grades mcq answers).
type SubmissionService interface {
	GetOrCreate(ctx context.Context, payload dto.SubmissionStartRequest) (dto.SubmissionResponse, error)
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	UpdateAnswers(ctx context.Context, id uint, payload dto.AnswerUpdateRequest) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions   repository.SubmissionRepository
	assignments   repository.AssignmentRepository
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	events        EventPublisher
	activity      ActivityRecorder
	logger        zerolog.Logger
	now           func() time.Time
	deadlineGrace time.Duration
}

// NewSubmissionService constructs a SubmissionService instance. The grace
// window absorbs client clock skew before answer updates are rejected as
// past the per-attempt deadline.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, validate *validator.Validate, events EventPublisher, activity ActivityRecorder, deadlineGrace time.Duration, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions:   subRepo,
		assignments:   assignmentRepo,
		validator:     validate,
		sanitizer:     bluemonday.StrictPolicy(),
		events:        events,
		activity:      activity,
		logger:        logger.With().Str("component", "submission_service").Logger(),
		now:           time.Now,
		deadlineGrace: deadlineGrace,
	}
}

// GetOrCreate returns the student's existing attempt in any status, or opens
// a new one with an empty answer row per question. Idempotent: the unique
// (assignment, student) constraint resolves concurrent first-time callers to
// a single winner.
func (s *submissionService) GetOrCreate(ctx context.Context, payload dto.SubmissionStartRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, payload.AssignmentID, payload.StudentID)
	if err == nil {
		return dto.NewSubmissionResponse(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	answers := make([]models.Answer, 0, len(assignment.Questions))
	for _, question := range assignment.Questions {
		answers = append(answers, models.Answer{QuestionID: question.ID})
	}

	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    payload.StudentID,
		Status:       models.SubmissionStatusInProgress,
		StartedAt:    s.now(),
		MaxScore:     assignment.MaxScore(),
		Answers:      answers,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race: return whoever created it first
			winner, fetchErr := s.submissions.GetByAssignmentAndStudent(ctx, payload.AssignmentID, payload.StudentID)
			if fetchErr != nil {
				return dto.SubmissionResponse{}, fetchErr
			}
			return dto.NewSubmissionResponse(winner), nil
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("assignment_id", assignment.ID).Msg("submission started")
	s.publish(ctx, EventSubmissionStarted, created)

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

// UpdateAnswers patches the provided questions' answers while the attempt is
// in progress. Each patch replaces only the fields it carries; repeated
// calls are idempotent overwrites, last write wins per field.
func (s *submissionService) UpdateAnswers(ctx context.Context, id uint, payload dto.AnswerUpdateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !submission.IsInProgress() {
		return dto.SubmissionResponse{}, ErrSubmissionNotInProgress
	}

	if deadline := submission.Deadline(submission.Assignment.DurationMinutes); deadline != nil {
		if s.now().After(deadline.Add(s.deadlineGrace)) {
			return dto.SubmissionResponse{}, ErrDeadlineExceeded
		}
	}

	questions := make(map[uint]models.Question, len(submission.Assignment.Questions))
	for _, question := range submission.Assignment.Questions {
		questions[question.ID] = question
	}

	for _, update := range payload.Answers {
		question, ok := questions[update.QuestionID]
		if !ok {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: question %d", ErrUnknownQuestion, update.QuestionID)
		}

		fields, err := s.answerFields(question, update)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}

		if err := s.submissions.UpdateAnswerFields(ctx, submission.ID, update.QuestionID, fields); err != nil {
			// a concurrent submit may freeze the attempt between the
			// status check above and this write
			if errors.Is(err, repository.ErrStatusConflict) {
				return dto.SubmissionResponse{}, ErrSubmissionNotInProgress
			}
			return dto.SubmissionResponse{}, err
		}
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(updated), nil
}

// Submit finalizes the attempt: every mcq answer is auto-graded and the
// status flips to submitted exactly once. A submit after the time limit is
// still accepted; it only locks in the answers saved before the deadline.
func (s *submissionService) Submit(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.loadSubmission(ctx, id)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !submission.IsInProgress() {
		return dto.SubmissionResponse{}, ErrSubmissionNotInProgress
	}

	questions := make(map[uint]models.Question, len(submission.Assignment.Questions))
	for _, question := range submission.Assignment.Questions {
		questions[question.ID] = question
	}

	graded := make([]models.Answer, 0, len(submission.Answers))
	autoTotal := 0.0
	for _, answer := range submission.Answers {
		question, ok := questions[answer.QuestionID]
		if !ok || !question.IsMCQ() {
			continue
		}

		result := grading.GradeChoice(answer.SelectedChoiceIndex, *question.CorrectChoiceIndex, question.MaxScore)
		isCorrect := result.IsCorrect
		score := result.Score
		autoTotal += score
		graded = append(graded, models.Answer{
			QuestionID: answer.QuestionID,
			IsCorrect:  &isCorrect,
			Score:      &score,
		})
	}

	// the total exists as soon as any answer carries a score; essay-only
	// attempts stay unscored until a teacher grades them
	var totalScore *float64
	if len(graded) > 0 {
		totalScore = &autoTotal
	}

	if err := s.submissions.MarkSubmitted(ctx, submission.ID, s.now(), graded, totalScore); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return dto.SubmissionResponse{}, ErrSubmissionNotInProgress
		}
		return dto.SubmissionResponse{}, err
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", updated.ID).Int("auto_graded", len(graded)).Msg("submission submitted")
	observability.SubmissionsSubmitted().Inc()
	s.publish(ctx, EventSubmissionSubmitted, updated)
	s.recordActivity(ctx, updated, "submission.submitted")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

// answerFields maps an update onto column patches, rejecting fields that do
// not match the question kind so mcq answers can never carry essay text and
// vice versa.
func (s *submissionService) answerFields(question models.Question, update dto.AnswerUpdate) (map[string]interface{}, error) {
	fields := map[string]interface{}{}

	if update.SelectedChoiceIndex != nil {
		if !question.IsMCQ() {
			return nil, fmt.Errorf("%w: choice selection on essay question %d", ErrAnswerKindMismatch, question.ID)
		}
		if *update.SelectedChoiceIndex < 0 || *update.SelectedChoiceIndex >= len(question.Choices) {
			return nil, fmt.Errorf("%w: question %d", ErrChoiceOutOfRange, question.ID)
		}
		fields["selected_choice_index"] = *update.SelectedChoiceIndex
	}

	if update.AnswerText != nil {
		if question.IsMCQ() {
			return nil, fmt.Errorf("%w: answer text on mcq question %d", ErrAnswerKindMismatch, question.ID)
		}
		fields["answer_text"] = strings.TrimSpace(s.sanitizer.Sanitize(*update.AnswerText))
	}

	return fields, nil
}

func (s *submissionService) publish(ctx context.Context, event string, submission models.Submission) {
	if s.events == nil {
		return
	}

	s.events.Publish(ctx, SubmissionEvent{
		Event:        event,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Status:       submission.Status,
		TotalScore:   submission.TotalScore,
		OccurredAt:   s.now().UTC(),
	})
}

func (s *submissionService) recordActivity(ctx context.Context, submission models.Submission, action string) {
	if s.activity == nil {
		return
	}

	entityID := submission.ID
	_, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    submission.StudentID,
		ActorRole:  "student",
		Action:     action,
		EntityType: "submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
			"status":        submission.Status,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record activity")
	}
}
