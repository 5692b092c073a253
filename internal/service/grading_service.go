package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/grading"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/observability"
	"github.com/noah-isme/assess-go-api/internal/repository"
	"github.com/noah-isme/assess-go-api/pkg/ai"
)

var (
	// ErrSubmissionNotSubmitted indicates grading was attempted on an
	// attempt that is still in progress.
	ErrSubmissionNotSubmitted = errors.New("submission has not been submitted")
	// ErrScoreOutOfRange indicates an essay score outside [0, maxScore].
	ErrScoreOutOfRange = errors.New("score out of range")
	// ErrQuestionNotEssay indicates a manual score or suggestion request
	// targeted an mcq question.
	ErrQuestionNotEssay = errors.New("question is not an essay question")
)

const (
	suggestionSourceAI        = "ai"
	suggestionSourceHeuristic = "heuristic"
)

// GradingService covers the teacher-facing half of the grading flow: manual
// essay scoring and advisory score suggestions.
type GradingService interface {
	Grade(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error)
	Suggest(ctx context.Context, submissionID, questionID uint) (dto.AISuggestionResponse, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	reviewer    ai.Reviewer
	heuristic   *grading.EssayGrader
	events      EventPublisher
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs a GradingService. The reviewer is optional;
// when nil (or failing) suggestions come from the local heuristic grader.
func NewGradingService(subRepo repository.SubmissionRepository, validate *validator.Validate, reviewer ai.Reviewer, events EventPublisher, activity ActivityRecorder, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: subRepo,
		validator:   validate,
		reviewer:    reviewer,
		heuristic:   grading.NewEssayGrader(),
		events:      events,
		activity:    activity,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// Grade applies teacher essay scores, recomputes the total and flips the
// submission to graded. Re-grading an already graded submission overwrites
// the previous scores.
func (s *gradingService) Grade(ctx context.Context, actor ActivityActor, submissionID uint, payload dto.GradeRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("grading-service")
	ctx, span := tracer.Start(ctx, "grading.grade")
	defer span.End()
	span.SetAttributes(attribute.Int("submission.id", int(submissionID)))

	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.IsInProgress() {
		return dto.SubmissionResponse{}, ErrSubmissionNotSubmitted
	}

	questions := make(map[uint]models.Question, len(submission.Assignment.Questions))
	for _, question := range submission.Assignment.Questions {
		questions[question.ID] = question
	}

	updates := make([]repository.AnswerGradeUpdate, 0, len(payload.EssayScores))
	scored := make(map[uint]float64, len(payload.EssayScores))
	for _, essay := range payload.EssayScores {
		question, ok := questions[essay.QuestionID]
		if !ok {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: question %d", ErrUnknownQuestion, essay.QuestionID)
		}
		if question.IsMCQ() {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: question %d", ErrQuestionNotEssay, essay.QuestionID)
		}
		if essay.Score < 0 || essay.Score > question.MaxScore {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: question %d allows at most %g", ErrScoreOutOfRange, essay.QuestionID, question.MaxScore)
		}

		updates = append(updates, repository.AnswerGradeUpdate{
			QuestionID:     essay.QuestionID,
			Score:          essay.Score,
			TeacherComment: essay.TeacherComment,
		})
		scored[essay.QuestionID] = essay.Score
	}

	total := 0.0
	for _, answer := range submission.Answers {
		if score, ok := scored[answer.QuestionID]; ok {
			total += score
			continue
		}
		if answer.Score != nil {
			total += *answer.Score
		}
	}

	comment := ""
	if payload.OverallComment != nil {
		comment = *payload.OverallComment
	}

	if err := s.submissions.ApplyGrades(ctx, submission.ID, updates, total, comment, s.now()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return dto.SubmissionResponse{}, ErrSubmissionNotSubmitted
		}
		return dto.SubmissionResponse{}, err
	}

	graded, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", graded.ID).
		Uint("grader_id", actor.ID).
		Float64("total_score", total).
		Msg("submission graded")
	observability.SubmissionsGraded().Inc()

	if s.events != nil {
		s.events.Publish(ctx, SubmissionEvent{
			Event:        EventSubmissionGraded,
			SubmissionID: graded.ID,
			AssignmentID: graded.AssignmentID,
			StudentID:    graded.StudentID,
			Status:       graded.Status,
			TotalScore:   graded.TotalScore,
			OccurredAt:   s.now().UTC(),
		})
	}
	s.recordGradeActivity(ctx, actor, graded, total)

	return dto.NewSubmissionResponse(graded), nil
}

// Suggest produces an advisory score for one essay answer. The AI reviewer
// is tried first when configured; any failure falls back to the heuristic
// grader so the endpoint never errors on reviewer trouble. The suggestion
// is persisted on the answer for later display.
func (s *gradingService) Suggest(ctx context.Context, submissionID, questionID uint) (dto.AISuggestionResponse, error) {
	tracer := otel.Tracer("grading-service")
	ctx, span := tracer.Start(ctx, "grading.suggest")
	defer span.End()
	span.SetAttributes(
		attribute.Int("submission.id", int(submissionID)),
		attribute.Int("question.id", int(questionID)),
	)

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AISuggestionResponse{}, ErrSubmissionNotFound
		}
		return dto.AISuggestionResponse{}, err
	}

	if submission.IsInProgress() {
		return dto.AISuggestionResponse{}, ErrSubmissionNotSubmitted
	}

	var question *models.Question
	for i := range submission.Assignment.Questions {
		if submission.Assignment.Questions[i].ID == questionID {
			question = &submission.Assignment.Questions[i]
			break
		}
	}
	if question == nil {
		return dto.AISuggestionResponse{}, fmt.Errorf("%w: question %d", ErrUnknownQuestion, questionID)
	}
	if question.IsMCQ() {
		return dto.AISuggestionResponse{}, fmt.Errorf("%w: question %d", ErrQuestionNotEssay, questionID)
	}

	answer, ok := submission.AnswerByQuestion(questionID)
	if !ok {
		return dto.AISuggestionResponse{}, fmt.Errorf("%w: question %d", ErrUnknownQuestion, questionID)
	}

	suggestion := s.review(ctx, *question, answer.AnswerText)
	observability.AISuggestionsTotal(suggestion.Source).Inc()

	if raw, err := json.Marshal(suggestion); err == nil {
		if err := s.submissions.SaveSuggestion(ctx, submission.ID, questionID, datatypes.JSON(raw)); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to persist suggestion")
		}
	}

	return suggestion, nil
}

func (s *gradingService) review(ctx context.Context, question models.Question, answerText string) dto.AISuggestionResponse {
	if s.reviewer != nil {
		result, err := s.reviewer.Review(ctx, ai.ReviewInput{
			QuestionPrompt: question.Prompt,
			AnswerText:     answerText,
			MaxScore:       question.MaxScore,
		})
		if err == nil {
			return dto.AISuggestionResponse{
				SuggestedScore: result.SuggestedScore,
				Strengths:      result.Strengths,
				Improvements:   result.Improvements,
				Comment:        result.Comment,
				Source:         suggestionSourceAI,
			}
		}
		s.logger.Warn().Err(err).Uint("question_id", question.ID).Msg("ai review failed, using heuristic grader")
	}

	local := s.heuristic.Suggest(answerText, question.MaxScore, question.Prompt)
	return dto.AISuggestionResponse{
		SuggestedScore: local.SuggestedScore,
		Strengths:      local.Strengths,
		Improvements:   local.Improvements,
		Comment:        local.Comment,
		Source:         suggestionSourceHeuristic,
	}
}

func (s *gradingService) recordGradeActivity(ctx context.Context, actor ActivityActor, submission models.Submission, total float64) {
	if s.activity == nil {
		return
	}

	entityID := submission.ID
	_, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
			"student_id":    submission.StudentID,
			"total_score":   total,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record activity")
	}
}
