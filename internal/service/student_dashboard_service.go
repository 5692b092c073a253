package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/assess-go-api/internal/dto"
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/repository"
)

// ErrStudentNotFound indicates an unknown student id.
var ErrStudentNotFound = errors.New("student not found")

// StudentDashboardService produces a per-student progress overview across
// all assignments.
type StudentDashboardService interface {
	GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error)
}

type studentDashboardService struct {
	students    repository.StudentRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentDashboardService builds the dashboard aggregator. The cache
// client may be nil, in which case every call recomputes the aggregate.
func NewStudentDashboardService(students repository.StudentRepository, assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StudentDashboardService {
	return &studentDashboardService{
		students:    students,
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "student_dashboard_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentDashboardService) GetDashboard(ctx context.Context, studentID uint) (dto.StudentDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("dashboard cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentDashboardResponse{}, ErrStudentNotFound
		}
		return dto.StudentDashboardResponse{}, err
	}

	assignments, _, err := s.assignments.List(ctx, repository.AssignmentFilter{})
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	submissions, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.StudentDashboardResponse{}, err
	}

	response := s.buildResponse(student, assignments, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func (s *studentDashboardService) buildResponse(student models.Student, assignments []models.Assignment, submissions []models.Submission) dto.StudentDashboardResponse {
	submissionByAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	response := dto.StudentDashboardResponse{
		StudentID:   student.ID,
		StudentName: student.Name,
		Assignments: make([]dto.DashboardAssignmentStatus, 0, len(assignments)),
		GeneratedAt: s.now().UTC(),
	}

	for _, assignment := range assignments {
		status := dto.DashboardAssignmentStatus{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueAt:        assignment.DueAt,
			Status:       "open",
			MaxScore:     assignment.MaxScore(),
		}

		submission, started := submissionByAssignment[assignment.ID]
		if started {
			status.Status = submission.Status
			status.TotalScore = submission.TotalScore
			status.SubmittedAt = submission.SubmittedAt
		}

		switch {
		case !started, submission.IsInProgress():
			response.OpenCount++
		case submission.IsGraded():
			response.GradedCount++
		default:
			response.SubmittedCount++
		}

		response.Assignments = append(response.Assignments, status)
	}

	return response
}
