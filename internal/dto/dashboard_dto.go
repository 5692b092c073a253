package dto

import "time"

// DashboardAssignmentStatus summarizes one assignment from the student's
// point of view.
type DashboardAssignmentStatus struct {
	AssignmentID uint       `json:"assignment_id"`
	Title        string     `json:"title"`
	DueAt        *time.Time `json:"due_at"`
	Status       string     `json:"status"`
	TotalScore   *float64   `json:"total_score"`
	MaxScore     float64    `json:"max_score"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// StudentDashboardResponse aggregates a student's progress across all
// assignments.
type StudentDashboardResponse struct {
	StudentID      uint                        `json:"student_id"`
	StudentName    string                      `json:"student_name"`
	Assignments    []DashboardAssignmentStatus `json:"assignments"`
	OpenCount      int                         `json:"open_count"`
	SubmittedCount int                         `json:"submitted_count"`
	GradedCount    int                         `json:"graded_count"`
	GeneratedAt    time.Time                   `json:"generated_at"`
	CacheHit       bool                        `json:"cache_hit"`
}
