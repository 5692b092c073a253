package dto

// EssayScore is one teacher-assigned score for an essay answer.
type EssayScore struct {
	QuestionID     uint    `json:"question_id" validate:"required,gt=0"`
	Score          float64 `json:"score" validate:"gte=0"`
	TeacherComment *string `json:"teacher_comment"`
}

// GradeRequest finalizes (or re-grades) a submitted attempt.
type GradeRequest struct {
	EssayScores    []EssayScore `json:"essay_scores" validate:"required,min=1,dive"`
	OverallComment *string      `json:"overall_comment"`
}
