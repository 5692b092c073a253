package ai

import "context"

// ReviewInput contains the artefacts needed to review a free-response answer.
type ReviewInput struct {
	QuestionPrompt string
	AnswerText     string
	MaxScore       float64
}

// ReviewResult is the structured advisory feedback returned by a reviewer.
// It mirrors the heuristic grader's suggestion shape so callers can fall
// back transparently when no reviewer is configured or the call fails.
type ReviewResult struct {
	SuggestedScore float64                `json:"suggested_score"`
	Strengths      []string               `json:"strengths"`
	Improvements   []string               `json:"improvements"`
	Comment        string                 `json:"comment"`
	Raw            map[string]interface{} `json:"raw,omitempty"`
}

// Reviewer describes an AI model capable of reviewing essay answers.
type Reviewer interface {
	Review(ctx context.Context, input ReviewInput) (ReviewResult, error)
}
