// Package grading holds the two scoring paths of the assessment engine: the
// objective auto-grader applied at submit time and the heuristic essay
// grader used as an advisory fallback when no AI reviewer is configured.
package grading

// ChoiceResult is the outcome of auto-grading a single mcq answer.
type ChoiceResult struct {
	IsCorrect bool
	Score     float64
}

// GradeChoice scores a multiple-choice selection against the canonical
// correct index. Binary scoring, no partial credit. A nil selection counts
// as incorrect.
func GradeChoice(selected *int, correctIndex int, maxScore float64) ChoiceResult {
	if selected == nil || *selected != correctIndex {
		return ChoiceResult{IsCorrect: false, Score: 0}
	}
	return ChoiceResult{IsCorrect: true, Score: maxScore}
}
