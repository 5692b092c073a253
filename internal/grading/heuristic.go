package grading

import (
	"math"
	"math/rand"
	"strings"
)

// Suggestion is the advisory outcome of grading a free-response answer. It is
// never authoritative: only the explicit grade operation sets answer scores.
type Suggestion struct {
	SuggestedScore float64  `json:"suggested_score"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
	Comment        string   `json:"comment"`
}

// Features are the surface signals extracted from an essay answer. Scoring
// them is deterministic; the jitter layer sits on top.
type Features struct {
	Length         int
	HasLineBreaks  bool
	HasStepMarkers bool
	HasMathContent bool
	HasExplanation bool
	HasConclusion  bool
	AddressesTerms bool
}

var (
	stepMarkers = []string{
		"first", "second", "third", "then", "next", "finally",
		"step ", "1.", "2.", "3.", "1)", "2)", "3)",
	}
	mathSymbols = []string{"=", "+", "×", "÷", "^", "√", "<", ">", "%"}
	explanatoryWords = []string{
		"because", "therefore", "since", "due to", "as a result",
		"which means", "so that",
	}
	concludingWords = []string{
		"in conclusion", "to conclude", "in summary", "to summarize",
		"overall", "thus", "hence",
	}
)

// ExtractFeatures derives the scoring signals from an answer. The optional
// question prompt only feeds the term-overlap signal.
func ExtractFeatures(answerText, prompt string) Features {
	trimmed := strings.TrimSpace(answerText)
	lowered := strings.ToLower(trimmed)

	return Features{
		Length:         len(trimmed),
		HasLineBreaks:  strings.Contains(trimmed, "\n"),
		HasStepMarkers: containsAny(lowered, stepMarkers),
		HasMathContent: containsAny(trimmed, mathSymbols),
		HasExplanation: containsAny(lowered, explanatoryWords),
		HasConclusion:  containsAny(lowered, concludingWords),
		AddressesTerms: sharesPromptTerms(lowered, prompt),
	}
}

// CompletenessFraction maps the features to a weighted fraction in [0, 1]:
// length contributes up to 0.30 across four tiers, structure up to 0.25,
// content quality up to 0.30 and a concluding marker 0.15.
func CompletenessFraction(f Features) float64 {
	fraction := 0.0

	switch {
	case f.Length >= 500:
		fraction += 0.30
	case f.Length >= 250:
		fraction += 0.22
	case f.Length >= 100:
		fraction += 0.15
	case f.Length >= 30:
		fraction += 0.08
	}

	if f.HasLineBreaks {
		fraction += 0.10
	}
	if f.HasStepMarkers {
		fraction += 0.15
	}
	if f.HasMathContent {
		fraction += 0.15
	}
	if f.HasExplanation {
		fraction += 0.15
	}
	if f.HasConclusion {
		fraction += 0.15
	}

	return clampFraction(fraction)
}

// EssayGrader produces advisory suggestions for free-response answers. It
// never fails: an empty answer simply lands in the lowest band.
type EssayGrader struct {
	jitter func() float64
}

// Option customises the grader.
type Option func(*EssayGrader)

// WithJitter overrides the perturbation source. Tests pass a fixed function
// to assert exact scores.
func WithJitter(jitter func() float64) Option {
	return func(g *EssayGrader) { g.jitter = jitter }
}

// NewEssayGrader builds a grader with a symmetric ±0.05 jitter so that
// near-identical answers do not receive mechanically identical scores.
func NewEssayGrader(opts ...Option) *EssayGrader {
	g := &EssayGrader{
		jitter: func() float64 { return rand.Float64()*0.10 - 0.05 },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Suggest grades an answer against the question's maximum score. The prompt
// is optional and only sharpens the feedback.
func (g *EssayGrader) Suggest(answerText string, maxScore float64, prompt string) Suggestion {
	features := ExtractFeatures(answerText, prompt)
	fraction := clampFraction(CompletenessFraction(features) + g.jitter())

	strengths, improvements := describeFeatures(features)

	return Suggestion{
		SuggestedScore: math.Round(fraction*maxScore*10) / 10,
		Strengths:      strengths,
		Improvements:   improvements,
		Comment:        bandComment(fraction),
	}
}

func describeFeatures(f Features) (strengths, improvements []string) {
	switch {
	case f.Length >= 250:
		strengths = append(strengths, "substantial, detailed answer")
	case f.Length >= 100:
		strengths = append(strengths, "reasonable level of detail")
	default:
		improvements = append(improvements, "expand the answer with more detail")
	}

	if f.HasLineBreaks {
		strengths = append(strengths, "answer is organized into paragraphs")
	} else {
		improvements = append(improvements, "break the answer into paragraphs or steps")
	}

	if f.HasStepMarkers {
		strengths = append(strengths, "reasoning proceeds in clear steps")
	} else {
		improvements = append(improvements, "walk through the reasoning step by step")
	}

	if f.HasMathContent {
		strengths = append(strengths, "includes formulas or calculations")
	}

	if f.HasExplanation {
		strengths = append(strengths, "explains the reasoning behind statements")
	} else {
		improvements = append(improvements, "justify statements, e.g. with because/therefore reasoning")
	}

	if f.HasConclusion {
		strengths = append(strengths, "finishes with a clear conclusion")
	} else {
		improvements = append(improvements, "close with a concluding statement")
	}

	if f.AddressesTerms {
		strengths = append(strengths, "directly addresses terms from the question")
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "submission completed")
	}

	return strengths, improvements
}

func bandComment(fraction float64) string {
	switch {
	case fraction >= 0.8:
		return "Excellent response: thorough, well structured, and clearly reasoned."
	case fraction >= 0.6:
		return "Good response with solid structure; a little more depth would make it excellent."
	case fraction >= 0.4:
		return "Reasonable attempt, but the reasoning needs more development and supporting detail."
	case fraction >= 0.2:
		return "The answer addresses the question only partially; expand the explanation considerably."
	default:
		return "The answer is too short to assess meaningfully; a full explanation is expected."
	}
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

func sharesPromptTerms(loweredAnswer, prompt string) bool {
	if prompt == "" || loweredAnswer == "" {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(prompt)) {
		word = strings.Trim(word, ".,;:?!()\"'")
		if len(word) >= 6 && strings.Contains(loweredAnswer, word) {
			return true
		}
	}
	return false
}

func clampFraction(fraction float64) float64 {
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
