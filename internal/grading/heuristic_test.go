package grading

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func noJitter() float64 { return 0 }

const structuredAnswer = `First, light is absorbed by chlorophyll in the leaf, because the pigment captures photons.
Second, the absorbed energy splits water: 2H2O = O2 + 4H+ + 4e-.
Then the electrons travel down the transport chain, which means ATP and NADPH are produced.
Therefore the Calvin cycle can fix CO2 into glucose during the dark reactions.
In conclusion, photosynthesis converts light energy into chemical energy stored in sugar, overall a redox process.`

func TestCompletenessFractionEmptyAnswer(t *testing.T) {
	features := ExtractFeatures("", "")
	require.Zero(t, features.Length)
	require.Zero(t, CompletenessFraction(features))
}

func TestCompletenessFractionStructuredAnswer(t *testing.T) {
	features := ExtractFeatures(structuredAnswer, "Explain photosynthesis.")
	require.True(t, features.HasLineBreaks)
	require.True(t, features.HasStepMarkers)
	require.True(t, features.HasMathContent)
	require.True(t, features.HasExplanation)
	require.True(t, features.HasConclusion)
	require.GreaterOrEqual(t, features.Length, 250)

	require.GreaterOrEqual(t, CompletenessFraction(features), 0.8)
}

func TestCompletenessFractionLengthTiers(t *testing.T) {
	short := ExtractFeatures(strings.Repeat("a", 40), "")
	medium := ExtractFeatures(strings.Repeat("a", 150), "")
	long := ExtractFeatures(strings.Repeat("a", 600), "")

	require.Equal(t, 0.08, CompletenessFraction(short))
	require.Equal(t, 0.15, CompletenessFraction(medium))
	require.Equal(t, 0.30, CompletenessFraction(long))
}

func TestSuggestEmptyAnswerLowestBand(t *testing.T) {
	grader := NewEssayGrader()

	suggestion := grader.Suggest("", 10, "")
	require.GreaterOrEqual(t, suggestion.SuggestedScore, 0.0)
	require.LessOrEqual(t, suggestion.SuggestedScore, 2.0)
	require.NotEmpty(t, suggestion.Strengths, "at least one strength is always reported")
	require.NotEmpty(t, suggestion.Improvements)
}

func TestSuggestDeterministicWithoutJitter(t *testing.T) {
	grader := NewEssayGrader(WithJitter(noJitter))

	first := grader.Suggest(structuredAnswer, 10, "Explain photosynthesis.")
	second := grader.Suggest(structuredAnswer, 10, "Explain photosynthesis.")
	require.Equal(t, first, second)

	require.GreaterOrEqual(t, first.SuggestedScore, 8.0)
	require.LessOrEqual(t, first.SuggestedScore, 10.0)
	require.Contains(t, first.Comment, "Excellent")
	require.Contains(t, first.Strengths, "directly addresses terms from the question")
}

func TestSuggestScoreStaysWithinBounds(t *testing.T) {
	high := NewEssayGrader(WithJitter(func() float64 { return 0.05 }))
	low := NewEssayGrader(WithJitter(func() float64 { return -0.05 }))

	require.LessOrEqual(t, high.Suggest(structuredAnswer, 10, "").SuggestedScore, 10.0)
	require.GreaterOrEqual(t, low.Suggest("", 10, "").SuggestedScore, 0.0)
}

func TestSuggestDefaultStrengthWhenNoSignals(t *testing.T) {
	grader := NewEssayGrader(WithJitter(noJitter))

	suggestion := grader.Suggest("ok", 10, "")
	require.Equal(t, []string{"submission completed"}, suggestion.Strengths)
	require.Contains(t, suggestion.Comment, "too short")
}
