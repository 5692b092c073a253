// Package variant produces deterministic shuffled print variants ("exam
// codes") of an assignment, together with per-variant answer keys. The
// output is a pure function of the assignment id, the question list and the
// requested codes, so a lost answer key can always be regenerated.
package variant

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"

	"github.com/noah-isme/assess-go-api/internal/models"
)

// EssayAnswerKey marks questions that are not objectively keyed.
const EssayAnswerKey = -1

// DefaultCodes is the variant alphabet used when the caller supplies none.
var DefaultCodes = []string{"A", "B", "C", "D"}

var (
	// ErrNoQuestions is returned when the assignment has no questions.
	ErrNoQuestions = errors.New("variant: assignment has no questions")
	// ErrNoCodes is returned when no variant codes are requested.
	ErrNoCodes = errors.New("variant: no variant codes requested")
	// ErrTooFewChoices is returned for an mcq question with fewer than two choices.
	ErrTooFewChoices = errors.New("variant: mcq question needs at least two choices")
	// ErrCorrectIndexOutOfRange is returned when an mcq question's correct
	// choice index does not point into its choice list.
	ErrCorrectIndexOutOfRange = errors.New("variant: correct choice index out of range")
)

// Variant is one shuffled rendering of an assignment, identified by a code
// letter. It is an ephemeral computed value; callers may persist it for
// reprinting but this package never does.
type Variant struct {
	Code          string         `json:"code"`
	QuestionOrder []uint         `json:"question_order"`
	ChoiceMapping map[uint][]int `json:"choice_mapping"`
	AnswerKey     map[uint]int   `json:"answer_key"`
}

// Generate derives one variant per code. Calling it twice with the same
// assignment id, questions and codes yields identical output.
//
// Each code seeds a Fisher-Yates shuffle of the question order with
// "<assignmentID>:<code>"; each mcq question additionally seeds its choice
// shuffle with ":q<position>" appended, so different questions do not reuse
// the same pseudo-random subsequence.
func Generate(assignmentID uint, questions []models.Question, codes []string) ([]Variant, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if len(codes) == 0 {
		return nil, ErrNoCodes
	}
	for _, q := range questions {
		if !q.IsMCQ() {
			continue
		}
		if len(q.Choices) < 2 {
			return nil, fmt.Errorf("%w: question %d", ErrTooFewChoices, q.ID)
		}
		if q.CorrectChoiceIndex == nil || *q.CorrectChoiceIndex < 0 || *q.CorrectChoiceIndex >= len(q.Choices) {
			return nil, fmt.Errorf("%w: question %d", ErrCorrectIndexOutOfRange, q.ID)
		}
	}

	variants := make([]Variant, 0, len(codes))
	for _, code := range codes {
		seed := strconv.FormatUint(uint64(assignmentID), 10) + ":" + code

		order := make([]uint, len(questions))
		perm := shuffledIndices(len(questions), seed)
		for i, src := range perm {
			order[i] = questions[src].ID
		}

		v := Variant{
			Code:          code,
			QuestionOrder: order,
			ChoiceMapping: make(map[uint][]int, len(questions)),
			AnswerKey:     make(map[uint]int, len(questions)),
		}

		for pos, q := range questions {
			if !q.IsMCQ() {
				v.AnswerKey[q.ID] = EssayAnswerKey
				continue
			}
			mapping := shuffledIndices(len(q.Choices), seed+":q"+strconv.Itoa(pos))
			v.ChoiceMapping[q.ID] = mapping
			v.AnswerKey[q.ID] = indexOf(mapping, *q.CorrectChoiceIndex)
		}

		variants = append(variants, v)
	}

	return variants, nil
}

// RenderChoices reorders a question's choices per the variant mapping: the
// i-th displayed choice is choices[mapping[i]].
func RenderChoices(q models.Question, mapping []int) []string {
	rendered := make([]string, 0, len(mapping))
	for _, original := range mapping {
		if original >= 0 && original < len(q.Choices) {
			rendered = append(rendered, q.Choices[original])
		}
	}
	return rendered
}

// ToOriginalChoiceIndex maps a selection on the shuffled sheet back to the
// canonical choice index of the question model.
func ToOriginalChoiceIndex(shuffledIndex int, mapping []int) (int, bool) {
	if shuffledIndex < 0 || shuffledIndex >= len(mapping) {
		return 0, false
	}
	return mapping[shuffledIndex], true
}

// AnswerLetter renders an answer-key entry for printing: "A", "B", ... for
// keyed questions and "essay" for the sentinel.
func AnswerLetter(keyIndex int) string {
	if keyIndex == EssayAnswerKey {
		return "essay"
	}
	return string(rune('A' + keyIndex))
}

// shuffledIndices returns a Fisher-Yates permutation of [0..n) driven by a
// generator seeded from the string's FNV-1a hash.
func shuffledIndices(n int, seed string) []int {
	hasher := fnv.New64a()
	hasher.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(hasher.Sum64())))

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}

func indexOf(values []int, target int) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return EssayAnswerKey
}
