package dto

import (
	"github.com/noah-isme/assess-go-api/internal/models"
	"github.com/noah-isme/assess-go-api/internal/variant"
)

// VariantQuestionResponse is one question as it appears on a printed
// variant: position and choices already shuffled.
type VariantQuestionResponse struct {
	QuestionID uint     `json:"question_id"`
	Kind       string   `json:"kind"`
	Prompt     string   `json:"prompt"`
	Choices    []string `json:"choices,omitempty"`
	MaxScore   float64  `json:"max_score"`
}

// VariantKeyEntry is one line of the printable answer key.
type VariantKeyEntry struct {
	QuestionID uint   `json:"question_id"`
	Answer     string `json:"answer"`
}

// ExamVariantResponse is one shuffled rendering of an assignment.
type ExamVariantResponse struct {
	Code      string                    `json:"code"`
	Questions []VariantQuestionResponse `json:"questions"`
	AnswerKey []VariantKeyEntry         `json:"answer_key"`
}

// NewExamVariantResponse renders a computed variant against the canonical
// question list.
func NewExamVariantResponse(v variant.Variant, questions []models.Question) ExamVariantResponse {
	byID := make(map[uint]models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	rendered := make([]VariantQuestionResponse, 0, len(v.QuestionOrder))
	key := make([]VariantKeyEntry, 0, len(v.QuestionOrder))
	for _, questionID := range v.QuestionOrder {
		q, ok := byID[questionID]
		if !ok {
			continue
		}

		item := VariantQuestionResponse{
			QuestionID: q.ID,
			Kind:       q.Kind,
			Prompt:     q.Prompt,
			MaxScore:   q.MaxScore,
		}
		if mapping, ok := v.ChoiceMapping[q.ID]; ok {
			item.Choices = variant.RenderChoices(q, mapping)
		}
		rendered = append(rendered, item)

		key = append(key, VariantKeyEntry{
			QuestionID: q.ID,
			Answer:     variant.AnswerLetter(v.AnswerKey[q.ID]),
		})
	}

	return ExamVariantResponse{
		Code:      v.Code,
		Questions: rendered,
		AnswerKey: key,
	}
}

// NewExamVariantResponseSlice renders all computed variants.
func NewExamVariantResponseSlice(variants []variant.Variant, questions []models.Question) []ExamVariantResponse {
	responses := make([]ExamVariantResponse, 0, len(variants))
	for _, v := range variants {
		responses = append(responses, NewExamVariantResponse(v, questions))
	}

	return responses
}
