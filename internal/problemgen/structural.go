package problemgen

import "strings"

const (
	maxQuestionTextLen = 500
	maxExplanationLen  = 1000
)

// StructuralValidator checks that required fields are present and within
// length limits, and that no placeholder was left unsubstituted.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *GeneratedQuestion) *ValidationError {
	if q.TemplateID == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "template_id is empty",
		}
	}
	if strings.TrimSpace(q.QuestionText) == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question_text is empty",
		}
	}
	if len(q.QuestionText) > maxQuestionTextLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question_text exceeds 500 characters",
			Retryable: true,
		}
	}
	if len(q.ExplanationText) > maxExplanationLen {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "explanation exceeds 1000 characters",
			Retryable: true,
		}
	}
	if placeholderLeft(q.QuestionText) || placeholderLeft(q.ExplanationText) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "unsubstituted placeholder in question or explanation",
		}
	}
	return nil
}

func placeholderLeft(s string) bool {
	open := strings.IndexByte(s, '{')
	return open >= 0 && strings.IndexByte(s[open:], '}') > 0
}
