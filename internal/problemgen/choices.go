package problemgen

import (
	"fmt"
	"strings"
)

// OptionCount is the number of options on every generated question.
const OptionCount = 4

// ChoicesValidator checks the multiple-choice invariants: four distinct,
// non-empty options, exactly one of which equals the correct answer, at
// CorrectOptionIndex.
type ChoicesValidator struct{}

func (v *ChoicesValidator) Name() string { return "choices" }

func (v *ChoicesValidator) Validate(q *GeneratedQuestion) *ValidationError {
	if len(q.Options) != OptionCount {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected exactly %d options, got %d", OptionCount, len(q.Options)),
			Retryable: true,
		}
	}

	seen := make(map[string]bool, len(q.Options))
	matches := 0
	for i, o := range q.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d is empty", i+1),
				Retryable: true,
			}
		}
		key := strings.ToLower(o)
		if seen[key] {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("duplicate option %q", o),
				Retryable: true,
			}
		}
		seen[key] = true
		if strings.EqualFold(o, strings.TrimSpace(q.CorrectAnswer)) {
			matches++
		}
	}

	if matches != 1 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("answer %q matches %d options, want exactly 1", q.CorrectAnswer, matches),
			Retryable: true,
		}
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) ||
		q.Options[q.CorrectOptionIndex] != q.CorrectAnswer {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("correct_option_index %d does not point at the answer", q.CorrectOptionIndex),
		}
	}
	return nil
}
