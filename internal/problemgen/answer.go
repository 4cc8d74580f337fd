package problemgen

import (
	"strconv"
	"strings"
)

// CheckAnswer compares a learner's response against the question.
//
// Normalization rules:
//   - Whitespace is trimmed and comparison is case-insensitive
//   - Numeric answers compare by value ("7.0" matches "7")
//   - A response equal to an option's text is matched as text first;
//     otherwise an integer 1..len(Options) selects that option
func CheckAnswer(response string, q *GeneratedQuestion) bool {
	response = strings.TrimSpace(response)
	if response == "" {
		return false
	}

	for i, o := range q.Options {
		if sameAnswer(response, o) {
			return i == q.CorrectOptionIndex
		}
	}

	if idx, err := strconv.Atoi(response); err == nil && idx >= 1 && idx <= len(q.Options) {
		return CheckOption(idx-1, q)
	}
	return sameAnswer(response, q.CorrectAnswer)
}

// CheckOption reports whether the zero-based option index is the correct one.
func CheckOption(index int, q *GeneratedQuestion) bool {
	return index >= 0 && index < len(q.Options) && index == q.CorrectOptionIndex
}

func sameAnswer(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if strings.EqualFold(a, b) {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && fa == fb
}
