package performance

import "fmt"

// Feedback returns an encouragement message for an answer. It reads the
// current state only; call it before RecordAnswer to reflect the learner's
// history up to this answer.
func (m *Model) Feedback(wasCorrect bool, concept string) string {
	concept = normalizeConcept(concept)
	s := m.metrics

	if wasCorrect {
		switch {
		case s.Pace == PaceFast:
			return fmt.Sprintf("Excellent! You're mastering %s quickly. Ready for a bigger challenge?", concept)
		case s.CorrectRatio > masteryRatio:
			return fmt.Sprintf("Great work! You're understanding %s really well.", concept)
		default:
			return "Correct! Nice job, keep it up."
		}
	}

	if s.StrugglingConcepts[concept] {
		return fmt.Sprintf("%s can be tricky. Let me break it down into smaller steps.", capitalize(concept))
	}
	return "Not quite. Let's work through it step by step together."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
