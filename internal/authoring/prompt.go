package authoring

import (
	"fmt"
	"strings"

	"github.com/abhisek/adaptiq/internal/catalog"
)

const systemPrompt = `You write question templates for an adaptive tutoring system used by children.

A template is a question pattern with {name} placeholders. At runtime each
placeholder is filled with a value drawn from that variable's domain, the
answer is computed from answer_formula, and three wrong options are generated
automatically. Rules:
- Every placeholder in text_pattern and explanation_pattern must have a variable, except {answer}.
- text_pattern must never contain {answer}.
- answer_formula uses only variable names, numbers, + - * / and parentheses.
- Pick domains so that every combination gives a sensible, positive answer with no division by zero.
- For string_choice, answer_formula is the name of one string variable with at least 4 distinct values.
- Use plain ASCII text, no LaTeX.
- Match the requested difficulty: 1 is a first-grade warm-up, 10 is challenging for a ten-year-old.`

func buildUserMessage(in DraftInput, existing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", in.Subject)
	fmt.Fprintf(&b, "Skill area: %s\n", in.SkillArea)
	fmt.Fprintf(&b, "Difficulty level: %d of %d\n", in.DifficultyLevel, catalog.MaxDifficulty)
	if in.Type != "" {
		fmt.Fprintf(&b, "Template type: %s\n", in.Type)
	}
	if in.Notes != "" {
		fmt.Fprintf(&b, "Author notes: %s\n", in.Notes)
	}

	b.WriteString("\nTemplate ids already in the catalog (do not reuse):\n")
	if len(existing) == 0 {
		b.WriteString("None")
	} else {
		b.WriteString(strings.Join(existing, "\n"))
	}
	return b.String()
}

// buildRepairMessage asks the model to fix the problems found in its
// previous draft.
func buildRepairMessage(problems []string) string {
	var b strings.Builder
	b.WriteString("That template failed validation:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	b.WriteString("Return a corrected template.")
	return b.String()
}
