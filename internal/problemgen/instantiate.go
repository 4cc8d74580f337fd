package problemgen

import (
	"math"
	"strings"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/formula"
)

const (
	distractorCount  = OptionCount - 1
	maxDistractorGap = 10
	scaledDistractor = 1.5
	maxPadSteps      = 64
)

// Instantiate builds a question from t without session data. vars picks the
// variable values; opts picks distractors and shuffles the options.
//
// A formula that fails to evaluate yields the answer 0 and the returned
// error; the question is still usable.
func Instantiate(t catalog.QuestionTemplate, vars, opts Rand) (GeneratedQuestion, error) {
	bindings := make(map[string]catalog.Value, len(t.VariableDomains)+1)
	for _, name := range t.DomainKeys() {
		d := t.VariableDomains[name]
		if d.Len() == 0 {
			continue
		}
		bindings[name] = d.At(vars.IntN(d.Len()))
	}

	answer, err := evaluate(t, bindings)
	correct := answer.String()

	var distractors []string
	if answer.IsString {
		distractors = stringDistractors(correct, t.VariableDomains[strings.TrimSpace(t.AnswerFormula)], opts)
	} else {
		distractors = numericDistractors(answer.Num, opts)
	}
	options, idx := shuffle(append([]string{correct}, distractors...), opts)

	text := catalog.Substitute(t.TextPattern, bindings)
	bindings[catalog.AnswerPlaceholder] = answer
	explanation := catalog.Substitute(t.ExplanationPattern, bindings)

	return GeneratedQuestion{
		TemplateID:         t.ID,
		QuestionText:       text,
		Options:            options,
		CorrectOptionIndex: idx,
		CorrectAnswer:      correct,
		ExplanationText:    explanation,
		Subject:            t.Subject,
		SkillArea:          t.SkillArea,
		Type:               t.Type,
		Difficulty:         t.DifficultyLevel,
	}, err
}

// evaluate resolves the answer. A formula naming a single string variable
// answers with that string; anything else is arithmetic over the numeric
// bindings.
func evaluate(t catalog.QuestionTemplate, bindings map[string]catalog.Value) (catalog.Value, error) {
	src := strings.TrimSpace(t.AnswerFormula)
	if v, ok := bindings[src]; ok && v.IsString {
		return v, nil
	}

	nums := make(map[string]float64, len(bindings))
	for name, v := range bindings {
		if !v.IsString {
			nums[name] = v.Num
		}
	}
	n, err := formula.Eval(src, nums)
	if err != nil {
		return catalog.Number(0), err
	}
	return catalog.Number(n), nil
}

// numericDistractors returns exactly three positive values distinct from c
// and from each other: c+k, max(1, c-k) and floor(c*1.5), with k drawn from
// 1..10, padded with c+1, c+2, ... when filtering leaves fewer than three.
// Past 2^53 the padding steps by the float spacing at c, and if that still
// leaves gaps the small integers 1, 2, 3 fill them.
func numericDistractors(c float64, r Rand) []string {
	correct := catalog.FormatNumber(c)
	seen := map[string]bool{correct: true}
	out := make([]string, 0, distractorCount)

	add := func(v float64) {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) || len(out) == distractorCount {
			return
		}
		s := catalog.FormatNumber(v)
		if seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	add(c + float64(r.IntN(maxDistractorGap)+1))
	add(math.Max(1, c-float64(r.IntN(maxDistractorGap)+1)))
	add(math.Floor(c * scaledDistractor))

	step := math.Max(1, math.Nextafter(c, math.Inf(1))-c)
	for k := 1.0; len(out) < distractorCount && k <= maxPadSteps; k++ {
		add(c + k*step)
	}
	for v := 1.0; len(out) < distractorCount; v++ {
		add(v)
	}
	return out
}

// stringDistractors draws up to three other values from the answer's domain.
func stringDistractors(correct string, d catalog.Domain, r Rand) []string {
	seen := map[string]bool{strings.ToLower(correct): true}
	var pool []string
	for _, s := range d.Strings {
		key := strings.ToLower(s)
		if !seen[key] {
			seen[key] = true
			pool = append(pool, s)
		}
	}
	pool, _ = shuffle(pool, r)
	if len(pool) > distractorCount {
		pool = pool[:distractorCount]
	}
	return pool
}

// shuffle applies a Fisher-Yates shuffle in place and returns where the
// element initially at index 0 ended up.
func shuffle(items []string, r Rand) ([]string, int) {
	pos := 0
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
		switch pos {
		case i:
			pos = j
		case j:
			pos = i
		}
	}
	return items, pos
}
