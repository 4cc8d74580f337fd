package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
)

// Type is the question shape a template produces. It decides how
// distractors are synthesized.
type Type string

const (
	TypeWordProblem  Type = "word_problem"
	TypeArithmetic   Type = "arithmetic"
	TypeStringChoice Type = "string_choice"
)

// AnswerPlaceholder is the reserved placeholder bound to the evaluated answer.
const AnswerPlaceholder = "answer"

// GeneralSkillArea marks templates that match any skill area in a subject.
const GeneralSkillArea = "general"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Value is one element of a Domain: either a number or a string.
type Value struct {
	Num      float64
	Str      string
	IsString bool
}

// Number returns a numeric Value.
func Number(n float64) Value { return Value{Num: n} }

// Text returns a string Value.
func Text(s string) Value { return Value{Str: s, IsString: true} }

// String renders the value the way it is substituted into patterns.
// Integral numbers print without a decimal point.
func (v Value) String() string {
	if v.IsString {
		return v.Str
	}
	return FormatNumber(v.Num)
}

// FormatNumber prints n in its shortest form, without trailing zeros.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Domain is the list of values a template variable may take. A domain holds
// either numbers or strings, never both.
type Domain struct {
	Numbers []float64
	Strings []string
}

// NumberDomain builds a numeric domain.
func NumberDomain(values ...float64) Domain { return Domain{Numbers: values} }

// StringDomain builds a string domain.
func StringDomain(values ...string) Domain { return Domain{Strings: values} }

// IsString reports whether the domain holds strings.
func (d Domain) IsString() bool { return len(d.Strings) > 0 }

// Len returns the number of values.
func (d Domain) Len() int {
	if d.IsString() {
		return len(d.Strings)
	}
	return len(d.Numbers)
}

// At returns the i-th value.
func (d Domain) At(i int) Value {
	if d.IsString() {
		return Text(d.Strings[i])
	}
	return Number(d.Numbers[i])
}

// MarshalJSON encodes the domain as a plain JSON array.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d.IsString() {
		return json.Marshal(d.Strings)
	}
	if d.Numbers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.Numbers)
}

// UnmarshalJSON accepts an array of numbers or an array of strings.
func (d *Domain) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("variable domain must be an array: %w", err)
	}
	*d = Domain{}
	if len(raw) == 0 {
		return nil
	}
	if bytes.HasPrefix(bytes.TrimSpace(raw[0]), []byte(`"`)) {
		if err := json.Unmarshal(data, &d.Strings); err != nil {
			return fmt.Errorf("variable domain mixes strings and other values: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, &d.Numbers); err != nil {
		return fmt.Errorf("variable domain mixes numbers and other values: %w", err)
	}
	return nil
}

// QuestionTemplate is a parameterized question pattern. Templates are owned
// by a Catalog and treated as immutable.
type QuestionTemplate struct {
	ID                 string            `json:"id"`
	Subject            string            `json:"subject"`
	SkillArea          string            `json:"skill_area"`
	Type               Type              `json:"type"`
	DifficultyLevel    int               `json:"difficulty_level"`
	TextPattern        string            `json:"text_pattern"`
	VariableDomains    map[string]Domain `json:"variable_domains"`
	AnswerFormula      string            `json:"answer_formula"`
	ExplanationPattern string            `json:"explanation_pattern"`
}

// DomainKeys returns the variable names in sorted order. Generators iterate
// domains in this order so seeded generation is reproducible.
func (t QuestionTemplate) DomainKeys() []string {
	keys := make([]string, 0, len(t.VariableDomains))
	for k := range t.VariableDomains {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Placeholders returns the distinct {name} tokens used in the text and
// explanation patterns, in order of first appearance.
func (t QuestionTemplate) Placeholders() []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range []string{t.TextPattern, t.ExplanationPattern} {
		for _, m := range placeholderPattern.FindAllStringSubmatch(p, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				out = append(out, m[1])
			}
		}
	}
	return out
}

// Substitute replaces every {name} in pattern with the matching binding.
// Unbound placeholders are left untouched.
func Substitute(pattern string, bindings map[string]Value) string {
	return placeholderPattern.ReplaceAllStringFunc(pattern, func(tok string) string {
		if v, ok := bindings[tok[1:len(tok)-1]]; ok {
			return v.String()
		}
		return tok
	})
}

// Matches reports whether the template serves a request for subject and
// skillArea at the given integer difficulty level.
func (t QuestionTemplate) Matches(subject, skillArea string, level int) bool {
	if t.Subject != subject {
		return false
	}
	if t.SkillArea != skillArea && t.SkillArea != GeneralSkillArea {
		return false
	}
	return t.DifficultyLevel <= level
}
