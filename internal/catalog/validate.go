package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/adaptiq/internal/formula"
)

// MinDifficulty and MaxDifficulty bound a template's difficulty level.
const (
	MinDifficulty = 1
	MaxDifficulty = 10
)

// minStringChoices is the smallest answer domain that yields three distinct
// string distractors.
const minStringChoices = 4

// MaxDomainMagnitude bounds numeric domain values to the range where
// float64 still represents every integer exactly.
const MaxDomainMagnitude = 1 << 53

// ValidationError lists every problem found in a catalog document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid catalog: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid catalog: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Schema is the JSON schema for catalog documents.
var Schema = map[string]any{
	"type":     "object",
	"required": []any{"version", "templates"},
	"properties": map[string]any{
		"version": map[string]any{"type": "string", "minLength": 1},
		"templates": map[string]any{
			"type":  "array",
			"items": TemplateSchema,
		},
	},
}

// TemplateSchema is the JSON schema for a single template.
var TemplateSchema = map[string]any{
	"type": "object",
	"required": []any{
		"id", "subject", "skill_area", "type", "difficulty_level",
		"text_pattern", "variable_domains", "answer_formula", "explanation_pattern",
	},
	"properties": map[string]any{
		"id":                  map[string]any{"type": "string", "minLength": 1},
		"subject":             map[string]any{"type": "string", "minLength": 1},
		"skill_area":          map[string]any{"type": "string", "minLength": 1},
		"type":                map[string]any{"type": "string", "enum": []any{string(TypeWordProblem), string(TypeArithmetic), string(TypeStringChoice)}},
		"difficulty_level":    map[string]any{"type": "integer", "minimum": MinDifficulty, "maximum": MaxDifficulty},
		"text_pattern":        map[string]any{"type": "string", "minLength": 1},
		"answer_formula":      map[string]any{"type": "string", "minLength": 1},
		"explanation_pattern": map[string]any{"type": "string"},
		"variable_domains": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"oneOf": []any{
					map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "number"}},
					map[string]any{"type": "array", "minItems": 1, "items": map[string]any{"type": "string"}},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a decoded JSON value rather than Go maps with
		// typed slices, so round-trip through encoding/json.
		raw, err := json.Marshal(Schema)
		if err != nil {
			compileErr = fmt.Errorf("marshal catalog schema: %w", err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://catalog.json", doc); err != nil {
			compileErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile("schema://catalog.json")
	})
	return compiled, compileErr
}

func validateSchema(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &ValidationError{Problems: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if err := sch.Validate(doc); err != nil {
		return &ValidationError{Problems: []string{fmt.Sprintf("schema: %v", err)}}
	}
	return nil
}

// Validate checks a decoded catalog document: semver version, unique ids and
// every template's internal consistency.
func Validate(f File) error {
	var problems []string

	v := f.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		problems = append(problems, fmt.Sprintf("version %q is not a semantic version", f.Version))
	}

	seen := make(map[string]bool, len(f.Templates))
	for i, t := range f.Templates {
		if t.ID != "" && seen[t.ID] {
			problems = append(problems, fmt.Sprintf("template %d: duplicate id %q", i, t.ID))
		}
		seen[t.ID] = true
		problems = append(problems, templateProblems(t)...)
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateTemplate checks a single template.
func ValidateTemplate(t QuestionTemplate) error {
	if problems := templateProblems(t); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func templateProblems(t QuestionTemplate) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf("template %q: ", t.ID)+fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(t.ID) == "" {
		add("id is empty")
	}
	if strings.TrimSpace(t.Subject) == "" {
		add("subject is empty")
	}
	if strings.TrimSpace(t.SkillArea) == "" {
		add("skill_area is empty")
	}
	switch t.Type {
	case TypeWordProblem, TypeArithmetic, TypeStringChoice:
	default:
		add("unknown type %q", t.Type)
	}
	if t.DifficultyLevel < MinDifficulty || t.DifficultyLevel > MaxDifficulty {
		add("difficulty_level %d outside [%d,%d]", t.DifficultyLevel, MinDifficulty, MaxDifficulty)
	}
	if strings.TrimSpace(t.TextPattern) == "" {
		add("text_pattern is empty")
	}

	for _, name := range t.DomainKeys() {
		d := t.VariableDomains[name]
		switch {
		case name == AnswerPlaceholder:
			add("variable name %q is reserved", name)
		case !formula.IsIdentifier(name):
			add("variable name %q is not an identifier", name)
		case d.Len() == 0:
			add("variable %q has an empty domain", name)
		}
		for _, v := range d.Numbers {
			if math.IsNaN(v) || math.Abs(v) > MaxDomainMagnitude {
				add("variable %q value %g exceeds magnitude %d", name, v, MaxDomainMagnitude)
				break
			}
		}
	}

	for _, p := range t.Placeholders() {
		if p == AnswerPlaceholder {
			continue
		}
		if _, ok := t.VariableDomains[p]; !ok {
			add("placeholder {%s} has no variable domain", p)
		}
	}
	if strings.Contains(t.TextPattern, "{"+AnswerPlaceholder+"}") {
		add("text_pattern must not contain {%s}", AnswerPlaceholder)
	}

	expr, err := formula.Parse(t.AnswerFormula)
	if err != nil {
		add("answer_formula: %v", err)
		return problems
	}

	if t.Type == TypeStringChoice {
		d, ok := t.VariableDomains[t.AnswerFormula]
		switch {
		case !formula.IsIdentifier(t.AnswerFormula) || !ok || !d.IsString():
			add("string_choice answer_formula must name a string variable")
		case distinctCount(d.Strings) < minStringChoices:
			add("string_choice answer domain %q needs at least %d distinct values", t.AnswerFormula, minStringChoices)
		}
		return problems
	}

	for _, name := range expr.Variables() {
		d, ok := t.VariableDomains[name]
		switch {
		case !ok:
			add("answer_formula references unknown variable %q", name)
		case d.IsString():
			add("answer_formula uses string variable %q in arithmetic", name)
		}
	}
	return problems
}

func distinctCount(values []string) int {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}
