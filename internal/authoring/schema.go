package authoring

import (
	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/llm"
)

// DraftSchema is the structured output requested from the model. Variable
// domains are a list rather than a map because strict JSON-schema modes
// reject open-ended object keys.
var DraftSchema = &llm.Schema{
	Name:        "question-template",
	Description: "One parameterized question template for an adaptive lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{
				"type":        "string",
				"description": "Unique snake_case identifier, prefixed with the subject",
			},
			"type": map[string]any{
				"type": "string",
				"enum": []any{
					string(catalog.TypeWordProblem),
					string(catalog.TypeArithmetic),
					string(catalog.TypeStringChoice),
				},
			},
			"text_pattern": map[string]any{
				"type":        "string",
				"description": "Question text with {name} placeholders for each variable. Never includes {answer}.",
			},
			"variables": map[string]any{
				"type":        "array",
				"description": "One entry per placeholder. Fill numbers or strings, leave the other empty.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":    map[string]any{"type": "string"},
						"numbers": map[string]any{"type": "array", "items": map[string]any{"type": "number"}},
						"strings": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required":             []any{"name", "numbers", "strings"},
					"additionalProperties": false,
				},
			},
			"answer_formula": map[string]any{
				"type":        "string",
				"description": "Arithmetic over variable names using + - * / and parentheses, or for string_choice the name of one string variable",
			},
			"explanation_pattern": map[string]any{
				"type":        "string",
				"description": "Short worked explanation; may use {answer} and the variable placeholders",
			},
		},
		"required":             []any{"id", "type", "text_pattern", "variables", "answer_formula", "explanation_pattern"},
		"additionalProperties": false,
	},
}

type draftOutput struct {
	ID                 string     `json:"id"`
	Type               string     `json:"type"`
	TextPattern        string     `json:"text_pattern"`
	Variables          []variable `json:"variables"`
	AnswerFormula      string     `json:"answer_formula"`
	ExplanationPattern string     `json:"explanation_pattern"`
}

type variable struct {
	Name    string    `json:"name"`
	Numbers []float64 `json:"numbers"`
	Strings []string  `json:"strings"`
}

// template converts the model output. Subject, skill area and difficulty
// come from the request, not the model.
func (o draftOutput) template(in DraftInput) catalog.QuestionTemplate {
	t := catalog.QuestionTemplate{
		ID:                 o.ID,
		Subject:            in.Subject,
		SkillArea:          in.SkillArea,
		Type:               catalog.Type(o.Type),
		DifficultyLevel:    in.DifficultyLevel,
		TextPattern:        o.TextPattern,
		VariableDomains:    make(map[string]catalog.Domain, len(o.Variables)),
		AnswerFormula:      o.AnswerFormula,
		ExplanationPattern: o.ExplanationPattern,
	}
	for _, v := range o.Variables {
		if len(v.Strings) > 0 {
			t.VariableDomains[v.Name] = catalog.StringDomain(v.Strings...)
		} else {
			t.VariableDomains[v.Name] = catalog.NumberDomain(v.Numbers...)
		}
	}
	return t
}
