package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/llm"
)

const goodDraft = `{
  "id": "math_addition_marbles",
  "type": "word_problem",
  "text_pattern": "Mia has {a} marbles and finds {b} more. How many marbles does she have?",
  "variables": [
    {"name": "a", "numbers": [3, 4, 5, 6], "strings": []},
    {"name": "b", "numbers": [1, 2, 3], "strings": []}
  ],
  "answer_formula": "a + b",
  "explanation_pattern": "{a} + {b} = {answer}"
}`

func input() DraftInput {
	return DraftInput{Subject: "mathematics", SkillArea: "addition", DifficultyLevel: 2}
}

func reply(s string) llm.MockResponse { return llm.MockResponse{Content: json.RawMessage(s)} }

func TestDraft_Accepts(t *testing.T) {
	mock := llm.NewMockProvider(reply(goodDraft))
	d := New(mock, catalog.Default(), DefaultConfig())

	tmpl, err := d.Draft(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "math_addition_marbles", tmpl.ID)
	assert.Equal(t, "mathematics", tmpl.Subject)
	assert.Equal(t, "addition", tmpl.SkillArea)
	assert.Equal(t, 2, tmpl.DifficultyLevel)
	assert.Equal(t, catalog.TypeWordProblem, tmpl.Type)
	assert.Equal(t, catalog.NumberDomain(3, 4, 5, 6), tmpl.VariableDomains["a"])

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, DraftSchema, reqs[0].Schema)
	prompt := reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "Skill area: addition")
	assert.Contains(t, prompt, "math_addition_gems", "existing ids are listed")
	assert.NotContains(t, prompt, "english_sight_words", "other subjects are not")
}

func TestDraft_RepairsRejectedDraft(t *testing.T) {
	bad := `{
	  "id": "math_addition_marbles",
	  "type": "word_problem",
	  "text_pattern": "Mia has {a} marbles and finds {c} more. Answer: {answer}",
	  "variables": [{"name": "a", "numbers": [3], "strings": []}],
	  "answer_formula": "a + c",
	  "explanation_pattern": ""
	}`
	mock := llm.NewMockProvider(reply(bad), reply(goodDraft))
	d := New(mock, catalog.Default(), DefaultConfig())

	tmpl, err := d.Draft(context.Background(), input())
	require.NoError(t, err)
	assert.Equal(t, "math_addition_marbles", tmpl.ID)

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	msgs := reqs[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[2].Content, "placeholder {c} has no variable domain")
	assert.Contains(t, msgs[2].Content, "must not contain {answer}")
}

func TestDraft_GivesUpAfterMaxAttempts(t *testing.T) {
	collision := `{
	  "id": "math_addition_gems",
	  "type": "arithmetic",
	  "text_pattern": "{a} + 1 = ?",
	  "variables": [{"name": "a", "numbers": [1, 2], "strings": []}],
	  "answer_formula": "a + 1",
	  "explanation_pattern": ""
	}`
	mock := llm.NewMockProvider(reply(collision), reply(collision), reply(goodDraft))
	d := New(mock, catalog.Default(), DefaultConfig())

	_, err := d.Draft(context.Background(), input())
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems[0], "already in the catalog")
	assert.Equal(t, 2, mock.CallCount())
}

func TestDraft_EnforcesRequestedType(t *testing.T) {
	in := input()
	in.Type = catalog.TypeArithmetic
	d := New(llm.NewMockProvider(reply(goodDraft)), nil, Config{MaxAttempts: 1})

	_, err := d.Draft(context.Background(), in)
	var verr *catalog.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Problems, `type must be "arithmetic", got "word_problem"`)
}

func TestDraft_StringChoice(t *testing.T) {
	draft := `{
	  "id": "english_animal_sounds",
	  "type": "string_choice",
	  "text_pattern": "Which animal says moo?",
	  "variables": [{"name": "animal", "numbers": [], "strings": ["cow", "dog", "cat", "duck"]}],
	  "answer_formula": "animal",
	  "explanation_pattern": "A {answer} says moo."
	}`
	d := New(llm.NewMockProvider(reply(draft)), nil, DefaultConfig())
	tmpl, err := d.Draft(context.Background(), DraftInput{Subject: "english", SkillArea: "vocabulary", DifficultyLevel: 1})
	require.NoError(t, err)
	assert.True(t, tmpl.VariableDomains["animal"].IsString())
}

func TestDraft_ProviderError(t *testing.T) {
	d := New(llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{Err: errors.New("slow down")}}), nil, DefaultConfig())
	_, err := d.Draft(context.Background(), input())
	var rl *llm.ErrRateLimit
	assert.ErrorAs(t, err, &rl)
}

func TestDraft_SchemaViolation(t *testing.T) {
	d := New(llm.NewMockProvider(reply(`{"id":"x"}`)), nil, DefaultConfig())
	_, err := d.Draft(context.Background(), input())
	var invalid *llm.ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestDraft_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   DraftInput
	}{
		{"no subject", DraftInput{SkillArea: "x", DifficultyLevel: 1}},
		{"no skill", DraftInput{Subject: "mathematics", DifficultyLevel: 1}},
		{"difficulty zero", DraftInput{Subject: "mathematics", SkillArea: "x"}},
		{"difficulty eleven", DraftInput{Subject: "mathematics", SkillArea: "x", DifficultyLevel: 11}},
		{"unknown type", DraftInput{Subject: "mathematics", SkillArea: "x", DifficultyLevel: 1, Type: "essay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider()
			_, err := New(mock, nil, DefaultConfig()).Draft(context.Background(), tt.in)
			assert.Error(t, err)
			assert.Zero(t, mock.CallCount())
		})
	}
}

func TestExistingIDs_Capped(t *testing.T) {
	d := New(nil, catalog.Default(), Config{MaxExistingIDs: 2})
	ids := d.existingIDs("mathematics")
	assert.Len(t, ids, 2)
	assert.IsIncreasing(t, ids)
}
