package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-person",
		Description: "a person",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"age":   map[string]any{"type": "integer", "minimum": 0},
				"grade": map[string]any{"type": "string", "enum": []any{"A", "B", "C"}},
			},
			"required": []any{"name", "age"},
		},
	}
}

func TestMockProvider_ReplaysScript(t *testing.T) {
	m := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: newUsage(10, 5)},
		MockResponse{Err: &ErrRateLimit{}},
	)
	m.Push(MockResponse{Content: json.RawMessage(`{"c":3}`)})

	resp, err := m.Generate(context.Background(), Request{System: "first"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(resp.Content))
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, ProviderMock, resp.Model)

	_, err = m.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	resp, err = m.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"c":3}`, string(resp.Content))

	_, err = m.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail, "exhausted script")

	reqs := m.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "first", reqs[0].System)
	assert.Equal(t, 4, m.CallCount())
}

func TestMockProvider_ValidatesStructuredReplies(t *testing.T) {
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"age":3}`)})
	_, err := m.Generate(context.Background(), Request{Schema: testSchema()})
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestPurpose(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, PurposeUnknown, PurposeFrom(ctx))
	assert.Equal(t, PurposeUnknown, PurposeFrom(WithPurpose(ctx, "")))
	assert.Equal(t, PurposeTemplateDraft, PurposeFrom(WithPurpose(ctx, PurposeTemplateDraft)))
}

func TestClassifyStatus(t *testing.T) {
	var rl *ErrRateLimit
	assert.ErrorAs(t, classifyStatus(429, assert.AnError), &rl)

	var unavail *ErrProviderUnavailable
	for _, status := range []int{0, 400, 500, 503} {
		err := classifyStatus(status, assert.AnError)
		assert.ErrorAs(t, err, &unavail, "status %d", status)
		assert.ErrorIs(t, err, assert.AnError)
	}
}
