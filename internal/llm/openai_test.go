package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	path string
	body map[string]any
}

func chatServer(t *testing.T, status int, reply map[string]any) (string, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1", got
}

func chatCompletion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	url, got := chatServer(t, http.StatusOK, chatCompletion(`{"name":"Bo","age":7}`, "stop"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		System:    "sys",
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		Schema:    testSchema(),
		MaxTokens: 128,
	})
	require.NoError(t, err)
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}, resp.Usage)
	assert.Equal(t, StopEnd, resp.StopReason)

	assert.Equal(t, "/v1/chat/completions", got.path)
	msgs, _ := got.body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	format, _ := got.body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIProvider_SchemaMismatch(t *testing.T) {
	url, _ := chatServer(t, http.StatusOK, chatCompletion(`{"name":"Bo"}`, "stop"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}, Schema: testSchema()})
	var invalid *ErrInvalidResponse
	assert.ErrorAs(t, err, &invalid)
}

func TestOpenAIProvider_StatusMapping(t *testing.T) {
	errBody := map[string]any{"error": map[string]any{"message": "nope", "type": "x"}}
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"rate limit", http.StatusTooManyRequests, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{"server error", http.StatusBadGateway, func(t *testing.T, err error) {
			var unavail *ErrProviderUnavailable
			assert.ErrorAs(t, err, &unavail)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, _ := chatServer(t, tt.status, errBody)
			p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: url})
			require.NoError(t, err)
			_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x/y"})
	assert.Error(t, err)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.ModelID())
	assert.Equal(t, ProviderOpenRouter, p.Name())

	url, got := chatServer(t, http.StatusOK, chatCompletion("plain text", "length"))
	p, err = NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "meta/llama", BaseURL: url})
	require.NoError(t, err)
	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err, "unstructured output is returned even when truncated")
	assert.Equal(t, StopMaxTokens, resp.StopReason)
	assert.Equal(t, "meta/llama", got.body["model"])
}
