package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/abhisek/adaptiq/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memorySink struct {
	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (s *memorySink) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, data)
	return s.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	sink := &memorySink{}
	m := NewMockProvider(MockResponse{Content: json.RawMessage(`{"name":"Ada","age":3}`), Usage: newUsage(12, 8)})
	p := WithLogging(m, ProviderMock, sink, nil)

	ctx := WithPurpose(context.Background(), PurposeTemplateDraft)
	_, err := p.Generate(ctx, Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "draft one"}},
		Schema:   testSchema(),
	})
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	ev := sink.events[0]
	assert.Equal(t, ProviderMock, ev.Provider)
	assert.Equal(t, PurposeTemplateDraft, ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Equal(t, 8, ev.OutputTokens)
	assert.JSONEq(t, `{"name":"Ada","age":3}`, ev.ResponseBody)
	assert.Contains(t, ev.RequestBody, "[system]\nbe brief")
	assert.Contains(t, ev.RequestBody, "[user]\ndraft one")
	assert.Contains(t, ev.RequestBody, "[schema: test-person]")
}

func TestLoggingProvider_RecordsFailure(t *testing.T) {
	sink := &memorySink{}
	p := WithLogging(NewMockProvider(MockResponse{Err: down}), ProviderMock, sink, nil)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	require.Len(t, sink.events, 1)
	assert.False(t, sink.events[0].Success)
	assert.Equal(t, PurposeUnknown, sink.events[0].Purpose)
	assert.Contains(t, sink.events[0].ErrorMessage, "down")
}

func TestLoggingProvider_SinkFailureOnlyWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	sink := &memorySink{err: errors.New("disk full")}
	p := WithLogging(NewMockProvider(okReply()), ProviderMock, sink, zap.New(core))

	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to record llm request", logs.All()[0].Message)
}

func TestLoggingProvider_WritesToStore(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/llm.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	repo := st.EventRepo()
	p := WithLogging(NewMockProvider(okReply()), ProviderMock, repo, nil)
	_, err = p.Generate(WithPurpose(context.Background(), PurposeTemplateDraft), Request{})
	require.NoError(t, err)

	events, err := repo.QueryLLMEvents(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, PurposeTemplateDraft, events[0].Purpose)
}
