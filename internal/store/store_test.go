package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestReopenKeepsSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EventRepo().AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Action: SessionActionStart}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.EventRepo().AppendSessionEvent(ctx, SessionEventData{SessionID: "a", Action: SessionActionEnd}))

	events, err := s.EventRepo().QuerySessionEvents(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Sequence)
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.Equal(t, SessionActionEnd, events[1].Action)
}

func TestAnswerEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, correct := range []bool{true, false, true, true} {
		require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{
			SessionID:      "s1",
			QuestionID:     "q" + string(rune('0'+i)),
			TemplateID:     "math_addition_gems",
			Subject:        "mathematics",
			SkillArea:      "addition",
			Concept:        "addition",
			Mode:           "template",
			Difficulty:     1,
			QuestionText:   "What is 2 + 2?",
			CorrectAnswer:  "4",
			LearnerAnswer:  "4",
			Correct:        correct,
			ResponseTimeMs: 1500,
		}))
	}
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{SessionID: "other", Correct: false}))

	acc, n, err := repo.SessionAccuracy(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.InDelta(t, 0.75, acc, 1e-9)

	acc, n, err = repo.SessionAccuracy(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0.0, acc)

	events, err := repo.QueryAnswerEvents(ctx, "s1", QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "q0", events[0].QuestionID)
	assert.True(t, events[0].Correct)
	assert.False(t, events[1].Correct)
	assert.Equal(t, int64(1500), events[0].ResponseTimeMs)
	assert.Len(t, events[0].ID, 26, "ULID")
	assert.Less(t, events[0].ID, events[1].ID, "ids sort in insertion order")
	assert.WithinDuration(t, time.Now(), events[0].Timestamp, time.Minute)

	page, err := repo.QueryAnswerEvents(ctx, "s1", QueryOpts{After: events[1].Sequence, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "q2", page[0].QuestionID)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, purpose := range []string{"template-draft", "template-draft", "other"} {
		var errMsg string
		if purpose == "other" {
			errMsg = "boom"
		}
		require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "mock",
			Model:        "mock-model",
			Purpose:      purpose,
			InputTokens:  10,
			OutputTokens: 20,
			LatencyMs:    5,
			Success:      purpose != "other",
			ErrorMessage: errMsg,
			RequestBody:  "[user]\nhello",
			ResponseBody: `{"ok":true}`,
		}))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "other", events[0].Purpose, "most recent first")
	assert.False(t, events[0].Success)
	assert.Equal(t, "boom", events[0].ErrorMessage)

	got, err := repo.GetLLMEvent(ctx, events[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"ok":true}`, got.ResponseBody)
	assert.Equal(t, 20, got.OutputTokens)

	missing, err := repo.GetLLMEvent(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsageStats{Key: "template-draft", Calls: 2, InputTokens: 20, OutputTokens: 40, AvgLatencyMs: 5}, byPurpose[0])
	assert.Equal(t, "other", byPurpose[1].Key)
	assert.Equal(t, 1, byPurpose[1].Failures)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 3, byModel[0].Calls)
	assert.Equal(t, 60, byModel[0].OutputTokens)
}

func TestUsageStore(t *testing.T) {
	s := openTestStore(t)
	u := s.UsageStore(nil)

	assert.False(t, u.Exists("s1"))
	u.MarkUsed("s1", "t1")
	u.MarkUsed("s1", "t1")
	u.MarkUsed("s1", "t2")
	u.MarkUsed("s2", "t1")

	assert.True(t, u.Exists("s1"))
	assert.True(t, u.IsUsed("s1", "t2"))
	assert.False(t, u.IsUsed("s1", "t3"))
	assert.Equal(t, 2, u.Len("s1"))

	u.Reset("s1")
	assert.True(t, u.Exists("s1"))
	assert.Equal(t, 0, u.Len("s1"))
	assert.True(t, u.IsUsed("s2", "t1"), "reset is per session")

	u.Clear("s2")
	assert.False(t, u.Exists("s2"))
	assert.False(t, u.IsUsed("s2", "t1"))
}

func TestUsageStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")

	s, err := Open(path)
	require.NoError(t, err)
	s.UsageStore(nil).MarkUsed("s1", "math_addition_gems")
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, s.UsageStore(nil).IsUsed("s1", "math_addition_gems"))
}

func TestDefaultDBPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "adaptiq.db")
	t.Setenv("ADAPTIQ_DB", want)

	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.DirExists(t, filepath.Dir(want))
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ADAPTIQ_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "adaptiq", "adaptiq.db"), got)
}
