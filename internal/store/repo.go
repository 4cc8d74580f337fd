package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// AnswerEventData captures one answered question.
type AnswerEventData struct {
	SessionID      string
	QuestionID     string
	TemplateID     string
	Subject        string
	SkillArea      string
	Concept        string
	Mode           string
	Difficulty     int
	QuestionText   string
	CorrectAnswer  string
	LearnerAnswer  string
	Correct        bool
	ResponseTimeMs int64
}

// AnswerEvent is a stored answer.
type AnswerEvent struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// Session actions.
const (
	SessionActionStart = "start"
	SessionActionEnd   = "end"
)

// SessionEventData captures a session lifecycle transition.
type SessionEventData struct {
	SessionID       string
	Action          string
	QuestionsServed int
	CorrectAnswers  int
	DurationSecs    int
	CorrectRatio    float64
	DifficultyLevel float64
}

// SessionEvent is a stored session transition.
type SessionEvent struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored LLM call.
type LLMRequestEvent struct {
	ID        string
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM calls for one purpose or model.
type LLMUsageStats struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryAnswerEvents returns a session's answers in sequence order.
	QueryAnswerEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]AnswerEvent, error)
	// QuerySessionEvents returns a session's lifecycle events in sequence order.
	QuerySessionEvents(ctx context.Context, sessionID string) ([]SessionEvent, error)
	// QueryLLMEvents returns LLM events, most recent first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns one LLM event, or nil if id is unknown.
	GetLLMEvent(ctx context.Context, id string) (*LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates LLM calls per purpose, busiest first.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	// LLMUsageByModel aggregates LLM calls per model, busiest first.
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)

	// SessionAccuracy returns the fraction of correct answers and the
	// number of answers recorded for a session.
	SessionAccuracy(ctx context.Context, sessionID string) (float64, int, error)
}
