package engine

import (
	"slices"
	"sync"
	"time"

	"github.com/abhisek/adaptiq/internal/pacing"
	"github.com/abhisek/adaptiq/internal/performance"
	"github.com/abhisek/adaptiq/internal/problemgen"
)

// session is one learner's live state. mu serializes everything touching
// the model, which is not safe for concurrent use.
type session struct {
	id        string
	startedAt time.Time

	mu      sync.Mutex
	model   *performance.Model
	alloc   *pacing.Allocator
	pending map[string]*problemgen.GeneratedQuestion
	// order lists pending ids oldest first.
	order      []string
	maxPending int

	served   int
	answered int
	correct  int
}

func newSession(id string, model *performance.Model, pc pacing.Config, maxPending int, now time.Time) *session {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &session{
		id:         id,
		startedAt:  now,
		model:      model,
		alloc:      pacing.New(pc, model),
		pending:    make(map[string]*problemgen.GeneratedQuestion),
		maxPending: maxPending,
	}
}

// remember stores a served question, dropping the oldest unanswered ones
// beyond maxPending. Callers hold mu.
func (s *session) remember(q *problemgen.GeneratedQuestion) {
	if _, ok := s.pending[q.ID]; ok {
		s.forget(q.ID)
	}
	s.pending[q.ID] = q
	s.order = append(s.order, q.ID)
	for len(s.order) > s.maxPending {
		delete(s.pending, s.order[0])
		s.order = s.order[1:]
	}
}

// take removes and returns a pending question. Callers hold mu.
func (s *session) take(id string) (*problemgen.GeneratedQuestion, bool) {
	q, ok := s.pending[id]
	if ok {
		s.forget(id)
	}
	return q, ok
}

func (s *session) forget(id string) {
	delete(s.pending, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

// Session describes a started session.
type Session struct {
	ID        string              `json:"id"`
	StartedAt time.Time           `json:"started_at"`
	Metrics   performance.Metrics `json:"metrics"`
}

// Summary is returned when a session ends.
type Summary struct {
	SessionID       string              `json:"session_id"`
	QuestionsServed int                 `json:"questions_served"`
	Answered        int                 `json:"answered"`
	Correct         int                 `json:"correct"`
	Duration        time.Duration       `json:"duration"`
	Metrics         performance.Metrics `json:"metrics"`
}

// Accuracy is Correct/Answered, or 0 before any answer.
func (s Summary) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}
