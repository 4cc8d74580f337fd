// Package engine runs adaptive learning sessions. Each session owns a
// performance model that drives the difficulty of the questions it is
// served and the time budget of its lesson phases.
package engine

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/dedup"
	"github.com/abhisek/adaptiq/internal/pacing"
	"github.com/abhisek/adaptiq/internal/performance"
	"github.com/abhisek/adaptiq/internal/problemgen"
	"github.com/abhisek/adaptiq/internal/stable"
	"github.com/abhisek/adaptiq/internal/store"
)

// Engine serves questions and records answers for many concurrent sessions.
type Engine struct {
	cfg       Config
	catalog   *catalog.Catalog
	store     dedup.Store
	events    store.EventRepo
	generator *problemgen.Generator
	stable    *stable.Precompiler
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

// New builds an Engine over cat. Usage is tracked in store, which is shared
// by the template and stable paths. events may be nil to skip the event log.
func New(cat *catalog.Catalog, usage dedup.Store, events store.EventRepo, cfg Config) (*Engine, error) {
	if len(cfg.Phases) == 0 {
		cfg.Phases = pacing.DefaultPhases()
	}
	if err := pacing.ValidatePhases(cfg.Phases); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if len(cfg.Generator.Validators) == 0 && cfg.Generator.MaxRegenerations == 0 {
		cfg.Generator = problemgen.DefaultConfig()
	}

	counts := problemgen.NewUsage()
	cfg.Generator.Usage, cfg.Stable.Usage = counts, counts
	cfg.Generator.Logger, cfg.Stable.Logger = cfg.Logger, cfg.Logger
	cfg.Generator.Recorder, cfg.Stable.Recorder = cfg.Recorder, cfg.Recorder

	return &Engine{
		cfg:       cfg,
		catalog:   cat,
		store:     usage,
		events:    events,
		generator: problemgen.New(cat, usage, cfg.Generator),
		stable:    stable.New(cat, usage, cfg.Stable),
		logger:    cfg.Logger,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}, nil
}

// Catalog returns the catalog questions are drawn from.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Usage returns the per-template counters shared by both question sources.
func (e *Engine) Usage() *problemgen.Usage { return e.generator.Usage() }

// StartOptions configures a new session.
type StartOptions struct {
	// SessionID is generated when empty.
	SessionID string
	// Metrics resumes a learner from saved state instead of the defaults.
	Metrics *performance.Metrics
}

// StartSession creates a session.
func (e *Engine) StartSession(ctx context.Context, opts StartOptions) (Session, error) {
	id := strings.TrimSpace(opts.SessionID)
	if id == "" {
		id = uuid.NewString()
	}

	model := performance.NewModel(e.cfg.Performance)
	if opts.Metrics != nil {
		model = performance.Restore(e.cfg.Performance, *opts.Metrics)
	}
	s := newSession(id, model, e.cfg.Pacing, e.cfg.MaxPending, e.now())

	e.mu.Lock()
	if _, exists := e.sessions[id]; exists {
		e.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	e.sessions[id] = s
	e.mu.Unlock()

	snap := model.Snapshot()
	e.logEvent(ctx, func(ctx context.Context) error {
		return e.events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:       id,
			Action:          store.SessionActionStart,
			CorrectRatio:    snap.CorrectRatio,
			DifficultyLevel: snap.DifficultyLevel,
		})
	})
	e.logger.Info("session started", zap.String("session_id", id), zap.Float64("difficulty", snap.DifficultyLevel))
	return Session{ID: id, StartedAt: s.startedAt, Metrics: snap}, nil
}

// Request asks for the next question in a session.
type Request struct {
	SessionID string
	Subject   string
	SkillArea string
	// Stable serves from the precompiled batches instead of generating.
	Stable bool
}

// NextQuestion serves a question at the session's current difficulty level.
// It returns ErrCatalogMiss when nothing in the catalog fits.
func (e *Engine) NextQuestion(ctx context.Context, req Request) (*problemgen.GeneratedQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := e.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	level := s.model.Level()
	var (
		q  *problemgen.GeneratedQuestion
		ok bool
	)
	if req.Stable {
		q, ok = e.stable.GetStable(req.Subject, req.SkillArea, s.id, level)
	} else {
		q, ok = e.generator.Next(req.Subject, req.SkillArea, s.id, level)
	}
	if !ok {
		return nil, fmt.Errorf("%w: subject %q, skill area %q, level %d",
			ErrCatalogMiss, req.Subject, req.SkillArea, level)
	}

	s.remember(q.Clone())
	s.served++
	return q, nil
}

// AnswerInput is a learner's response to a served question.
type AnswerInput struct {
	SessionID  string
	QuestionID string

	// OptionIndex, when set, selects an option by its 0-based position and
	// Answer is ignored.
	Answer      string
	OptionIndex *int

	ResponseTimeSec float64
	// Concept defaults to the question's skill area.
	Concept string
}

// AnswerResult reports the outcome of an answer.
type AnswerResult struct {
	QuestionID         string              `json:"question_id"`
	Correct            bool                `json:"correct"`
	CorrectAnswer      string              `json:"correct_answer"`
	CorrectOptionIndex int                 `json:"correct_option_index"`
	Explanation        string              `json:"explanation"`
	Feedback           string              `json:"feedback"`
	Metrics            performance.Metrics `json:"metrics"`
}

// SubmitAnswer grades an answer and updates the learner model. Feedback is
// phrased from the state before this answer is recorded. Each served
// question can be answered once.
func (e *Engine) SubmitAnswer(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	s, err := e.session(in.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	q, ok := s.take(in.QuestionID)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, in.QuestionID)
	}

	var correct bool
	given := in.Answer
	if in.OptionIndex != nil {
		correct = problemgen.CheckOption(*in.OptionIndex, q)
		if i := *in.OptionIndex; i >= 0 && i < len(q.Options) {
			given = q.Options[i]
		}
	} else {
		correct = problemgen.CheckAnswer(in.Answer, q)
	}

	concept := strings.TrimSpace(in.Concept)
	if concept == "" {
		concept = q.SkillArea
	}
	feedback := s.model.Feedback(correct, concept)
	s.model.RecordAnswer(correct, in.ResponseTimeSec, concept)
	s.answered++
	if correct {
		s.correct++
	}
	snap := s.model.Snapshot()
	s.mu.Unlock()

	e.cfg.Recorder.AnswerRecorded(correct)

	mode := problemgen.ModeTemplate
	if q.Stable {
		mode = problemgen.ModeStable
	}
	e.logEvent(ctx, func(ctx context.Context) error {
		return e.events.AppendAnswerEvent(ctx, store.AnswerEventData{
			SessionID:      s.id,
			QuestionID:     q.ID,
			TemplateID:     q.TemplateID,
			Subject:        q.Subject,
			SkillArea:      q.SkillArea,
			Concept:        concept,
			Mode:           string(mode),
			Difficulty:     q.Difficulty,
			QuestionText:   q.QuestionText,
			CorrectAnswer:  q.CorrectAnswer,
			LearnerAnswer:  given,
			Correct:        correct,
			ResponseTimeMs: responseTimeMs(in.ResponseTimeSec),
		})
	})

	return &AnswerResult{
		QuestionID:         q.ID,
		Correct:            correct,
		CorrectAnswer:      q.CorrectAnswer,
		CorrectOptionIndex: q.CorrectOptionIndex,
		Explanation:        q.ExplanationText,
		Feedback:           feedback,
		Metrics:            snap,
	}, nil
}

// Metrics returns a copy of the session's learner metrics.
func (e *Engine) Metrics(sessionID string) (performance.Metrics, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return performance.Metrics{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.Snapshot(), nil
}

// SetEngagement records an external engagement signal (0-100).
func (e *Engine) SetEngagement(sessionID string, level float64) error {
	s, err := e.session(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model.SetEngagement(level)
	return nil
}

// PhasePlan budgets totalMinutes across the configured lesson phases for
// the session's learner as they stand now.
func (e *Engine) PhasePlan(sessionID string, totalMinutes int) ([]pacing.PhaseAllocation, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc.Plan(e.cfg.Phases, totalMinutes), nil
}

// ShouldAdvance reports whether the session may leave its current phase.
// Times are in minutes and phasePerformance is the accuracy within it.
func (e *Engine) ShouldAdvance(sessionID string, timeInPhase, plannedPhaseTime, phasePerformance float64) (bool, error) {
	s, err := e.session(sessionID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alloc.ShouldAdvance(timeInPhase, plannedPhaseTime, phasePerformance), nil
}

// EndSession removes the session, clears its usage history and logs a
// summary event.
func (e *Engine) EndSession(ctx context.Context, sessionID string) (*Summary, error) {
	e.mu.Lock()
	s, ok := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	e.store.Clear(sessionID)

	s.mu.Lock()
	sum := &Summary{
		SessionID:       s.id,
		QuestionsServed: s.served,
		Answered:        s.answered,
		Correct:         s.correct,
		Duration:        e.now().Sub(s.startedAt),
		Metrics:         s.model.Snapshot(),
	}
	s.mu.Unlock()

	e.logEvent(ctx, func(ctx context.Context) error {
		return e.events.AppendSessionEvent(ctx, store.SessionEventData{
			SessionID:       sum.SessionID,
			Action:          store.SessionActionEnd,
			QuestionsServed: sum.QuestionsServed,
			CorrectAnswers:  sum.Correct,
			DurationSecs:    int(sum.Duration.Seconds()),
			CorrectRatio:    sum.Metrics.CorrectRatio,
			DifficultyLevel: sum.Metrics.DifficultyLevel,
		})
	})
	e.logger.Info("session ended",
		zap.String("session_id", sum.SessionID),
		zap.Int("answered", sum.Answered),
		zap.Int("correct", sum.Correct),
		zap.Duration("duration", sum.Duration))
	return sum, nil
}

// Sessions lists live session ids in sorted order.
func (e *Engine) Sessions() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (e *Engine) session(id string) (*session, error) {
	e.mu.RLock()
	s, ok := e.sessions[id]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return s, nil
}

// logEvent writes to the event log when one is configured. Failures are
// logged and otherwise ignored.
func (e *Engine) logEvent(ctx context.Context, write func(context.Context) error) {
	if e.events == nil {
		return
	}
	if err := write(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("failed to write event", zap.Error(err))
	}
}

// responseTimeMs converts a response time for the event log, treating
// negative or non-finite values as 0 and saturating at MaxInt64.
func responseTimeMs(sec float64) int64 {
	ms := sec * 1000
	switch {
	case ms <= 0 || math.IsNaN(ms):
		return 0
	case ms >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(ms)
}
