// Package stable precompiles a fixed, reproducible batch of questions per
// template and serves them without repeating a question within a session.
package stable

import (
	"fmt"
	"hash/fnv"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/dedup"
	"github.com/abhisek/adaptiq/internal/problemgen"
)

const (
	seedModulus = 233280
	seedStride  = 1000
	// optionStreamOffset separates the distractor/shuffle stream from the
	// variable stream of the same question.
	optionStreamOffset = 1000
)

// Config controls batch generation.
type Config struct {
	BatchSize int `mapstructure:"batch_size"`

	// Usage holds the global per-template counters, shared with the
	// template generator when both serve the same catalog.
	Usage *problemgen.Usage `mapstructure:"-"`

	Logger   *zap.Logger         `mapstructure:"-"`
	Recorder problemgen.Recorder `mapstructure:"-"`
}

// DefaultConfig returns the standard batch size of 50.
func DefaultConfig() Config {
	return Config{BatchSize: 50}
}

// Precompiler holds the precompiled batches. Batches are read-only after New.
type Precompiler struct {
	catalog *catalog.Catalog
	store   dedup.Store
	cfg     Config
	batches map[string][]problemgen.GeneratedQuestion
	now     func() time.Time
}

// New precompiles BatchSize questions for every template in cat.
func New(cat *catalog.Catalog, store dedup.Store, cfg Config) *Precompiler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Usage == nil {
		cfg.Usage = problemgen.NewUsage()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = problemgen.NopRecorder{}
	}

	p := &Precompiler{
		catalog: cat,
		store:   store,
		cfg:     cfg,
		batches: make(map[string][]problemgen.GeneratedQuestion, cat.Len()),
		now:     time.Now,
	}
	for _, t := range cat.Templates() {
		p.batches[t.ID] = p.compile(t)
	}
	cfg.Logger.Debug("precompiled stable batches",
		zap.Int("templates", cat.Len()), zap.Int("batch_size", cfg.BatchSize))
	return p
}

func (p *Precompiler) compile(t catalog.QuestionTemplate) []problemgen.GeneratedQuestion {
	batch := make([]problemgen.GeneratedQuestion, 0, p.cfg.BatchSize)
	failed := 0
	for i := range p.cfg.BatchSize {
		s := Seed(t.ID, i)
		q, err := problemgen.Instantiate(t, problemgen.NewLCG(s), problemgen.NewLCG(s+optionStreamOffset))
		if err != nil {
			failed++
		}
		q.ID = QuestionID(t.ID, i)
		q.Stable = true
		batch = append(batch, q)
	}
	if failed > 0 {
		p.cfg.Recorder.FormulaFailure(t.ID)
		p.cfg.Logger.Warn("answer formula failed while precompiling, using 0",
			zap.String("template_id", t.ID),
			zap.String("formula", t.AnswerFormula),
			zap.Int("questions", failed))
	}
	return batch
}

// Seed returns the LCG seed for question i of a template.
func Seed(templateID string, i int) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(templateID))
	return (int64(h.Sum32())*seedStride + int64(i)) % seedModulus
}

// QuestionID returns the stable id of question i of a template.
func QuestionID(templateID string, i int) string {
	return fmt.Sprintf("%s-stable-%d", templateID, i)
}

// BatchSize returns the number of questions precompiled per template.
func (p *Precompiler) BatchSize() int { return p.cfg.BatchSize }

// Usage returns the template usage counters.
func (p *Precompiler) Usage() *problemgen.Usage { return p.cfg.Usage }

// Batch returns a copy of a template's precompiled questions.
func (p *Precompiler) Batch(templateID string) ([]problemgen.GeneratedQuestion, bool) {
	batch, ok := p.batches[templateID]
	if !ok {
		return nil, false
	}
	out := make([]problemgen.GeneratedQuestion, len(batch))
	for i := range batch {
		out[i] = *batch[i].Clone()
	}
	return out, true
}

// GetStable serves the next unseen precompiled question for a session.
// Matching templates are tried least used first; within a template the
// batch is walked in order. When every batch is exhausted the session is
// reset once and the walk repeated. ok is false only when no template
// matches.
func (p *Precompiler) GetStable(subject, skillArea, sessionID string, level int) (*problemgen.GeneratedQuestion, bool) {
	matching := p.catalog.Filter(subject, skillArea, level)
	if len(matching) == 0 {
		p.cfg.Recorder.CatalogMiss()
		return nil, false
	}

	for attempt := range 2 {
		if attempt > 0 {
			p.store.Reset(sessionID)
			p.cfg.Recorder.SessionReset(problemgen.ModeStable)
			p.cfg.Logger.Debug("session exhausted stable batches, resetting",
				zap.String("session_id", sessionID))
		}
		if q := p.firstUnused(matching, sessionID); q != nil {
			p.cfg.Recorder.QuestionGenerated(problemgen.ModeStable)
			return q, true
		}
	}
	return nil, false
}

func (p *Precompiler) firstUnused(matching []catalog.QuestionTemplate, sessionID string) *problemgen.GeneratedQuestion {
	for _, t := range p.cfg.Usage.Ordered(matching) {
		for i := range p.batches[t.ID] {
			src := &p.batches[t.ID][i]
			if p.store.IsUsed(sessionID, src.ID) {
				continue
			}
			p.store.MarkUsed(sessionID, src.ID)
			p.cfg.Usage.Increment(t.ID)

			q := src.Clone()
			q.SessionID = sessionID
			q.CreatedAt = p.now()
			return q
		}
	}
	return nil
}
