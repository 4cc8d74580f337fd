// Package problemgen instantiates multiple-choice questions from catalog
// templates, avoiding repeats within a session.
package problemgen

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/catalog"
	"github.com/abhisek/adaptiq/internal/dedup"
)

// Generator serves freshly randomized questions. Template ids are the
// dedup keys: a session sees every matching template once before any
// template repeats.
type Generator struct {
	catalog *catalog.Catalog
	store   dedup.Store
	cfg     Config
	now     func() time.Time

	randMu sync.Mutex
}

// New creates a Generator over cat, recording usage in store.
func New(cat *catalog.Catalog, store dedup.Store, cfg Config) *Generator {
	return &Generator{
		catalog: cat,
		store:   store,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
	}
}

// Catalog returns the catalog the generator draws from.
func (g *Generator) Catalog() *catalog.Catalog { return g.catalog }

// Usage returns the shared template usage counters.
func (g *Generator) Usage() *Usage { return g.cfg.Usage }

// Select picks the next template for a session: matching templates not yet
// used in the session, least used globally first. When the session has used
// every match its set is reset and the full match list is considered again.
// ok is false only when no template matches at all.
func (g *Generator) Select(subject, skillArea, sessionID string, level int) (catalog.QuestionTemplate, bool) {
	matching := g.catalog.Filter(subject, skillArea, level)
	if len(matching) == 0 {
		g.cfg.Recorder.CatalogMiss()
		g.cfg.Logger.Info("no template matches request",
			zap.String("subject", subject),
			zap.String("skill_area", skillArea),
			zap.Int("level", level))
		return catalog.QuestionTemplate{}, false
	}

	var candidates []catalog.QuestionTemplate
	for _, t := range matching {
		if !g.store.IsUsed(sessionID, t.ID) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		g.store.Reset(sessionID)
		g.cfg.Recorder.SessionReset(ModeTemplate)
		g.cfg.Logger.Debug("session exhausted templates, resetting",
			zap.String("session_id", sessionID),
			zap.Int("templates", len(matching)))
		candidates = matching
	}

	t, _ := g.cfg.Usage.LeastUsed(candidates)
	g.cfg.Usage.Increment(t.ID)
	return t, true
}

// Generate instantiates t for a session and marks t used in it. It never
// fails: formula errors degrade to an answer of 0 and a question that keeps
// failing validation is served after MaxRegenerations attempts.
func (g *Generator) Generate(t catalog.QuestionTemplate, sessionID string) *GeneratedQuestion {
	log := g.cfg.Logger.With(zap.String("template_id", t.ID), zap.String("session_id", sessionID))

	var (
		q    GeneratedQuestion
		verr *ValidationError
	)
	for attempt := 0; attempt <= g.cfg.MaxRegenerations; attempt++ {
		var err error
		q, err = g.instantiate(t)
		if err != nil {
			g.cfg.Recorder.FormulaFailure(t.ID)
			log.Warn("answer formula failed, using 0",
				zap.String("formula", t.AnswerFormula), zap.Error(err))
		}
		verr = validate(g.cfg.Validators, &q)
		if verr == nil || !verr.Retryable {
			break
		}
		log.Debug("regenerating question", zap.Int("attempt", attempt+1), zap.Error(verr))
	}
	if verr != nil {
		log.Warn("serving question that failed validation", zap.Error(verr))
	}

	q.ID = uuid.NewString()
	q.SessionID = sessionID
	q.CreatedAt = g.now()

	g.store.MarkUsed(sessionID, t.ID)
	g.cfg.Recorder.QuestionGenerated(ModeTemplate)
	return &q
}

func (g *Generator) instantiate(t catalog.QuestionTemplate) (GeneratedQuestion, error) {
	g.randMu.Lock()
	defer g.randMu.Unlock()
	return Instantiate(t, g.cfg.Rand, g.cfg.Rand)
}

// Next selects a template and generates a question from it. ok is false
// when nothing in the catalog matches the request.
func (g *Generator) Next(subject, skillArea, sessionID string, level int) (*GeneratedQuestion, bool) {
	t, ok := g.Select(subject, skillArea, sessionID, level)
	if !ok {
		return nil, false
	}
	return g.Generate(t, sessionID), true
}
