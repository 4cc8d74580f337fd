package performance

import (
	"math"
	"strings"
)

// Config holds the difficulty adjustment rules and starting values.
type Config struct {
	// IncreaseThreshold: a ratio above it raises difficulty by Step.
	IncreaseThreshold float64 `mapstructure:"increase_threshold"`
	// DecreaseThreshold: a ratio below it lowers difficulty by Step.
	DecreaseThreshold float64 `mapstructure:"decrease_threshold"`
	Step              float64 `mapstructure:"step"`
	MinDifficulty     float64 `mapstructure:"min_difficulty"`
	MaxDifficulty     float64 `mapstructure:"max_difficulty"`

	InitialRatio        float64 `mapstructure:"initial_ratio"`
	InitialResponseTime float64 `mapstructure:"initial_response_time"`
	InitialDifficulty   float64 `mapstructure:"initial_difficulty"`
	InitialEngagement   float64 `mapstructure:"initial_engagement"`
}

// DefaultConfig returns the standard adaptation rules.
func DefaultConfig() Config {
	return Config{
		IncreaseThreshold:   0.75,
		DecreaseThreshold:   0.4,
		Step:                0.5,
		MinDifficulty:       1,
		MaxDifficulty:       10,
		InitialRatio:        0.5,
		InitialResponseTime: 30,
		InitialDifficulty:   5,
		InitialEngagement:   75,
	}
}

// normalize keeps the configured bounds inside [1,10].
func (c Config) normalize() Config {
	c.MinDifficulty = clamp(c.MinDifficulty, 1, 10)
	c.MaxDifficulty = clamp(c.MaxDifficulty, 1, 10)
	if c.MaxDifficulty < c.MinDifficulty {
		c.MaxDifficulty = c.MinDifficulty
	}
	if c.Step < 0 || math.IsNaN(c.Step) {
		c.Step = 0
	}
	return c
}

// Model tracks one learner's performance within a session.
// It is not safe for concurrent use; callers serialize per session.
type Model struct {
	cfg     Config
	metrics Metrics
}

// NewModel creates a model with the configured starting values.
func NewModel(cfg Config) *Model {
	cfg = cfg.normalize()
	ratio := clamp(cfg.InitialRatio, 0, 1)
	avg := math.Max(0, cfg.InitialResponseTime)
	return &Model{
		cfg: cfg,
		metrics: Metrics{
			CorrectRatio:       ratio,
			AvgResponseTimeSec: avg,
			StrugglingConcepts: make(map[string]bool),
			MasteredConcepts:   make(map[string]bool),
			DifficultyLevel:    clamp(cfg.InitialDifficulty, cfg.MinDifficulty, cfg.MaxDifficulty),
			Pace:               ClassifyPace(avg, ratio),
			EngagementLevel:    clamp(cfg.InitialEngagement, 0, 100),
		},
	}
}

// Restore rebuilds a model from previously exported metrics.
// Out-of-range values are clamped and overlapping concepts are resolved
// in favour of the struggling set.
func Restore(cfg Config, m Metrics) *Model {
	cfg = cfg.normalize()
	m = m.clone()
	m.CorrectRatio = clamp(m.CorrectRatio, 0, 1)
	m.AvgResponseTimeSec = math.Max(0, m.AvgResponseTimeSec)
	if math.IsNaN(m.AvgResponseTimeSec) {
		m.AvgResponseTimeSec = 0
	}
	m.DifficultyLevel = clamp(m.DifficultyLevel, cfg.MinDifficulty, cfg.MaxDifficulty)
	m.EngagementLevel = clamp(m.EngagementLevel, 0, 100)
	for c := range m.StrugglingConcepts {
		delete(m.MasteredConcepts, c)
	}
	m.Pace = ClassifyPace(m.AvgResponseTimeSec, m.CorrectRatio)
	return &Model{cfg: cfg, metrics: m}
}

// RecordAnswer folds one answer event into the model. All five update
// steps run on every call; bad inputs are clamped rather than rejected.
func (m *Model) RecordAnswer(wasCorrect bool, responseTimeSec float64, concept string) {
	if responseTimeSec < 0 || math.IsNaN(responseTimeSec) || math.IsInf(responseTimeSec, 0) {
		responseTimeSec = 0
	}
	concept = normalizeConcept(concept)

	s := &m.metrics

	// The ratio is treated as if it summarized exactly priorWeight answers.
	prior := s.CorrectRatio * priorWeight
	newCorrect := prior
	if wasCorrect {
		newCorrect++
	}
	newTotal := prior + 1
	s.CorrectRatio = clamp(newCorrect/newTotal, 0, 1)

	s.AvgResponseTimeSec = s.AvgResponseTimeSec*oldTimeWeight + responseTimeSec*newTimeWeight

	switch {
	case wasCorrect && s.CorrectRatio > masteryRatio:
		s.MasteredConcepts[concept] = true
		delete(s.StrugglingConcepts, concept)
	case !wasCorrect:
		s.StrugglingConcepts[concept] = true
		delete(s.MasteredConcepts, concept)
	}

	s.Pace = ClassifyPace(s.AvgResponseTimeSec, s.CorrectRatio)

	switch {
	case s.CorrectRatio > m.cfg.IncreaseThreshold:
		s.DifficultyLevel = math.Min(m.cfg.MaxDifficulty, s.DifficultyLevel+m.cfg.Step)
	case s.CorrectRatio < m.cfg.DecreaseThreshold:
		s.DifficultyLevel = math.Max(m.cfg.MinDifficulty, s.DifficultyLevel-m.cfg.Step)
	}
}

// SetEngagement stores an externally measured engagement level (0-100).
func (m *Model) SetEngagement(level float64) {
	m.metrics.EngagementLevel = clamp(level, 0, 100)
}

// Snapshot returns a copy of the current metrics.
func (m *Model) Snapshot() Metrics {
	return m.metrics.clone()
}

// Pace returns the current pace classification.
func (m *Model) Pace() Pace { return m.metrics.Pace }

// CorrectRatio returns the smoothed accuracy.
func (m *Model) CorrectRatio() float64 { return m.metrics.CorrectRatio }

// Level returns the integer difficulty level.
func (m *Model) Level() int { return m.metrics.Level() }

// IsStruggling reports whether concept is in the struggling set.
func (m *Model) IsStruggling(concept string) bool {
	return m.metrics.StrugglingConcepts[normalizeConcept(concept)]
}

// IsMastered reports whether concept is in the mastered set.
func (m *Model) IsMastered(concept string) bool {
	return m.metrics.MasteredConcepts[normalizeConcept(concept)]
}

func normalizeConcept(concept string) string {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return DefaultConcept
	}
	return concept
}
