package performance

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel_Defaults(t *testing.T) {
	m := NewModel(DefaultConfig())
	s := m.Snapshot()

	assert.Equal(t, 0.5, s.CorrectRatio)
	assert.Equal(t, 30.0, s.AvgResponseTimeSec)
	assert.Equal(t, 5.0, s.DifficultyLevel)
	assert.Equal(t, PaceAverage, s.Pace)
	assert.Equal(t, 75.0, s.EngagementLevel)
	assert.Empty(t, s.MasteredConcepts)
	assert.Empty(t, s.StrugglingConcepts)
}

func TestRecordAnswer_RatioFormula(t *testing.T) {
	m := NewModel(DefaultConfig())

	m.RecordAnswer(false, 20, "addition")
	// 0.5*10 / (0.5*10 + 1)
	assert.InDelta(t, 5.0/6.0, m.CorrectRatio(), 1e-9)

	m.RecordAnswer(true, 20, "addition")
	// A correct answer makes numerator and denominator equal.
	assert.InDelta(t, 1.0, m.CorrectRatio(), 1e-9)
}

func TestRecordAnswer_ResponseTimeSmoothing(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.RecordAnswer(true, 10, "addition")
	assert.InDelta(t, 30*0.8+10*0.2, m.Snapshot().AvgResponseTimeSec, 1e-9)
}

func TestRecordAnswer_NegativeTimeClamped(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.RecordAnswer(true, -50, "addition")
	assert.InDelta(t, 24.0, m.Snapshot().AvgResponseTimeSec, 1e-9)

	m.RecordAnswer(true, math.NaN(), "addition")
	assert.False(t, math.IsNaN(m.Snapshot().AvgResponseTimeSec))
}

func TestRecordAnswer_EmptyConceptDefaults(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.RecordAnswer(false, 10, "  ")
	assert.True(t, m.IsStruggling(DefaultConcept))
}

func TestRecordAnswer_FiveCorrectMastersAddition(t *testing.T) {
	m := NewModel(DefaultConfig())
	for range 5 {
		m.RecordAnswer(true, 10, "addition")
	}

	s := m.Snapshot()
	assert.Greater(t, s.CorrectRatio, 0.8)
	assert.True(t, s.MasteredConcepts["addition"])
	assert.False(t, s.StrugglingConcepts["addition"])
	assert.Equal(t, 7.5, s.DifficultyLevel)
}

func TestRecordAnswer_MasteredConceptFallsBackToStruggling(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.RecordAnswer(true, 10, "fractions")
	require.True(t, m.IsMastered("fractions"))

	m.RecordAnswer(false, 10, "fractions")
	assert.True(t, m.IsStruggling("fractions"))
	assert.False(t, m.IsMastered("fractions"))
}

func TestRecordAnswer_RecoversFromZeroRatio(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialRatio = 0
	m := NewModel(cfg)

	m.RecordAnswer(false, 10, "division")
	// 0/1 -> stays 0; a correct answer now gives (0+1)/(0+1) = 1.
	m.RecordAnswer(true, 10, "division")
	assert.True(t, m.IsMastered("division"))
	assert.False(t, m.IsStruggling("division"))
}

func TestRecordAnswer_PaceBecomesFast(t *testing.T) {
	m := NewModel(DefaultConfig())
	for range 6 {
		m.RecordAnswer(true, 10, "addition")
	}
	assert.Equal(t, PaceAverage, m.Pace(), "avg time still above 15s")

	m.RecordAnswer(true, 10, "addition")
	assert.Equal(t, PaceFast, m.Pace())
}

func TestRecordAnswer_SlowOnLongResponses(t *testing.T) {
	m := NewModel(DefaultConfig())
	for range 10 {
		m.RecordAnswer(true, 120, "addition")
	}
	assert.Equal(t, PaceSlow, m.Pace())
}

func TestRecordAnswer_DifficultyDecreases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialRatio = 0
	m := NewModel(cfg)

	m.RecordAnswer(false, 20, "subtraction")
	assert.Equal(t, 0.0, m.CorrectRatio())
	assert.Equal(t, 4.5, m.Snapshot().DifficultyLevel)

	for range 20 {
		m.RecordAnswer(false, 20, "subtraction")
	}
	assert.Equal(t, 1.0, m.Snapshot().DifficultyLevel)
}

func TestRecordAnswer_IncorrectConvergesTowardNinetyPercent(t *testing.T) {
	// The ten-sample estimate has a fixed point at 0.9 for wrong answers.
	m := NewModel(DefaultConfig())
	for range 200 {
		m.RecordAnswer(false, 20, "subtraction")
	}
	assert.InDelta(t, 0.9, m.CorrectRatio(), 0.01)
}

func TestRecordAnswer_Bounds(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	concepts := []string{"addition", "subtraction", "fractions", ""}

	for trial := range 20 {
		m := NewModel(DefaultConfig())
		for range 200 {
			correct := r.IntN(100) < 30+trial*3
			m.RecordAnswer(correct, r.Float64()*120-10, concepts[r.IntN(len(concepts))])

			s := m.Snapshot()
			require.GreaterOrEqual(t, s.DifficultyLevel, 1.0)
			require.LessOrEqual(t, s.DifficultyLevel, 10.0)
			require.GreaterOrEqual(t, s.CorrectRatio, 0.0)
			require.LessOrEqual(t, s.CorrectRatio, 1.0)
			for c := range s.MasteredConcepts {
				require.False(t, s.StrugglingConcepts[c], "concept %q in both sets", c)
			}
		}
	}
}

func TestRecordAnswer_DifficultyCappedAtMax(t *testing.T) {
	m := NewModel(DefaultConfig())
	for range 40 {
		m.RecordAnswer(true, 5, "addition")
	}
	assert.Equal(t, 10.0, m.Snapshot().DifficultyLevel)
	assert.Equal(t, 10, m.Level())
}

func TestClassifyPace(t *testing.T) {
	tests := []struct {
		name  string
		time  float64
		ratio float64
		want  Pace
	}{
		{"fast", 10, 0.9, PaceFast},
		{"quick but inaccurate", 10, 0.5, PaceAverage},
		{"quick and very inaccurate", 10, 0.3, PaceSlow},
		{"slow time", 50, 0.9, PaceSlow},
		{"boundary time", 15, 0.9, PaceAverage},
		{"boundary ratio", 10, 0.7, PaceAverage},
		{"average", 30, 0.6, PaceAverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPace(tt.time, tt.ratio))
		})
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.RecordAnswer(false, 10, "addition")

	s := m.Snapshot()
	s.StrugglingConcepts["other"] = true
	assert.False(t, m.IsStruggling("other"))
}

func TestRestore_ClampsAndResolvesOverlap(t *testing.T) {
	m := Restore(DefaultConfig(), Metrics{
		CorrectRatio:       1.7,
		AvgResponseTimeSec: -3,
		DifficultyLevel:    42,
		EngagementLevel:    130,
		StrugglingConcepts: map[string]bool{"addition": true},
		MasteredConcepts:   map[string]bool{"addition": true, "counting": true},
	})

	s := m.Snapshot()
	assert.Equal(t, 1.0, s.CorrectRatio)
	assert.Equal(t, 0.0, s.AvgResponseTimeSec)
	assert.Equal(t, 10.0, s.DifficultyLevel)
	assert.Equal(t, 100.0, s.EngagementLevel)
	assert.True(t, s.StrugglingConcepts["addition"])
	assert.False(t, s.MasteredConcepts["addition"])
	assert.True(t, s.MasteredConcepts["counting"])
	assert.Equal(t, PaceFast, s.Pace)
}

func TestSetEngagement_Clamped(t *testing.T) {
	m := NewModel(DefaultConfig())
	m.SetEngagement(-5)
	assert.Equal(t, 0.0, m.Snapshot().EngagementLevel)
	m.SetEngagement(64)
	assert.Equal(t, 64.0, m.Snapshot().EngagementLevel)
}

func TestFeedback(t *testing.T) {
	t.Run("correct and fast", func(t *testing.T) {
		m := Restore(DefaultConfig(), Metrics{CorrectRatio: 0.9, AvgResponseTimeSec: 8, DifficultyLevel: 5})
		assert.Contains(t, m.Feedback(true, "addition"), "mastering addition quickly")
	})
	t.Run("correct with high ratio", func(t *testing.T) {
		m := Restore(DefaultConfig(), Metrics{CorrectRatio: 0.9, AvgResponseTimeSec: 30, DifficultyLevel: 5})
		assert.Contains(t, m.Feedback(true, "addition"), "understanding addition really well")
	})
	t.Run("correct otherwise", func(t *testing.T) {
		m := NewModel(DefaultConfig())
		assert.Equal(t, "Correct! Nice job, keep it up.", m.Feedback(true, "addition"))
	})
	t.Run("incorrect and struggling", func(t *testing.T) {
		m := NewModel(DefaultConfig())
		m.RecordAnswer(false, 20, "addition")
		msg := m.Feedback(false, "addition")
		assert.True(t, strings.HasPrefix(msg, "Addition can be tricky"), msg)
		assert.Contains(t, msg, "break it down")
	})
	t.Run("incorrect otherwise", func(t *testing.T) {
		m := NewModel(DefaultConfig())
		assert.Contains(t, m.Feedback(false, "addition"), "step by step")
	})
	t.Run("no side effects", func(t *testing.T) {
		m := NewModel(DefaultConfig())
		before := m.Snapshot()
		_ = m.Feedback(false, "addition")
		assert.Equal(t, before, m.Snapshot())
	})
}
