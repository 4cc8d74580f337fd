package performance

import "math"

// Pace classifies how quickly and accurately a learner is working.
type Pace string

const (
	PaceSlow    Pace = "slow"
	PaceAverage Pace = "average"
	PaceFast    Pace = "fast"
)

const (
	// fastTimeSecs and fastRatio: both must hold for PaceFast.
	fastTimeSecs = 15.0
	fastRatio    = 0.7

	// slowTimeSecs or slowRatio: either one gives PaceSlow.
	slowTimeSecs = 45.0
	slowRatio    = 0.4

	// masteryRatio is the ratio a correct answer must push past to
	// move its concept into the mastered set.
	masteryRatio = 0.8

	// priorWeight is how many observations the current ratio stands for.
	priorWeight = 10.0

	// Response time smoothing weights.
	oldTimeWeight = 0.8
	newTimeWeight = 0.2

	// DefaultConcept is used when an answer event carries no concept label.
	DefaultConcept = "general"
)

// Metrics is the learner state tracked for one session.
type Metrics struct {
	// CorrectRatio is a smoothed proportion of correct answers (0.0-1.0).
	CorrectRatio float64 `json:"correct_ratio"`

	// AvgResponseTimeSec is the exponentially smoothed response time.
	AvgResponseTimeSec float64 `json:"avg_response_time_sec"`

	// StrugglingConcepts and MasteredConcepts never share a key.
	StrugglingConcepts map[string]bool `json:"struggling_concepts"`
	MasteredConcepts   map[string]bool `json:"mastered_concepts"`

	// DifficultyLevel moves in Config.Step increments within
	// [Config.MinDifficulty, Config.MaxDifficulty].
	DifficultyLevel float64 `json:"difficulty_level"`

	Pace Pace `json:"pace"`

	// EngagementLevel (0-100) is supplied externally; RecordAnswer leaves it alone.
	EngagementLevel float64 `json:"engagement_level"`
}

// ClassifyPace derives the pace from response time and accuracy.
func ClassifyPace(avgResponseTimeSec, correctRatio float64) Pace {
	switch {
	case avgResponseTimeSec < fastTimeSecs && correctRatio > fastRatio:
		return PaceFast
	case avgResponseTimeSec > slowTimeSecs || correctRatio < slowRatio:
		return PaceSlow
	default:
		return PaceAverage
	}
}

// Level returns the integer difficulty used for template filtering.
func (m Metrics) Level() int {
	return int(math.Floor(m.DifficultyLevel))
}

// clone returns a deep copy of m.
func (m Metrics) clone() Metrics {
	out := m
	out.StrugglingConcepts = copySet(m.StrugglingConcepts)
	out.MasteredConcepts = copySet(m.MasteredConcepts)
	return out
}

func copySet(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		if v {
			out[k] = true
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
