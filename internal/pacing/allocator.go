package pacing

import (
	"math"

	"github.com/abhisek/adaptiq/internal/performance"
)

// Config holds the multipliers applied to a phase's base share.
type Config struct {
	// SpeedupFactor (<1) shortens pace-based phases for fast learners.
	SpeedupFactor float64 `mapstructure:"speedup_factor"`
	// ExtensionFactor (>1) lengthens pace-based phases for slow learners.
	ExtensionFactor float64 `mapstructure:"extension_factor"`

	LowPerformanceThreshold  float64 `mapstructure:"low_performance_threshold"`
	LowPerformanceFactor     float64 `mapstructure:"low_performance_factor"`
	HighPerformanceThreshold float64 `mapstructure:"high_performance_threshold"`
	HighPerformanceFactor    float64 `mapstructure:"high_performance_factor"`

	// EarlyAdvanceRatio and ExtendedRatio scale the planned phase time
	// in ShouldAdvance.
	EarlyAdvanceRatio float64 `mapstructure:"early_advance_ratio"`
	ExtendedRatio     float64 `mapstructure:"extended_ratio"`
}

// DefaultConfig returns the standard pacing multipliers.
func DefaultConfig() Config {
	return Config{
		SpeedupFactor:            0.8,
		ExtensionFactor:          1.3,
		LowPerformanceThreshold:  0.5,
		LowPerformanceFactor:     1.2,
		HighPerformanceThreshold: 0.8,
		HighPerformanceFactor:    0.9,
		EarlyAdvanceRatio:        0.7,
		ExtendedRatio:            1.3,
	}
}

// Learner is the slice of the performance model the allocator reads.
type Learner interface {
	Pace() performance.Pace
	CorrectRatio() float64
}

// Allocator turns phase configs into minute budgets for one learner.
// It holds no state of its own beyond the learner it reads from.
type Allocator struct {
	cfg     Config
	learner Learner
}

// New creates an Allocator reading pace and accuracy from learner.
func New(cfg Config, learner Learner) *Allocator {
	return &Allocator{cfg: cfg, learner: learner}
}

// Percentage returns the adjusted, clamped share of the lesson for phase.
// The pace factor is applied before the performance factor.
func (a *Allocator) Percentage(phase PhaseConfig) float64 {
	p := phase.BasePercentage

	if phase.AdaptiveFactors.PaceBased {
		switch a.learner.Pace() {
		case performance.PaceFast:
			p *= a.cfg.SpeedupFactor
		case performance.PaceSlow:
			p *= a.cfg.ExtensionFactor
		}
	}

	if phase.AdaptiveFactors.PerformanceBased {
		ratio := a.learner.CorrectRatio()
		switch {
		case ratio < a.cfg.LowPerformanceThreshold:
			p *= a.cfg.LowPerformanceFactor
		case ratio > a.cfg.HighPerformanceThreshold:
			p *= a.cfg.HighPerformanceFactor
		}
	}

	return clampPercentage(p, phase.MinPercentage, phase.MaxPercentage)
}

// Allocate returns the whole minutes budgeted for phase out of totalMinutes.
func (a *Allocator) Allocate(phase PhaseConfig, totalMinutes int) int {
	if totalMinutes <= 0 {
		return 0
	}
	return int(math.Floor(a.Percentage(phase) / 100 * float64(totalMinutes)))
}

// Plan allocates every phase in the configured order.
func (a *Allocator) Plan(phases []PhaseConfig, totalMinutes int) []PhaseAllocation {
	out := make([]PhaseAllocation, 0, len(phases))
	for _, ph := range phases {
		out = append(out, PhaseAllocation{
			Phase:      ph.PhaseType,
			Percentage: a.Percentage(ph),
			Minutes:    a.Allocate(ph, totalMinutes),
		})
	}
	return out
}

// ShouldAdvance reports whether the phase driver may move to the next phase.
// Fast, accurate learners may leave at EarlyAdvanceRatio of the plan; slow,
// struggling learners are held until ExtendedRatio of it.
func (a *Allocator) ShouldAdvance(timeInPhase, plannedPhaseTime, phasePerformance float64) bool {
	switch pace := a.learner.Pace(); {
	case pace == performance.PaceFast && phasePerformance > a.cfg.HighPerformanceThreshold:
		return timeInPhase >= a.cfg.EarlyAdvanceRatio*plannedPhaseTime
	case pace == performance.PaceSlow && phasePerformance < a.cfg.LowPerformanceThreshold:
		return timeInPhase >= a.cfg.ExtendedRatio*plannedPhaseTime
	default:
		return timeInPhase >= plannedPhaseTime
	}
}

func clampPercentage(p, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if p < lo || math.IsNaN(p) {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}
