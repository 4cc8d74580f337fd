package pacing

import "fmt"

// PhaseType names a segment of a lesson.
type PhaseType string

const (
	PhaseIntroduction        PhaseType = "introduction"
	PhaseExplanation         PhaseType = "explanation"
	PhaseGuidedPractice      PhaseType = "guided_practice"
	PhaseIndependentPractice PhaseType = "independent_practice"
	PhaseReview              PhaseType = "review"
)

// AdaptiveFactors selects which learner signals may stretch or shrink a phase.
type AdaptiveFactors struct {
	PerformanceBased bool `json:"performance_based" mapstructure:"performance_based"`
	PaceBased        bool `json:"pace_based" mapstructure:"pace_based"`
	// EngagementBased is carried for lesson templates that declare it;
	// no engagement adjustment is currently applied.
	EngagementBased bool `json:"engagement_based" mapstructure:"engagement_based"`
}

// PhaseConfig describes one phase's share of the lesson. Percentages are of
// the total lesson minutes, 0-100.
type PhaseConfig struct {
	PhaseType       PhaseType       `json:"phase_type" mapstructure:"phase_type"`
	BasePercentage  float64         `json:"base_percentage" mapstructure:"base_percentage"`
	MinPercentage   float64         `json:"min_percentage" mapstructure:"min_percentage"`
	MaxPercentage   float64         `json:"max_percentage" mapstructure:"max_percentage"`
	AdaptiveFactors AdaptiveFactors `json:"adaptive_factors" mapstructure:"adaptive_factors"`
}

// PhaseAllocation is the computed time budget for one phase.
type PhaseAllocation struct {
	Phase      PhaseType `json:"phase"`
	Percentage float64   `json:"percentage"`
	Minutes    int       `json:"minutes"`
}

// DefaultPhases returns the standard five-phase lesson layout.
func DefaultPhases() []PhaseConfig {
	all := AdaptiveFactors{PerformanceBased: true, PaceBased: true, EngagementBased: true}
	return []PhaseConfig{
		{PhaseType: PhaseIntroduction, BasePercentage: 15, MinPercentage: 10, MaxPercentage: 20,
			AdaptiveFactors: AdaptiveFactors{PaceBased: true, EngagementBased: true}},
		{PhaseType: PhaseExplanation, BasePercentage: 25, MinPercentage: 20, MaxPercentage: 35,
			AdaptiveFactors: all},
		{PhaseType: PhaseGuidedPractice, BasePercentage: 25, MinPercentage: 20, MaxPercentage: 30,
			AdaptiveFactors: all},
		{PhaseType: PhaseIndependentPractice, BasePercentage: 25, MinPercentage: 15, MaxPercentage: 35,
			AdaptiveFactors: all},
		{PhaseType: PhaseReview, BasePercentage: 10, MinPercentage: 5, MaxPercentage: 15,
			AdaptiveFactors: AdaptiveFactors{PerformanceBased: true}},
	}
}

// ValidatePhases checks that every phase has 0 <= min <= base <= max <= 100
// and that phase types are unique.
func ValidatePhases(phases []PhaseConfig) error {
	if len(phases) == 0 {
		return fmt.Errorf("no phases configured")
	}
	seen := make(map[PhaseType]bool, len(phases))
	for i, ph := range phases {
		if ph.PhaseType == "" {
			return fmt.Errorf("phase %d: phase_type is empty", i)
		}
		if seen[ph.PhaseType] {
			return fmt.Errorf("phase %d: duplicate phase_type %q", i, ph.PhaseType)
		}
		seen[ph.PhaseType] = true
		if ph.MinPercentage < 0 || ph.MaxPercentage > 100 {
			return fmt.Errorf("phase %q: percentages must lie in [0,100]", ph.PhaseType)
		}
		if ph.MinPercentage > ph.BasePercentage || ph.BasePercentage > ph.MaxPercentage {
			return fmt.Errorf("phase %q: need min <= base <= max, got %g/%g/%g",
				ph.PhaseType, ph.MinPercentage, ph.BasePercentage, ph.MaxPercentage)
		}
	}
	return nil
}
