package engine

import (
	"go.uber.org/zap"

	"github.com/abhisek/adaptiq/internal/pacing"
	"github.com/abhisek/adaptiq/internal/performance"
	"github.com/abhisek/adaptiq/internal/problemgen"
	"github.com/abhisek/adaptiq/internal/stable"
)

// DefaultMaxPending is the default per-session cap on unanswered questions.
const DefaultMaxPending = 256

// Config wires the per-session model and the question sources.
type Config struct {
	Performance performance.Config   `mapstructure:"performance"`
	Pacing      pacing.Config        `mapstructure:"pacing"`
	Phases      []pacing.PhaseConfig `mapstructure:"phases"`
	Stable      stable.Config        `mapstructure:"stable"`
	// MaxPending caps served but unanswered questions kept per session.
	MaxPending int `mapstructure:"max_pending"`

	// Generator is not read from config files; its validators are code.
	Generator problemgen.Config `mapstructure:"-"`

	Logger   *zap.Logger `mapstructure:"-"`
	Recorder Recorder    `mapstructure:"-"`
}

// DefaultConfig returns the default configuration of every component.
func DefaultConfig() Config {
	return Config{
		Performance: performance.DefaultConfig(),
		Pacing:      pacing.DefaultConfig(),
		Phases:      pacing.DefaultPhases(),
		Stable:      stable.DefaultConfig(),
		MaxPending:  DefaultMaxPending,
		Generator:   problemgen.DefaultConfig(),
	}
}

// Recorder extends the generation events with answer outcomes.
type Recorder interface {
	problemgen.Recorder
	AnswerRecorded(correct bool)
}

// NopRecorder discards every event.
type NopRecorder struct{ problemgen.NopRecorder }

func (NopRecorder) AnswerRecorded(bool) {}
