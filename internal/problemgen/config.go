package problemgen

import "go.uber.org/zap"

// Config controls the template Generator.
type Config struct {
	// Validators is the ordered list of validators run on every generated
	// question. The first failure stops the chain.
	Validators []Validator

	// MaxRegenerations is how many times a question failing a retryable
	// validation is rebuilt with fresh random values before it is served
	// anyway.
	MaxRegenerations int

	// Rand drives variable selection, distractors and shuffling. Nil uses
	// DefaultRand.
	Rand Rand

	// Usage holds the global per-template counters. Share one Usage
	// between the template and stable paths to balance load across both.
	Usage *Usage

	Logger   *zap.Logger
	Recorder Recorder
}

// DefaultConfig returns a Config with the standard validator chain.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&ChoicesValidator{},
		},
		MaxRegenerations: 3,
	}
}

func (c Config) withDefaults() Config {
	if c.Rand == nil {
		c.Rand = DefaultRand()
	}
	if c.Usage == nil {
		c.Usage = NewUsage()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Recorder == nil {
		c.Recorder = NopRecorder{}
	}
	return c
}
