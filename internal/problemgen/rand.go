package problemgen

import "math/rand/v2"

// Rand is the randomness generators draw from. *rand.Rand from math/rand/v2
// satisfies it.
type Rand interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns the process-wide source, safe for concurrent use.
func DefaultRand() Rand { return globalRand{} }

const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

// LCG is the linear-congruential generator behind precompiled questions.
// The same seed always yields the same sequence. Not safe for concurrent use.
type LCG struct {
	seed int64
}

// NewLCG returns an LCG seeded with seed mod 233280.
func NewLCG(seed int64) *LCG {
	seed %= lcgModulus
	if seed < 0 {
		seed += lcgModulus
	}
	return &LCG{seed: seed}
}

// Float64 advances the state and returns a value in [0, 1).
func (g *LCG) Float64() float64 {
	g.seed = (g.seed*lcgMultiplier + lcgIncrement) % lcgModulus
	return float64(g.seed) / lcgModulus
}

// IntN returns a value in [0, n).
func (g *LCG) IntN(n int) int {
	if n <= 0 {
		panic("problemgen: LCG.IntN called with non-positive n")
	}
	return int(g.Float64() * float64(n))
}
