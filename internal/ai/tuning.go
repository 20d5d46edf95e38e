package ai

import "time"

// Tuning weights the board evaluator. Negative weights penalize a feature.
type Tuning struct {
	AggregateHeight float64
	CompleteLines   float64
	Holes           float64
	Bumpiness       float64
}

// DefaultTuning favors flat, hole-free stacks while still chasing clears.
var DefaultTuning = Tuning{
	AggregateHeight: -0.51,
	CompleteLines:   0.76,
	Holes:           -0.36,
	Bumpiness:       -0.18,
}

// Persona carries the opaque difficulty tunables supplied at join time.
type Persona struct {
	// ReactionDelay is the pause between consecutive movement inputs.
	ReactionDelay time.Duration
	// AbilityCooldown gates how often the driver considers casting.
	AbilityCooldown time.Duration
	// PanicHeight is the stack height at which the driver is allowed a
	// star subsidy when it cannot afford any ability.
	PanicHeight int
	// SubsidyStars is the deterministic star grant used in a panic.
	SubsidyStars int
}

const (
	minReactionDelay = 120 * time.Millisecond
	maxReactionDelay = 1500 * time.Millisecond
	// blackoutSlowdown stretches the cadence while the driver is blinded,
	// mirroring the disadvantage a human would feel.
	blackoutSlowdown = 3
	blackoutDivisor  = 2
)

// DefaultPersona is the mid-difficulty opponent.
func DefaultPersona() Persona {
	return Persona{
		ReactionDelay:   350 * time.Millisecond,
		AbilityCooldown: 12 * time.Second,
		PanicHeight:     14,
		SubsidyStars:    3,
	}
}

// clampDelay bounds a reaction delay so the driver can never move
// unrealistically fast or stall out entirely.
func clampDelay(d time.Duration) time.Duration {
	if d < minReactionDelay {
		return minReactionDelay
	}
	if d > maxReactionDelay {
		return maxReactionDelay
	}
	return d
}
