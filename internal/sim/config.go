package sim

import "time"

// Config carries the balance tunables for a single player's simulation.
// The demo constants shipped here are starting values for playtesting,
// not structural contracts; rooms may override any of them at creation.
type Config struct {
	BoardWidth  int
	BoardHeight int
	QueueLength int

	BaseTickInterval time.Duration

	// Reward tiers indexed by cleared-row count (1..4). Higher clears are
	// deliberately worth more than linear scaling of a single clear.
	ScoreTiers    [5]int
	StarTiers     [5]int
	ComboBonus    int
	StarCap       int
	StartingStars int

	// Instantaneous ability perturbations.
	QuakeFraction   float64 // fraction of occupied cells removed by earthquake
	DebrisCells     int     // cells injected by debris_rain
	CompactRows     int     // bottom rows cleared by compact
	SpeedUpFactor   int     // tick interval divisor while speed_up_opponent is active
	BargainDiscount int     // star discount applied to the next cast
}

// DefaultConfig returns the balance constants used by live rooms.
func DefaultConfig() Config {
	return Config{
		BoardWidth:       10,
		BoardHeight:      20,
		QueueLength:      3,
		BaseTickInterval: 800 * time.Millisecond,
		ScoreTiers:       [5]int{0, 100, 300, 500, 800},
		StarTiers:        [5]int{0, 1, 3, 5, 8},
		ComboBonus:       50,
		StarCap:          12,
		StartingStars:    3,
		QuakeFraction:    0.2,
		DebrisCells:      8,
		CompactRows:      2,
		SpeedUpFactor:    2,
		BargainDiscount:  2,
	}
}
