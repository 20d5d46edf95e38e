package sim

import (
	"hash/fnv"
	"math/rand"
)

// SubSeed offsets a shared room seed by a stable hash of the player id so
// both players draw distinct piece sequences that are each individually
// reproducible from (roomSeed, playerID).
func SubSeed(roomSeed int64, playerID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(playerID))
	return roomSeed + int64(h.Sum64())
}

// PieceGenerator deals piece types using the 7-bag system: every run of
// seven pieces contains each type exactly once, in a seeded shuffle order.
// Two generators built from the same seed produce identical sequences.
type PieceGenerator struct {
	rng *rand.Rand
	bag []PieceType
}

func NewPieceGenerator(seed int64) *PieceGenerator {
	return &PieceGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Next consumes and returns the next piece type.
func (g *PieceGenerator) Next() PieceType {
	if len(g.bag) == 0 {
		g.refill()
	}
	t := g.bag[0]
	g.bag = g.bag[1:]
	return t
}

func (g *PieceGenerator) refill() {
	g.bag = []PieceType{PieceI, PieceO, PieceT, PieceS, PieceZ, PieceJ, PieceL}
	for i := len(g.bag) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		g.bag[i], g.bag[j] = g.bag[j], g.bag[i]
	}
}
