// Package ai drives the scripted opponent. The driver only reads the same
// simulation surface a client sees and submits the same inputs a human
// would; it holds no private knowledge of the opposing board.
package ai

import (
	"math/rand"
	"time"

	"stackduel/server/internal/abilities"
	"stackduel/server/internal/sim"
)

// Driver computes placements for one simulation and periodically picks an
// ability to cast. It is invoked only from the owning room's goroutine, so
// it needs no locking.
type Driver struct {
	state      *sim.GameState
	opponentID string
	persona    Persona
	tuning     Tuning
	catalog    *abilities.Catalog
	loadout    []string

	plan     []sim.Input
	rng      *rand.Rand
	lastCast time.Time
	reaction time.Duration
}

// New builds a driver for the given simulation. The ability loadout is the
// catalog's debuff set minus clone, so the opponent harasses but never
// needs cast-history bookkeeping.
func New(state *sim.GameState, opponentID string, persona Persona, tuning Tuning, catalog *abilities.Catalog, seed int64) *Driver {
	loadout := make([]string, 0)
	for _, id := range catalog.DebuffIDs() {
		if id == abilities.Clone {
			continue
		}
		loadout = append(loadout, id)
	}
	return &Driver{
		state:      state,
		opponentID: opponentID,
		persona:    persona,
		tuning:     tuning,
		catalog:    catalog,
		loadout:    loadout,
		rng:        rand.New(rand.NewSource(seed)),
		reaction:   clampDelay(persona.ReactionDelay),
	}
}

// OpponentID names the human the driver targets with debuffs.
func (d *Driver) OpponentID() string {
	return d.opponentID
}

// Cadence returns the delay before the next movement step. Visual
// disruption slows the driver the way it would slow a human.
func (d *Driver) Cadence() time.Duration {
	delay := clampDelay(d.reaction)
	if d.state.EffectActive(abilities.Blackout) {
		delay = delay * blackoutSlowdown / blackoutDivisor
	}
	return delay
}

// NextInput dequeues one movement input, planning a fresh placement when
// the queue is empty. The driver pre-swaps its intended horizontal moves
// under reverse_controls, submitting what a player adapting to the debuff
// would press.
func (d *Driver) NextInput() (sim.Input, bool) {
	if d.state.GameOver() {
		return "", false
	}
	if len(d.plan) == 0 {
		d.plan = planPlacement(d.state.BoardSnapshot(), d.state.CurrentPiece(), d.tuning)
		if len(d.plan) == 0 {
			return "", false
		}
	}
	input := d.plan[0]
	d.plan = d.plan[1:]

	if d.state.EffectActive(abilities.ReverseControls) {
		switch input {
		case sim.InputMoveLeft:
			input = sim.InputMoveRight
		case sim.InputMoveRight:
			input = sim.InputMoveLeft
		}
	}
	return input, true
}

// DropPlan discards the queued placement, forcing a fresh plan on the next
// step. The room calls this after the driver's board is perturbed by an
// opposing ability.
func (d *Driver) DropPlan() {
	d.plan = nil
}

// ConsiderAbility picks an affordable debuff from the loadout once per
// cooldown window. When the stack is dangerously high and nothing is
// affordable, the driver receives a small deterministic star subsidy so
// matches stay competitive.
func (d *Driver) ConsiderAbility(now time.Time) (string, bool) {
	if d.state.GameOver() {
		return "", false
	}
	if !d.lastCast.IsZero() && now.Sub(d.lastCast) < d.persona.AbilityCooldown {
		return "", false
	}

	affordable := d.affordable()
	if len(affordable) == 0 && d.state.StackHeight() >= d.persona.PanicHeight {
		d.state.GrantStars(d.persona.SubsidyStars)
		affordable = d.affordable()
	}
	if len(affordable) == 0 {
		return "", false
	}

	choice := affordable[d.rng.Intn(len(affordable))]
	d.lastCast = now
	return choice, true
}

func (d *Driver) affordable() []string {
	out := make([]string, 0, len(d.loadout))
	for _, id := range d.loadout {
		def, ok := d.catalog.Lookup(id)
		if !ok {
			continue
		}
		if d.state.CastCharge(def.Cost) <= d.state.Stars() {
			out = append(out, id)
		}
	}
	return out
}

// Retune nudges the reaction delay toward the human opponent's observed
// decision latency so the match stays close without making the driver
// omniscient.
func (d *Driver) Retune(humanDecisionLatency time.Duration) {
	if humanDecisionLatency <= 0 {
		return
	}
	d.reaction = clampDelay((d.reaction + humanDecisionLatency) / 2)
}
