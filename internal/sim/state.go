package sim

import (
	"math/rand"
	"time"

	"stackduel/server/internal/abilities"
)

// Input is one discrete player action against the active piece.
type Input string

const (
	InputMoveLeft  Input = "move_left"
	InputMoveRight Input = "move_right"
	InputRotateCW  Input = "rotate_cw"
	InputRotateCCW Input = "rotate_ccw"
	InputSoftDrop  Input = "soft_drop"
	InputHardDrop  Input = "hard_drop"
)

// KnownInput reports whether kind is one of the supported input values.
func KnownInput(kind Input) bool {
	switch kind {
	case InputMoveLeft, InputMoveRight, InputRotateCW, InputRotateCCW, InputSoftDrop, InputHardDrop:
		return true
	}
	return false
}

// GameState is the authoritative simulation for one player's board. It is
// owned exclusively by the room actor; nothing here locks.
type GameState struct {
	playerID string
	cfg      Config
	catalog  *abilities.Catalog

	board   *Board
	current ActivePiece
	queue   []PieceType
	gen     *PieceGenerator

	// perturb drives instantaneous board abilities; it is seeded apart
	// from the piece generator so casts never disturb piece determinism.
	perturb *rand.Rand

	score        int
	stars        int
	linesCleared int
	comboCount   int
	gameOver     bool

	loadout          map[string]struct{}
	activeEffects    map[string]time.Time
	lastNonCloneCast string
	pendingDiscount  int

	now func() time.Time
}

// New derives the player's sub-seed from the room seed, spawns the first
// piece, and fills the lookahead queue. An empty loadout means the player
// may cast anything in the catalog.
func New(playerID string, roomSeed int64, loadout []string, cfg Config, catalog *abilities.Catalog) *GameState {
	sub := SubSeed(roomSeed, playerID)
	s := &GameState{
		playerID:      playerID,
		cfg:           cfg,
		catalog:       catalog,
		board:         NewBoard(cfg.BoardWidth, cfg.BoardHeight),
		gen:           NewPieceGenerator(sub),
		perturb:       rand.New(rand.NewSource(sub + 1)),
		activeEffects: make(map[string]time.Time),
		now:           time.Now,
	}
	s.addStars(cfg.StartingStars)
	if len(loadout) > 0 {
		s.loadout = make(map[string]struct{}, len(loadout))
		for _, id := range loadout {
			s.loadout[id] = struct{}{}
		}
	}
	s.queue = make([]PieceType, 0, cfg.QueueLength)
	for len(s.queue) < cfg.QueueLength {
		s.queue = append(s.queue, s.gen.Next())
	}
	s.current = spawnPiece(s.gen.Next(), cfg.BoardWidth)
	return s
}

// SetClock overrides the time source. Tests use this to drive expiry.
func (s *GameState) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *GameState) PlayerID() string  { return s.playerID }
func (s *GameState) GameOver() bool    { return s.gameOver }
func (s *GameState) Stars() int        { return s.stars }
func (s *GameState) Score() int        { return s.score }
func (s *GameState) LinesCleared() int { return s.linesCleared }

// LoadoutAllows reports whether the player may cast the ability. An empty
// loadout is unrestricted.
func (s *GameState) LoadoutAllows(id string) bool {
	if len(s.loadout) == 0 {
		return true
	}
	_, ok := s.loadout[id]
	return ok
}

// ProcessInput applies one action and reports whether visible state
// changed. Active effects remap the action first: reverse_controls swaps
// horizontal movement and rotation_lock voids rotations. Inputs against a
// finished game never mutate anything.
func (s *GameState) ProcessInput(kind Input) bool {
	if s.gameOver {
		return false
	}

	if s.EffectActive(abilities.ReverseControls) {
		switch kind {
		case InputMoveLeft:
			kind = InputMoveRight
		case InputMoveRight:
			kind = InputMoveLeft
		}
	}

	switch kind {
	case InputMoveLeft:
		return s.shift(-1)
	case InputMoveRight:
		return s.shift(1)
	case InputRotateCW:
		if s.EffectActive(abilities.RotationLock) {
			return false
		}
		return s.rotate(1)
	case InputRotateCCW:
		if s.EffectActive(abilities.RotationLock) {
			return false
		}
		return s.rotate(3)
	case InputSoftDrop:
		return s.descend()
	case InputHardDrop:
		for s.descend() {
		}
		s.lockCurrent()
		return true
	}
	return false
}

func (s *GameState) shift(dx int) bool {
	moved := s.current
	moved.X += dx
	if !s.board.fits(moved) {
		return false
	}
	s.current = moved
	return true
}

// rotate tries the kick offsets in order and keeps the first fit; the
// rotation fails entirely when none fits.
func (s *GameState) rotate(quarter int) bool {
	rotated := s.current
	rotated.Rotation = (rotated.Rotation + quarter) & 3
	for _, kick := range rotationKicks {
		candidate := rotated
		candidate.X += kick.X
		candidate.Y += kick.Y
		if s.board.fits(candidate) {
			s.current = candidate
			return true
		}
	}
	return false
}

func (s *GameState) descend() bool {
	moved := s.current
	moved.Y++
	if !s.board.fits(moved) {
		return false
	}
	s.current = moved
	return true
}

// Tick applies one gravity step, locking the piece when it can no longer
// fall. This is the sole time-based progression; the room decides the
// interval between calls.
func (s *GameState) Tick() bool {
	if s.gameOver {
		return false
	}
	if s.descend() {
		return true
	}
	s.lockCurrent()
	return true
}

// lockCurrent writes the piece into the board, resolves line clears and
// rewards, then spawns the next piece. A blocked spawn ends the game.
func (s *GameState) lockCurrent() {
	s.board.lock(s.current)
	cleared := s.board.clearFullRows()
	if cleared > 0 {
		s.linesCleared += cleared
		s.comboCount++
		tier := cleared
		if tier > 4 {
			tier = 4
		}
		s.score += s.cfg.ScoreTiers[tier] + s.cfg.ComboBonus*(s.comboCount-1)
		s.addStars(s.cfg.StarTiers[tier])
	} else {
		s.comboCount = 0
	}

	s.current = spawnPiece(s.queue[0], s.cfg.BoardWidth)
	s.queue = append(s.queue[1:], s.gen.Next())

	if !s.board.fits(s.current) {
		s.gameOver = true
	}
}

func (s *GameState) addStars(n int) {
	s.stars += n
	if s.stars > s.cfg.StarCap {
		s.stars = s.cfg.StarCap
	}
	if s.stars < 0 {
		s.stars = 0
	}
}

// GrantStars credits stars directly, clamped to the cap. Used for refunds
// and the AI subsidy.
func (s *GameState) GrantStars(n int) {
	s.addStars(n)
}

// ChargeStars deducts cost if affordable and reports success. Stars never
// go negative.
func (s *GameState) ChargeStars(cost int) bool {
	if cost > s.stars {
		return false
	}
	s.stars -= cost
	return true
}

// CastCharge returns the cost of casting the ability right now, with any
// pending one-shot discount applied. It does not consume the discount.
func (s *GameState) CastCharge(base int) int {
	charge := base - s.pendingDiscount
	if charge < 0 {
		charge = 0
	}
	return charge
}

// ConsumeCastModifiers clears one-shot cast modifiers after a paid cast.
func (s *GameState) ConsumeCastModifiers() {
	s.pendingDiscount = 0
}

// LastNonCloneCast returns the most recent non-clone ability this player
// successfully paid for, or empty.
func (s *GameState) LastNonCloneCast() string {
	return s.lastNonCloneCast
}

// RecordNonCloneCast books the ability for later clone resolution.
func (s *GameState) RecordNonCloneCast(id string) {
	s.lastNonCloneCast = id
}

// ApplyAbility mutates the board or the timed-effect set according to the
// ability definition. Unknown ids are a silent no-op; they can arise from
// benign message races and must never fault the room.
func (s *GameState) ApplyAbility(id string) {
	def, ok := s.catalog.Lookup(id)
	if !ok {
		return
	}

	if !def.Instant() {
		s.activeEffects[id] = s.now().Add(def.Duration())
		return
	}

	switch id {
	case abilities.Earthquake:
		s.board.removeRandomCells(s.perturb, s.cfg.QuakeFraction)
	case abilities.DebrisRain:
		s.board.injectRandomCells(s.perturb, s.cfg.DebrisCells, debrisColorID)
	case abilities.MirrorField:
		s.board.mirrorRows()
	case abilities.CrossBlast:
		s.board.carveCross()
	case abilities.Compact:
		s.board.clearBottomRows(s.cfg.CompactRows)
	case abilities.Bargain:
		s.pendingDiscount += s.cfg.BargainDiscount
	case abilities.Purge:
		// The resolver clears both players; applying purge directly only
		// cleanses the target's own effects.
		s.ClearActiveEffects()
	}
}

// debrisColorID is the palette slot reserved for injected junk cells.
const debrisColorID = 8

// StackHeight returns how many rows tall the locked stack currently is.
func (s *GameState) StackHeight() int {
	return s.board.Height - s.board.stackTop()
}
