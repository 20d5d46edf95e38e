package server

import (
	"context"
	"hash/fnv"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"stackduel/server/internal/abilities"
	"stackduel/server/internal/ai"
	"stackduel/server/internal/sim"
	"stackduel/server/internal/telemetry"
	"stackduel/server/logging"
	matchlog "stackduel/server/logging/match"
)

// Status is the room lifecycle phase. Transitions only move forward.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Conn is the transport-facing side of one participant. The websocket
// session implements it; tests plug in recorders.
type Conn interface {
	Send(message any) error
	Close()
}

// Config carries room construction options.
type Config struct {
	Sim               sim.Config
	Catalog           *abilities.Catalog
	BroadcastInterval time.Duration
	AICastInterval    time.Duration
	QueueSize         int
	Publisher         logging.Publisher
	Logger            telemetry.Logger
	AITuning          ai.Tuning
}

// DefaultConfig returns the production room settings: ~30 broadcast
// updates per second per recipient.
func DefaultConfig() Config {
	return Config{
		Sim:               sim.DefaultConfig(),
		Catalog:           abilities.BuiltIn(),
		BroadcastInterval: 33 * time.Millisecond,
		AICastInterval:    2 * time.Second,
		QueueSize:         128,
		Publisher:         logging.NopPublisher(),
		Logger:            telemetry.WrapLogger(log.Default()),
		AITuning:          ai.DefaultTuning,
	}
}

// DeriveSeed maps a room id onto the shared deterministic seed. The seed is
// computed here, never handed in, so the whole match is reproducible from
// the room id alone.
func DeriveSeed(roomID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(roomID))
	return int64(h.Sum64())
}

// playerSlot is the room-side bookkeeping for one participant.
type playerSlot struct {
	id     string
	conn   Conn // nil for the AI participant
	state  *sim.GameState
	driver *ai.Driver // non-nil only for the AI participant

	tickTimer  *time.Timer
	flushTimer *time.Timer

	dirty        bool
	flushPending bool
	lastSend     time.Time

	lastInputAt        time.Time
	avgDecisionLatency time.Duration
}

func (s *playerSlot) stopTimers() {
	if s.tickTimer != nil {
		s.tickTimer.Stop()
	}
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
}

// Room is the actor owning all gameplay truth for one match. Every
// mutation (client messages, tick timers, the AI loop) funnels through
// one command channel drained by a single goroutine, so no two sources
// ever touch the same state concurrently. Rooms are fully independent.
type Room struct {
	id   string
	seed int64
	cfg  Config

	status   Status
	players  map[string]*playerSlot
	order    []string
	winnerID string

	commands chan command
	done     chan struct{}
	finished atomic.Bool

	aiStepTimer *time.Timer
	aiCastTimer *time.Timer
	aiCastSeq   uint64

	now func() time.Time
}

type command interface{ isCommand() }

type joinCmd struct {
	msg  JoinMessage
	conn Conn
}

type clientCmd struct {
	msg  ClientMessage
	from Conn
}

type disconnectCmd struct{ playerID string }
type tickCmd struct{ playerID string }
type flushCmd struct{ playerID string }
type aiStepCmd struct{}
type aiCastCmd struct{}
type closeCmd struct{}

func (joinCmd) isCommand()       {}
func (clientCmd) isCommand()     {}
func (disconnectCmd) isCommand() {}
func (tickCmd) isCommand()       {}
func (flushCmd) isCommand()      {}
func (aiStepCmd) isCommand()     {}
func (aiCastCmd) isCommand()     {}
func (closeCmd) isCommand()      {}

// NewRoom creates the actor and starts its command loop.
func NewRoom(id string, cfg Config) *Room {
	if cfg.Catalog == nil {
		cfg.Catalog = abilities.BuiltIn()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(log.Default())
	}
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = 33 * time.Millisecond
	}
	if cfg.AICastInterval <= 0 {
		cfg.AICastInterval = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	r := &Room{
		id:       id,
		seed:     DeriveSeed(id),
		cfg:      cfg,
		status:   StatusWaiting,
		players:  make(map[string]*playerSlot, 2),
		commands: make(chan command, cfg.QueueSize),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go r.run()
	return r
}

func (r *Room) ID() string  { return r.id }
func (r *Room) Seed() int64 { return r.seed }

// Finished reports whether the match has ended. Safe from any goroutine.
func (r *Room) Finished() bool {
	return r.finished.Load()
}

// Done is closed once the room has shut down entirely.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// HandleJoin enqueues a join for serialized processing.
func (r *Room) HandleJoin(msg JoinMessage, conn Conn) {
	r.post(joinCmd{msg: msg, conn: conn})
}

// HandleMessage enqueues a decoded client message. from is the sending
// connection, used for rejections that cannot be routed to a slot.
func (r *Room) HandleMessage(msg ClientMessage, from Conn) {
	r.post(clientCmd{msg: msg, from: from})
}

// HandleDisconnect enqueues a transport-level disconnect signal.
func (r *Room) HandleDisconnect(playerID string) {
	r.post(disconnectCmd{playerID: playerID})
}

// Close shuts the room down regardless of state.
func (r *Room) Close() {
	r.post(closeCmd{})
}

func (r *Room) post(cmd command) {
	select {
	case r.commands <- cmd:
	case <-r.done:
	}
}

// run drains the command queue. A panic in one room is contained here so it
// can never take down other rooms or the process.
func (r *Room) run() {
	defer func() {
		if rec := recover(); rec != nil {
			r.cfg.Logger.Printf("room %s: recovered from panic: %v", r.id, rec)
			r.shutdown()
		}
	}()
	for {
		select {
		case <-r.done:
			return
		case cmd := <-r.commands:
			r.dispatch(cmd)
		}
	}
}

func (r *Room) dispatch(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		r.handleJoin(c.msg, c.conn)
	case clientCmd:
		r.handleClient(c.msg, c.from)
	case disconnectCmd:
		r.handleDisconnect(c.playerID)
	case tickCmd:
		r.handleTick(c.playerID)
	case flushCmd:
		r.handleFlush(c.playerID)
	case aiStepCmd:
		r.handleAIStep()
	case aiCastCmd:
		r.handleAICast()
	case closeCmd:
		r.shutdown()
	}
}

func (r *Room) handleClient(msg ClientMessage, from Conn) {
	switch m := msg.(type) {
	case JoinMessage:
		r.handleJoin(m, from)
	case PlayerInputMessage:
		if !r.verifySender(m.PlayerID, from) {
			return
		}
		r.handleInput(m, from)
	case AbilityActivationMessage:
		if !r.verifySender(m.PlayerID, from) {
			return
		}
		r.handleAbility(m, from)
	case GameOverMessage:
		if !r.verifySender(m.PlayerID, from) {
			return
		}
		r.handleGameOver(m.PlayerID)
	}
}

// verifySender checks that the sending connection owns the identity the
// message claims. The binding is established at join; a gameplay message
// naming any other player's id is answered with an error and never reaches
// a slot, so no client can move, cast, or forfeit for its opponent.
func (r *Room) verifySender(playerID string, from Conn) bool {
	slot, ok := r.players[playerID]
	if !ok || slot.conn == nil || slot.conn != from {
		r.send(from, ServerError("identity_mismatch", "message names a player this connection does not own"))
		return false
	}
	return true
}

func (r *Room) handleJoin(msg JoinMessage, conn Conn) {
	if r.status == StatusFinished {
		r.send(conn, ServerError("room_finished", "match already finished"))
		return
	}
	if msg.PlayerID == "" {
		r.send(conn, ServerError("invalid_join", "missing playerId"))
		return
	}
	if _, exists := r.players[msg.PlayerID]; exists {
		r.send(conn, ServerError("player_exists", "player already joined"))
		return
	}
	if len(r.players) >= 2 {
		r.send(conn, ServerError("room_full", "room already has two players"))
		return
	}

	slot := &playerSlot{
		id:    msg.PlayerID,
		conn:  conn,
		state: sim.New(msg.PlayerID, r.seed, msg.Loadout, r.cfg.Sim, r.cfg.Catalog),
	}
	r.players[msg.PlayerID] = slot
	r.order = append(r.order, msg.PlayerID)
	matchlog.PlayerJoined(context.Background(), r.cfg.Publisher, r.id, msg.PlayerID)

	r.send(conn, roomStateMessage{Type: msgRoomState, Status: r.status, PlayerCount: len(r.players)})

	if msg.AIOpponent != nil && len(r.players) == 1 {
		r.attachAI(*msg.AIOpponent, msg.PlayerID)
	}
	if len(r.players) == 2 {
		r.startMatch()
	}
}

func (r *Room) attachAI(persona AIPersona, humanID string) {
	aiID := persona.PlayerID
	if aiID == "" {
		aiID = "ai-opponent"
	}
	p := ai.DefaultPersona()
	if persona.ReactionDelayMs > 0 {
		p.ReactionDelay = time.Duration(persona.ReactionDelayMs) * time.Millisecond
	}
	if persona.AbilityCooldownMs > 0 {
		p.AbilityCooldown = time.Duration(persona.AbilityCooldownMs) * time.Millisecond
	}

	// Empty loadout: the simulation allows anything, the driver restricts
	// itself to its own debuff list.
	state := sim.New(aiID, r.seed, nil, r.cfg.Sim, r.cfg.Catalog)
	slot := &playerSlot{
		id:     aiID,
		state:  state,
		driver: ai.New(state, humanID, p, r.cfg.AITuning, r.cfg.Catalog, sim.SubSeed(r.seed, aiID)),
	}
	r.players[aiID] = slot
	r.order = append(r.order, aiID)
}

func (r *Room) startMatch() {
	if r.status != StatusWaiting {
		return
	}
	r.status = StatusPlaying

	start := gameStartMessage{
		Type:        msgGameStart,
		PlayerIDs:   append([]string(nil), r.order...),
		Seed:        r.seed,
		CatalogHash: r.cfg.Catalog.Hash(),
	}
	for _, slot := range r.players {
		r.send(slot.conn, start)
	}
	matchlog.Started(context.Background(), r.cfg.Publisher, r.id, matchlog.MatchStartedPayload{
		Seed:    r.seed,
		Players: start.PlayerIDs,
	})

	for _, slot := range r.players {
		r.scheduleTick(slot)
		if slot.driver != nil {
			r.scheduleAIStep(slot)
			r.scheduleAICast()
		}
	}
}

// scheduleTick arms the player's gravity timer using the interval the
// simulation reports right now; abilities may have changed it since the
// last tick, so it is re-read every iteration.
func (r *Room) scheduleTick(slot *playerSlot) {
	id := slot.id
	slot.tickTimer = time.AfterFunc(slot.state.TickInterval(), func() {
		r.post(tickCmd{playerID: id})
	})
}

func (r *Room) scheduleAIStep(slot *playerSlot) {
	r.aiStepTimer = time.AfterFunc(slot.driver.Cadence(), func() {
		r.post(aiStepCmd{})
	})
}

func (r *Room) scheduleAICast() {
	r.aiCastTimer = time.AfterFunc(r.cfg.AICastInterval, func() {
		r.post(aiCastCmd{})
	})
}

func (r *Room) handleTick(playerID string) {
	if r.status != StatusPlaying {
		return
	}
	slot, ok := r.players[playerID]
	if !ok {
		return
	}
	if slot.state.Tick() {
		r.markDirty()
	}

	if slot.state.GameOver() {
		matchlog.PlayerToppedOut(context.Background(), r.cfg.Publisher, r.id, playerID)
		r.finishMatch(r.opponentOf(playerID), playerID, "top_out")
		return
	}
	r.scheduleTick(slot)
}

func (r *Room) handleInput(msg PlayerInputMessage, from Conn) {
	if r.status != StatusPlaying {
		r.send(from, inputResultMessage{Type: msgInputRejected, Seq: msg.Seq, Reason: reasonMatchNotActive})
		return
	}
	slot, ok := r.players[msg.PlayerID]
	if !ok {
		r.send(from, inputResultMessage{Type: msgInputRejected, Seq: msg.Seq, Reason: reasonPlayerMissing})
		return
	}
	if slot.state == nil {
		r.send(from, inputResultMessage{Type: msgInputRejected, Seq: msg.Seq, Reason: reasonStateMissing})
		return
	}
	if !sim.KnownInput(msg.Kind) {
		state := slot.state.PublicState()
		r.send(from, inputResultMessage{Type: msgInputRejected, Seq: msg.Seq, Reason: reasonUnknownInput, State: &state})
		return
	}

	r.observeInputLatency(slot)

	changed := slot.state.ProcessInput(msg.Kind)
	state := slot.state.PublicState()
	if changed {
		r.send(from, inputResultMessage{Type: msgInputConfirmed, Seq: msg.Seq, State: &state})
		r.markDirty()
	} else {
		r.send(from, inputResultMessage{Type: msgInputRejected, Seq: msg.Seq, State: &state})
	}

	if slot.state.GameOver() && r.status == StatusPlaying {
		matchlog.PlayerToppedOut(context.Background(), r.cfg.Publisher, r.id, slot.id)
		r.finishMatch(r.opponentOf(slot.id), slot.id, "top_out")
	}
}

// observeInputLatency keeps a rolling estimate of how fast the human is
// acting and feeds it to the AI driver so difficulty adapts.
func (r *Room) observeInputLatency(slot *playerSlot) {
	now := r.now()
	if !slot.lastInputAt.IsZero() {
		sample := now.Sub(slot.lastInputAt)
		if slot.avgDecisionLatency == 0 {
			slot.avgDecisionLatency = sample
		} else {
			slot.avgDecisionLatency = (slot.avgDecisionLatency*3 + sample) / 4
		}
		for _, other := range r.players {
			if other.driver != nil && other.driver.OpponentID() == slot.id {
				other.driver.Retune(slot.avgDecisionLatency)
			}
		}
	}
	slot.lastInputAt = now
}

func (r *Room) handleGameOver(playerID string) {
	if r.status != StatusPlaying {
		return
	}
	if _, ok := r.players[playerID]; !ok {
		return
	}
	r.finishMatch(r.opponentOf(playerID), playerID, "forfeit")
}

func (r *Room) handleDisconnect(playerID string) {
	slot, ok := r.players[playerID]
	if !ok {
		return
	}
	slot.conn = nil

	switch r.status {
	case StatusPlaying:
		matchlog.PlayerDisconnected(context.Background(), r.cfg.Publisher, r.id, playerID,
			matchlog.DisconnectPayload{Status: string(r.status)})
		if other := r.players[r.opponentOf(playerID)]; other != nil {
			r.send(other.conn, opponentDisconnectedMessage{Type: msgOpponentDisconnected})
		}
		r.finishMatch(r.opponentOf(playerID), playerID, "disconnect")
	case StatusWaiting:
		matchlog.PlayerDisconnected(context.Background(), r.cfg.Publisher, r.id, playerID,
			matchlog.DisconnectPayload{Status: string(r.status)})
		for _, other := range r.players {
			if other.id != playerID {
				r.send(other.conn, opponentDisconnectedMessage{Type: msgOpponentDisconnected})
			}
		}
		r.finishMatch("", "", "abandoned")
	case StatusFinished:
		r.maybeShutdown()
	}
}

func (r *Room) handleAIStep() {
	if r.status != StatusPlaying {
		return
	}
	slot := r.aiSlot()
	if slot == nil {
		return
	}
	if input, ok := slot.driver.NextInput(); ok {
		if slot.state.ProcessInput(input) {
			r.markDirty()
		}
		if slot.state.GameOver() {
			matchlog.PlayerToppedOut(context.Background(), r.cfg.Publisher, r.id, slot.id)
			r.finishMatch(r.opponentOf(slot.id), slot.id, "top_out")
			return
		}
	}
	r.scheduleAIStep(slot)
}

func (r *Room) handleAICast() {
	if r.status != StatusPlaying {
		return
	}
	slot := r.aiSlot()
	if slot == nil {
		return
	}
	if abilityID, ok := slot.driver.ConsiderAbility(r.now()); ok {
		r.aiCastSeq++
		r.resolveAbility(AbilityActivationMessage{
			PlayerID:       slot.id,
			AbilityID:      abilityID,
			TargetPlayerID: slot.driver.OpponentID(),
			RequestID:      aiRequestID(r.aiCastSeq),
		}, nil)
	}
	r.scheduleAICast()
}

func (r *Room) aiSlot() *playerSlot {
	for _, slot := range r.players {
		if slot.driver != nil {
			return slot
		}
	}
	return nil
}

func (r *Room) opponentOf(playerID string) string {
	for _, id := range r.order {
		if id != playerID {
			return id
		}
	}
	return ""
}

// markDirty flags both recipients for a state broadcast, sending at once
// when outside the throttle window and scheduling a flush otherwise. No
// connection ever receives more than one update per window.
func (r *Room) markDirty() {
	if r.status != StatusPlaying {
		return
	}
	now := r.now()
	for _, slot := range r.players {
		if slot.conn == nil {
			continue
		}
		slot.dirty = true
		elapsed := now.Sub(slot.lastSend)
		if elapsed >= r.cfg.BroadcastInterval {
			r.sendStateUpdate(slot)
			continue
		}
		if !slot.flushPending {
			slot.flushPending = true
			id := slot.id
			slot.flushTimer = time.AfterFunc(r.cfg.BroadcastInterval-elapsed, func() {
				r.post(flushCmd{playerID: id})
			})
		}
	}
}

func (r *Room) handleFlush(playerID string) {
	slot, ok := r.players[playerID]
	if !ok {
		return
	}
	slot.flushPending = false
	if r.status != StatusPlaying || !slot.dirty {
		return
	}
	r.sendStateUpdate(slot)
}

func (r *Room) sendStateUpdate(slot *playerSlot) {
	opponent := r.players[r.opponentOf(slot.id)]
	if opponent == nil {
		return
	}
	slot.dirty = false
	slot.lastSend = r.now()
	r.send(slot.conn, stateUpdateMessage{
		Type:          msgStateUpdate,
		YourState:     slot.state.PublicState(),
		OpponentState: opponent.state.PublicState(),
		ServerTime:    r.now().UnixMilli(),
	})
}

// finishMatch stops every timer attached to the room before finalizing, so
// a stale timer can never mutate a finished match.
func (r *Room) finishMatch(winnerID, loserID, reason string) {
	if r.status == StatusFinished {
		return
	}
	for _, slot := range r.players {
		slot.stopTimers()
	}
	if r.aiStepTimer != nil {
		r.aiStepTimer.Stop()
	}
	if r.aiCastTimer != nil {
		r.aiCastTimer.Stop()
	}

	r.status = StatusFinished
	r.winnerID = winnerID
	r.finished.Store(true)

	if winnerID != "" {
		final := gameFinishedMessage{Type: msgGameFinished, WinnerID: winnerID, LoserID: loserID}
		for _, slot := range r.players {
			r.send(slot.conn, final)
		}
	} else {
		for _, slot := range r.players {
			r.send(slot.conn, roomStateMessage{Type: msgRoomState, Status: r.status, PlayerCount: len(r.players)})
		}
	}

	matchlog.Finished(context.Background(), r.cfg.Publisher, r.id, matchlog.MatchFinishedPayload{
		WinnerID: winnerID,
		LoserID:  loserID,
		Reason:   reason,
	})
	r.maybeShutdown()
}

// maybeShutdown ends the actor once the match is over and no connections
// remain.
func (r *Room) maybeShutdown() {
	if r.status != StatusFinished {
		return
	}
	for _, slot := range r.players {
		if slot.conn != nil {
			return
		}
	}
	r.shutdown()
}

func (r *Room) shutdown() {
	for _, slot := range r.players {
		slot.stopTimers()
	}
	if r.aiStepTimer != nil {
		r.aiStepTimer.Stop()
	}
	if r.aiCastTimer != nil {
		r.aiCastTimer.Stop()
	}
	r.finished.Store(true)
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}

// send writes one message to a connection, tolerating nil conns (the AI
// slot) and transport failures; a failed write is handled by the transport
// read loop signalling a disconnect.
func (r *Room) send(conn Conn, message any) {
	if conn == nil {
		return
	}
	if err := conn.Send(message); err != nil {
		r.cfg.Logger.Printf("room %s: send failed: %v", r.id, err)
	}
}

func aiRequestID(seq uint64) string {
	return "ai-cast-" + strconv.FormatUint(seq, 10)
}
