package server

import (
	"encoding/json"
	"fmt"

	"stackduel/server/internal/sim"
)

// Wire message type tags. Inbound and outbound sets are closed; adding a
// kind means extending the dispatch switch below.
const (
	msgJoin              = "join"
	msgPlayerInput       = "player_input"
	msgAbilityActivation = "ability_activation"
	msgGameOver          = "game_over"

	msgRoomState            = "room_state"
	msgGameStart            = "game_start"
	msgStateUpdate          = "state_update"
	msgInputConfirmed       = "input_confirmed"
	msgInputRejected        = "input_rejected"
	msgAbilityReceived      = "ability_received"
	msgAbilityBlocked       = "ability_blocked"
	msgAbilityResult        = "ability_activation_result"
	msgGameFinished         = "game_finished"
	msgServerError          = "server_error"
	msgOpponentDisconnected = "opponent_disconnected"
)

// Validation reject reasons returned to requesters; never raised as errors.
const (
	reasonUnknownAbility      = "unknown_ability"
	reasonInvalidTarget       = "invalid_target"
	reasonSourcePlayerMissing = "source_player_missing"
	reasonSourceStateMissing  = "source_state_missing"
	reasonNotInLoadout        = "ability_not_in_loadout"
	reasonInsufficientStars   = "insufficient_stars"
	reasonTargetPlayerMissing = "target_player_missing"
	reasonTargetStateMissing  = "target_state_missing"
	reasonCloneNoAbility      = "clone_no_ability"
	reasonBlockedByShield     = "blocked_by_shield"
	reasonReflected           = "reflected_by_opponent"
	reasonUnknownInput        = "unknown_input"
	reasonPlayerMissing       = "player_missing"
	reasonStateMissing        = "state_missing"
	reasonMatchNotActive      = "match_not_active"
)

// AIPersona is the opaque tunable block a client may attach to its join to
// request a scripted opponent.
type AIPersona struct {
	PlayerID          string `json:"playerId,omitempty"`
	ReactionDelayMs   int    `json:"reactionDelayMs,omitempty"`
	AbilityCooldownMs int    `json:"abilityCooldownMs,omitempty"`
}

// clientEnvelope is the single inbound JSON shape; Type selects which
// fields are meaningful.
type clientEnvelope struct {
	Type           string     `json:"type"`
	PlayerID       string     `json:"playerId"`
	Loadout        []string   `json:"loadout,omitempty"`
	AIOpponent     *AIPersona `json:"aiOpponent,omitempty"`
	InputKind      string     `json:"inputKind,omitempty"`
	Seq            uint64     `json:"seq,omitempty"`
	AbilityID      string     `json:"abilityId,omitempty"`
	TargetPlayerID string     `json:"targetPlayerId,omitempty"`
	RequestID      string     `json:"requestId,omitempty"`
}

// ClientMessage is the decoded inbound union.
type ClientMessage interface {
	isClientMessage()
}

type JoinMessage struct {
	PlayerID   string
	Loadout    []string
	AIOpponent *AIPersona
}

type PlayerInputMessage struct {
	PlayerID string
	Kind     sim.Input
	Seq      uint64
}

type AbilityActivationMessage struct {
	PlayerID       string
	AbilityID      string
	TargetPlayerID string
	RequestID      string
}

type GameOverMessage struct {
	PlayerID string
}

func (JoinMessage) isClientMessage()              {}
func (PlayerInputMessage) isClientMessage()       {}
func (AbilityActivationMessage) isClientMessage() {}
func (GameOverMessage) isClientMessage()          {}

// DecodeClientMessage parses one inbound payload. Unknown types and
// malformed JSON come back as errors for the caller to answer with
// server_error; they never reach the room actor.
func DecodeClientMessage(payload []byte) (ClientMessage, error) {
	var env clientEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}
	switch env.Type {
	case msgJoin:
		return JoinMessage{PlayerID: env.PlayerID, Loadout: env.Loadout, AIOpponent: env.AIOpponent}, nil
	case msgPlayerInput:
		return PlayerInputMessage{PlayerID: env.PlayerID, Kind: sim.Input(env.InputKind), Seq: env.Seq}, nil
	case msgAbilityActivation:
		return AbilityActivationMessage{
			PlayerID:       env.PlayerID,
			AbilityID:      env.AbilityID,
			TargetPlayerID: env.TargetPlayerID,
			RequestID:      env.RequestID,
		}, nil
	case msgGameOver:
		return GameOverMessage{PlayerID: env.PlayerID}, nil
	default:
		return nil, fmt.Errorf("unsupported message type %q", env.Type)
	}
}

type roomStateMessage struct {
	Type        string `json:"type"`
	Status      Status `json:"status"`
	PlayerCount int    `json:"playerCount"`
}

type gameStartMessage struct {
	Type        string   `json:"type"`
	PlayerIDs   []string `json:"playerIds"`
	Seed        int64    `json:"seed"`
	CatalogHash string   `json:"catalogHash"`
}

type stateUpdateMessage struct {
	Type          string          `json:"type"`
	YourState     sim.PublicState `json:"yourState"`
	OpponentState sim.PublicState `json:"opponentState"`
	ServerTime    int64           `json:"serverTime"`
}

type inputResultMessage struct {
	Type   string           `json:"type"`
	Seq    uint64           `json:"seq"`
	Reason string           `json:"reason,omitempty"`
	State  *sim.PublicState `json:"state,omitempty"`
}

type abilityReceivedMessage struct {
	Type         string `json:"type"`
	AbilityID    string `json:"abilityId"`
	FromPlayerID string `json:"fromPlayerId"`
}

type abilityBlockedMessage struct {
	Type         string `json:"type"`
	AbilityID    string `json:"abilityId"`
	FromPlayerID string `json:"fromPlayerId"`
	BlockedBy    string `json:"blockedBy"`
}

type abilityResultMessage struct {
	Type             string `json:"type"`
	RequestID        string `json:"requestId"`
	AbilityID        string `json:"abilityId"`
	AppliedAbilityID string `json:"appliedAbilityId,omitempty"`
	Accepted         bool   `json:"accepted"`
	Reason           string `json:"reason,omitempty"`
	InterceptedBy    string `json:"interceptedBy,omitempty"`
	ChargedCost      int    `json:"chargedCost"`
	RemainingStars   int    `json:"remainingStars"`
}

type gameFinishedMessage struct {
	Type     string `json:"type"`
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
}

type serverErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type opponentDisconnectedMessage struct {
	Type string `json:"type"`
}

// ServerError builds the structured error reply sent to a single offending
// sender; the room itself is never affected.
func ServerError(code, message string) any {
	return serverErrorMessage{Type: msgServerError, Code: code, Message: message}
}
