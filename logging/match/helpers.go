// Package match publishes the gameplay events the match actor emits.
package match

import (
	"context"

	"stackduel/server/logging"
)

const (
	EventMatchStarted       logging.EventType = "match.started"
	EventMatchFinished      logging.EventType = "match.finished"
	EventPlayerJoined       logging.EventType = "match.player_joined"
	EventPlayerDisconnected logging.EventType = "match.player_disconnected"
	EventPlayerToppedOut    logging.EventType = "match.player_topped_out"
	EventAbilityCast        logging.EventType = "match.ability_cast"
	EventAbilityBlocked     logging.EventType = "match.ability_blocked"
	EventAbilityReflected   logging.EventType = "match.ability_reflected"
	EventAbilityRejected    logging.EventType = "match.ability_rejected"
)

type MatchStartedPayload struct {
	Seed    int64    `json:"seed"`
	Players []string `json:"players"`
}

type MatchFinishedPayload struct {
	WinnerID string `json:"winnerId"`
	LoserID  string `json:"loserId"`
	Reason   string `json:"reason"`
}

type AbilityPayload struct {
	AbilityID        string `json:"abilityId"`
	AppliedAbilityID string `json:"appliedAbilityId,omitempty"`
	ChargedCost      int    `json:"chargedCost"`
	Reason           string `json:"reason,omitempty"`
}

type DisconnectPayload struct {
	Status string `json:"status"`
}

func player(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryGameplay
	pub.Publish(ctx, event)
}

func Started(ctx context.Context, pub logging.Publisher, roomID string, payload MatchStartedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventMatchStarted,
		Room:     roomID,
		Actor:    logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func Finished(ctx context.Context, pub logging.Publisher, roomID string, payload MatchFinishedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventMatchFinished,
		Room:     roomID,
		Actor:    logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func PlayerJoined(ctx context.Context, pub logging.Publisher, roomID, playerID string) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerJoined,
		Room:     roomID,
		Actor:    player(playerID),
		Severity: logging.SeverityInfo,
	})
}

func PlayerDisconnected(ctx context.Context, pub logging.Publisher, roomID, playerID string, payload DisconnectPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerDisconnected,
		Room:     roomID,
		Actor:    player(playerID),
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func PlayerToppedOut(ctx context.Context, pub logging.Publisher, roomID, playerID string) {
	publish(ctx, pub, logging.Event{
		Type:     EventPlayerToppedOut,
		Room:     roomID,
		Actor:    player(playerID),
		Severity: logging.SeverityInfo,
	})
}

func AbilityCast(ctx context.Context, pub logging.Publisher, roomID, casterID, targetID string, payload AbilityPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbilityCast,
		Room:     roomID,
		Actor:    player(casterID),
		Targets:  []logging.EntityRef{player(targetID)},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func AbilityBlocked(ctx context.Context, pub logging.Publisher, roomID, casterID, targetID string, payload AbilityPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbilityBlocked,
		Room:     roomID,
		Actor:    player(casterID),
		Targets:  []logging.EntityRef{player(targetID)},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func AbilityReflected(ctx context.Context, pub logging.Publisher, roomID, casterID, targetID string, payload AbilityPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbilityReflected,
		Room:     roomID,
		Actor:    player(casterID),
		Targets:  []logging.EntityRef{player(targetID)},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func AbilityRejected(ctx context.Context, pub logging.Publisher, roomID, casterID string, payload AbilityPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventAbilityRejected,
		Room:     roomID,
		Actor:    player(casterID),
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}
