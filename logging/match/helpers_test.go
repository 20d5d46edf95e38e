package match

import (
	"context"
	"testing"

	"stackduel/server/logging"
)

type recorded struct {
	events []logging.Event
}

func (r *recorded) publisher() logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		r.events = append(r.events, event)
	})
}

func TestStartedCarriesSeedAndRoster(t *testing.T) {
	rec := &recorded{}
	Started(context.Background(), rec.publisher(), "duel-1", MatchStartedPayload{
		Seed:    77,
		Players: []string{"alice", "bob"},
	})

	if len(rec.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(rec.events))
	}
	event := rec.events[0]
	if event.Type != EventMatchStarted {
		t.Fatalf("type = %s", event.Type)
	}
	if event.Category != logging.CategoryGameplay {
		t.Fatalf("category = %s", event.Category)
	}
	if event.Actor.Kind != logging.EntityKindRoom || event.Actor.ID != "duel-1" {
		t.Fatalf("actor = %+v", event.Actor)
	}
	payload, ok := event.Payload.(MatchStartedPayload)
	if !ok || payload.Seed != 77 || len(payload.Players) != 2 {
		t.Fatalf("payload = %+v", event.Payload)
	}
}

func TestAbilityCastNamesCasterAndTarget(t *testing.T) {
	rec := &recorded{}
	AbilityCast(context.Background(), rec.publisher(), "duel-1", "alice", "bob", AbilityPayload{
		AbilityID:   "earthquake",
		ChargedCost: 6,
	})

	event := rec.events[0]
	if event.Actor.ID != "alice" || event.Actor.Kind != logging.EntityKindPlayer {
		t.Fatalf("actor = %+v", event.Actor)
	}
	if len(event.Targets) != 1 || event.Targets[0].ID != "bob" {
		t.Fatalf("targets = %+v", event.Targets)
	}
}

func TestRejectionIsDebugSeverity(t *testing.T) {
	rec := &recorded{}
	AbilityRejected(context.Background(), rec.publisher(), "duel-1", "alice", AbilityPayload{
		AbilityID: "earthquake",
		Reason:    "insufficient_stars",
	})

	if rec.events[0].Severity != logging.SeverityDebug {
		t.Fatalf("severity = %d", rec.events[0].Severity)
	}
}

func TestNilPublisherIsSafe(t *testing.T) {
	Finished(context.Background(), nil, "duel-1", MatchFinishedPayload{WinnerID: "alice"})
	PlayerJoined(context.Background(), nil, "duel-1", "alice")
}
