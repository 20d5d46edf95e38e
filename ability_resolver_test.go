package server

import (
	"testing"
	"time"

	"stackduel/server/internal/abilities"
)

func startedDuel(t *testing.T, id string) (*Room, *fakeConn, *fakeConn) {
	t.Helper()
	room := NewRoom(id, testRoomConfig())
	t.Cleanup(room.Close)
	connA := joinPlayer(t, room, "alice")
	connB := joinPlayer(t, room, "bob")
	waitFor(t, "game_start", func() bool {
		_, a := gameStartOn(connA)
		_, b := gameStartOn(connB)
		return a && b
	})
	return room, connA, connB
}

func hasActiveEffect(conn *fakeConn, effect string, yours bool) bool {
	for _, m := range conn.snapshot() {
		upd, ok := m.(stateUpdateMessage)
		if !ok {
			continue
		}
		effects := upd.YourState.ActiveEffects
		if !yours {
			effects = upd.OpponentState.ActiveEffects
		}
		for _, id := range effects {
			if id == effect {
				return true
			}
		}
	}
	return false
}

func TestUnknownAbilityRejected(t *testing.T) {
	room, connA, _ := startedDuel(t, "res-unknown")

	cast(room, connA, "alice", "fireball", "", "r1")
	res := waitForResult(t, connA, "r1")
	if res.Accepted || res.Reason != reasonUnknownAbility {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RemainingStars != 12 {
		t.Fatal("rejection before the cost step must not charge")
	}
}

func TestSelfTargetingMismatchRejected(t *testing.T) {
	room, connA, _ := startedDuel(t, "res-target")

	// shield targets self; naming the opponent is a mismatch.
	cast(room, connA, "alice", abilities.Shield, "bob", "r1")
	res := waitForResult(t, connA, "r1")
	if res.Accepted || res.Reason != reasonInvalidTarget {
		t.Fatalf("unexpected result %+v", res)
	}

	// earthquake targets the opponent; naming yourself is a mismatch.
	cast(room, connA, "alice", abilities.Earthquake, "alice", "r2")
	res = waitForResult(t, connA, "r2")
	if res.Accepted || res.Reason != reasonInvalidTarget {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestOmittedTargetDefaultsByRule(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-default")

	cast(room, connA, "alice", abilities.Shield, "", "r1")
	if res := waitForResult(t, connA, "r1"); !res.Accepted {
		t.Fatalf("self cast with omitted target should succeed: %+v", res)
	}

	cast(room, connA, "alice", abilities.ReverseControls, "", "r2")
	res := waitForResult(t, connA, "r2")
	if !res.Accepted {
		t.Fatalf("opponent cast with omitted target should succeed: %+v", res)
	}
	waitFor(t, "bob receives the debuff", func() bool {
		for _, m := range connB.snapshot() {
			if recv, ok := m.(abilityReceivedMessage); ok {
				return recv.AbilityID == abilities.ReverseControls && recv.FromPlayerID == "alice"
			}
		}
		return false
	})
}

func TestInsufficientStarsRejectedAtCostStep(t *testing.T) {
	cfg := testRoomConfig()
	cfg.Sim.StartingStars = 0
	room := NewRoom("res-broke", cfg)
	t.Cleanup(room.Close)
	connA := joinPlayer(t, room, "alice")
	joinPlayer(t, room, "bob")
	waitFor(t, "game_start", func() bool { _, ok := gameStartOn(connA); return ok })

	cast(room, connA, "alice", abilities.Earthquake, "", "r1")
	res := waitForResult(t, connA, "r1")
	if res.Accepted || res.Reason != reasonInsufficientStars {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.RemainingStars != 0 {
		t.Fatalf("stars must be untouched, got %d", res.RemainingStars)
	}
}

func TestShieldBlocksOneDebuffWithoutRefund(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-shield")

	cast(room, connB, "bob", abilities.Shield, "", "b1")
	if res := waitForResult(t, connB, "b1"); !res.Accepted {
		t.Fatalf("shield cast failed: %+v", res)
	}

	cast(room, connA, "alice", abilities.Earthquake, "", "a1")
	res := waitForResult(t, connA, "a1")
	if res.Accepted {
		t.Fatal("shielded debuff must come back unaccepted")
	}
	if res.Reason != reasonBlockedByShield || res.InterceptedBy != "shield" {
		t.Fatalf("unexpected block result %+v", res)
	}
	if res.ChargedCost == 0 {
		t.Fatal("a blocked cast still costs stars")
	}
	if res.RemainingStars != 12-res.ChargedCost {
		t.Fatalf("no refund on block: remaining %d", res.RemainingStars)
	}

	waitFor(t, "bob's block notice", func() bool {
		for _, m := range connB.snapshot() {
			if blocked, ok := m.(abilityBlockedMessage); ok {
				return blocked.AbilityID == abilities.Earthquake &&
					blocked.FromPlayerID == "alice" && blocked.BlockedBy == "shield"
			}
		}
		return false
	})

	// The shield was consumed; the next debuff lands.
	cast(room, connA, "alice", abilities.ReverseControls, "", "a2")
	res = waitForResult(t, connA, "a2")
	if !res.Accepted || res.InterceptedBy != "" {
		t.Fatalf("second debuff should land: %+v", res)
	}
	waitFor(t, "debuff visible on bob", func() bool {
		return hasActiveEffect(connB, abilities.ReverseControls, true)
	})
}

func TestReflectBouncesDebuffBackToCaster(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-reflect")

	cast(room, connB, "bob", abilities.Reflect, "", "b1")
	if res := waitForResult(t, connB, "b1"); !res.Accepted {
		t.Fatalf("reflect cast failed: %+v", res)
	}

	cast(room, connA, "alice", abilities.RotationLock, "", "a1")
	res := waitForResult(t, connA, "a1")
	if !res.Accepted {
		t.Fatalf("reflected cast still resolves: %+v", res)
	}
	if res.InterceptedBy != "reflect" || res.Reason != reasonReflected {
		t.Fatalf("unexpected reflect result %+v", res)
	}
	if res.RemainingStars != 12-res.ChargedCost {
		t.Fatal("no refund on reflect")
	}

	// The debuff lands on the original caster, not the reflector.
	waitFor(t, "rotation_lock on alice", func() bool {
		return hasActiveEffect(connA, abilities.RotationLock, true)
	})
	if hasActiveEffect(connB, abilities.RotationLock, true) {
		t.Fatal("reflector must not receive the debuff")
	}
}

func TestCloneCopiesTargetsLastCast(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-clone")

	cast(room, connB, "bob", abilities.Blackout, "", "b1")
	if res := waitForResult(t, connB, "b1"); !res.Accepted {
		t.Fatalf("priming cast failed: %+v", res)
	}

	cast(room, connA, "alice", abilities.Clone, "", "a1")
	res := waitForResult(t, connA, "a1")
	if !res.Accepted {
		t.Fatalf("clone should resolve: %+v", res)
	}
	if res.AppliedAbilityID != abilities.Blackout {
		t.Fatalf("clone applied %q, want blackout", res.AppliedAbilityID)
	}

	// The copied opponent-targeting debuff lands on bob, relative to alice.
	waitFor(t, "copied debuff received by bob", func() bool {
		for _, m := range connB.snapshot() {
			if recv, ok := m.(abilityReceivedMessage); ok {
				return recv.AbilityID == abilities.Blackout && recv.FromPlayerID == "alice"
			}
		}
		return false
	})
}

func TestCloneWithNoHistoryRefunds(t *testing.T) {
	room, connA, _ := startedDuel(t, "res-clone-empty")

	cast(room, connA, "alice", abilities.Clone, "", "a1")
	res := waitForResult(t, connA, "a1")
	if res.Accepted || res.Reason != reasonCloneNoAbility {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.ChargedCost != 0 {
		t.Fatalf("failed clone reports zero charge, got %d", res.ChargedCost)
	}
	if res.RemainingStars != 12 {
		t.Fatalf("failed clone must refund in full, got %d stars", res.RemainingStars)
	}
}

func TestCloneDoesNotCopyCloneOrPurge(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-clone-filter")

	// bob casts a real debuff, then purge; purge must not overwrite his
	// recorded cast.
	cast(room, connB, "bob", abilities.Blackout, "", "b1")
	waitForResult(t, connB, "b1")
	cast(room, connB, "bob", abilities.Purge, "", "b2")
	waitForResult(t, connB, "b2")

	cast(room, connA, "alice", abilities.Clone, "", "a1")
	res := waitForResult(t, connA, "a1")
	if !res.Accepted || res.AppliedAbilityID != abilities.Blackout {
		t.Fatalf("clone must copy the last non-clone, non-purge cast: %+v", res)
	}
}

func TestPurgeClearsBothPlayers(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-purge")

	cast(room, connA, "alice", abilities.ReverseControls, "", "a1")
	waitForResult(t, connA, "a1")
	cast(room, connB, "bob", abilities.RotationLock, "", "b1")
	waitForResult(t, connB, "b1")

	waitFor(t, "both debuffs active", func() bool {
		return hasActiveEffect(connB, abilities.ReverseControls, true) &&
			hasActiveEffect(connA, abilities.RotationLock, true)
	})

	cast(room, connA, "alice", abilities.Purge, "", "a2")
	if res := waitForResult(t, connA, "a2"); !res.Accepted {
		t.Fatalf("purge failed: %+v", res)
	}

	waitFor(t, "both sides cleansed", func() bool {
		msgs := connA.snapshot()
		for i := len(msgs) - 1; i >= 0; i-- {
			if upd, ok := msgs[i].(stateUpdateMessage); ok {
				return len(upd.YourState.ActiveEffects) == 0 &&
					len(upd.OpponentState.ActiveEffects) == 0
			}
		}
		return false
	})
}

func TestBargainDiscountsTheNextCast(t *testing.T) {
	room, connA, _ := startedDuel(t, "res-bargain")

	cast(room, connA, "alice", abilities.Bargain, "", "a1")
	res := waitForResult(t, connA, "a1")
	if !res.Accepted {
		t.Fatalf("bargain failed: %+v", res)
	}
	starsAfterBargain := res.RemainingStars

	cast(room, connA, "alice", abilities.Earthquake, "", "a2")
	res = waitForResult(t, connA, "a2")
	if !res.Accepted {
		t.Fatalf("discounted cast failed: %+v", res)
	}
	quake, _ := abilities.BuiltIn().Lookup(abilities.Earthquake)
	wantCharge := quake.Cost - 2
	if res.ChargedCost != wantCharge {
		t.Fatalf("expected discounted charge %d, got %d", wantCharge, res.ChargedCost)
	}
	if res.RemainingStars != starsAfterBargain-wantCharge {
		t.Fatalf("star arithmetic off: %d", res.RemainingStars)
	}
}

func TestLoadoutRestrictsCasts(t *testing.T) {
	cfg := testRoomConfig()
	room := NewRoom("res-loadout", cfg)
	t.Cleanup(room.Close)

	connA := &fakeConn{}
	room.HandleJoin(JoinMessage{PlayerID: "alice", Loadout: []string{abilities.Shield}}, connA)
	joinPlayer(t, room, "bob")
	waitFor(t, "game_start", func() bool { _, ok := gameStartOn(connA); return ok })

	cast(room, connA, "alice", abilities.Earthquake, "", "a1")
	res := waitForResult(t, connA, "a1")
	if res.Accepted || res.Reason != reasonNotInLoadout {
		t.Fatalf("unexpected result %+v", res)
	}

	cast(room, connA, "alice", abilities.Shield, "", "a2")
	if res := waitForResult(t, connA, "a2"); !res.Accepted {
		t.Fatalf("loadout ability must cast: %+v", res)
	}
}

func TestCastsOutsideActiveMatchRejected(t *testing.T) {
	room := NewRoom("res-lobby", testRoomConfig())
	t.Cleanup(room.Close)
	connA := joinPlayer(t, room, "alice")

	cast(room, connA, "alice", abilities.Bargain, "", "w1")
	res := waitForResult(t, connA, "w1")
	if res.Accepted || res.Reason != reasonMatchNotActive {
		t.Fatalf("waiting-room cast must be rejected: %+v", res)
	}
}

func TestCastsAfterMatchEndsRejected(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-finished")

	room.HandleMessage(GameOverMessage{PlayerID: "alice"}, connA)
	waitFor(t, "match finished", room.Finished)

	cast(room, connB, "bob", abilities.Earthquake, "", "f1")
	res := waitForResult(t, connB, "f1")
	if res.Accepted || res.Reason != reasonMatchNotActive {
		t.Fatalf("finished-match cast must be rejected: %+v", res)
	}
}

func TestRejectionsCarryNoStateSideEffects(t *testing.T) {
	room, connA, connB := startedDuel(t, "res-noside")

	cast(room, connA, "alice", "fireball", "", "a1")
	waitForResult(t, connA, "a1")

	// Give any stray broadcast a moment, then confirm nothing landed.
	time.Sleep(50 * time.Millisecond)
	if hasActiveEffect(connB, "fireball", true) {
		t.Fatal("rejected cast must not touch the target simulation")
	}
}
