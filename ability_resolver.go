package server

import (
	"context"

	"stackduel/server/internal/abilities"
	"stackduel/server/internal/sim"
	matchlog "stackduel/server/logging/match"
)

// handleAbility is the entry point for a client's ability_activation
// request; the AI cast path calls resolveAbility directly.
func (r *Room) handleAbility(msg AbilityActivationMessage, from Conn) {
	r.resolveAbility(msg, from)
}

// resolveAbility runs the activation protocol in strict order: lookup,
// targeting validation, source checks, target checks, cost, defensive
// interception, clone substitution, apply, notify, bookkeeping, broadcast.
// Requests are processed one at a time by the room actor, so no two
// resolutions ever overlap.
func (r *Room) resolveAbility(msg AbilityActivationMessage, from Conn) {
	source := r.players[msg.PlayerID]
	replyConn := from
	if replyConn == nil && source != nil {
		replyConn = source.conn
	}

	reject := func(reason string) {
		stars := 0
		if source != nil && source.state != nil {
			stars = source.state.Stars()
		}
		r.send(replyConn, abilityResultMessage{
			Type:           msgAbilityResult,
			RequestID:      msg.RequestID,
			AbilityID:      msg.AbilityID,
			Accepted:       false,
			Reason:         reason,
			RemainingStars: stars,
		})
		matchlog.AbilityRejected(context.Background(), r.cfg.Publisher, r.id, msg.PlayerID,
			matchlog.AbilityPayload{AbilityID: msg.AbilityID, Reason: reason})
	}

	// Casts are only meaningful while the match runs. A lone player in a
	// waiting room must not bank charges, and a finished board is frozen.
	if r.status != StatusPlaying {
		reject(reasonMatchNotActive)
		return
	}

	// 1. Lookup.
	def, ok := r.cfg.Catalog.Lookup(msg.AbilityID)
	if !ok {
		reject(reasonUnknownAbility)
		return
	}

	// 2. Targeting validation. An omitted target defaults to whatever the
	// targeting rule dictates; an explicit mismatch is rejected.
	targetID := msg.TargetPlayerID
	if targetID == "" {
		if def.Targeting == abilities.TargetSelf {
			targetID = msg.PlayerID
		} else {
			targetID = r.opponentOf(msg.PlayerID)
		}
	}
	if def.Targeting == abilities.TargetSelf && targetID != msg.PlayerID {
		reject(reasonInvalidTarget)
		return
	}
	if def.Targeting == abilities.TargetOpponent && targetID == msg.PlayerID {
		reject(reasonInvalidTarget)
		return
	}

	// 3. Source checks.
	if source == nil {
		reject(reasonSourcePlayerMissing)
		return
	}
	if source.state == nil {
		reject(reasonSourceStateMissing)
		return
	}
	if !source.state.LoadoutAllows(msg.AbilityID) {
		reject(reasonNotInLoadout)
		return
	}

	// 4. Target checks.
	target := r.players[targetID]
	if target == nil {
		reject(reasonTargetPlayerMissing)
		return
	}
	if target.state == nil {
		reject(reasonTargetStateMissing)
		return
	}

	// 5. Cost. The caster pays up front; a later block or reflect never
	// refunds, which is the counterplay incentive for holding a shield.
	charge := source.state.CastCharge(def.Cost)
	if !source.state.ChargeStars(charge) {
		reject(reasonInsufficientStars)
		return
	}
	source.state.ConsumeCastModifiers()

	// 10 (early). Any successfully-charged non-clone, non-purge cast is
	// recorded for clone resolution, even if it ends up blocked or
	// reflected: the caster did cast it.
	if msg.AbilityID != abilities.Clone && msg.AbilityID != abilities.Purge {
		source.state.RecordNonCloneCast(msg.AbilityID)
	}

	finalSource, finalTarget := source, target
	interceptedBy := ""

	// 6. Defensive interception, debuffs only.
	if def.Category == abilities.CategoryDebuff {
		switch target.state.ConsumeDefensiveInterception() {
		case sim.InterceptShield:
			r.send(replyConn, abilityResultMessage{
				Type:           msgAbilityResult,
				RequestID:      msg.RequestID,
				AbilityID:      msg.AbilityID,
				Accepted:       false,
				Reason:         reasonBlockedByShield,
				InterceptedBy:  "shield",
				ChargedCost:    charge,
				RemainingStars: source.state.Stars(),
			})
			// The target learns something was aimed at it and stopped;
			// this is deliberately not the ability_received event.
			r.send(target.conn, abilityBlockedMessage{
				Type:         msgAbilityBlocked,
				AbilityID:    msg.AbilityID,
				FromPlayerID: source.id,
				BlockedBy:    "shield",
			})
			matchlog.AbilityBlocked(context.Background(), r.cfg.Publisher, r.id, source.id, target.id,
				matchlog.AbilityPayload{AbilityID: msg.AbilityID, ChargedCost: charge})
			r.markDirty()
			return
		case sim.InterceptReflect:
			finalSource, finalTarget = target, source
			interceptedBy = "reflect"
			matchlog.AbilityReflected(context.Background(), r.cfg.Publisher, r.id, source.id, target.id,
				matchlog.AbilityPayload{AbilityID: msg.AbilityID, ChargedCost: charge})
		}
	}

	// 7. Clone substitutes the resolved target's last non-clone cast and
	// re-targets it relative to the resolved caster.
	appliedID := msg.AbilityID
	if msg.AbilityID == abilities.Clone {
		copied := finalTarget.state.LastNonCloneCast()
		copiedDef, known := r.cfg.Catalog.Lookup(copied)
		if copied == "" || !known {
			source.state.GrantStars(charge)
			r.send(replyConn, abilityResultMessage{
				Type:           msgAbilityResult,
				RequestID:      msg.RequestID,
				AbilityID:      msg.AbilityID,
				Accepted:       false,
				Reason:         reasonCloneNoAbility,
				ChargedCost:    0,
				RemainingStars: source.state.Stars(),
			})
			matchlog.AbilityRejected(context.Background(), r.cfg.Publisher, r.id, source.id,
				matchlog.AbilityPayload{AbilityID: msg.AbilityID, Reason: reasonCloneNoAbility})
			return
		}
		appliedID = copied
		if copiedDef.Targeting == abilities.TargetSelf {
			finalTarget = finalSource
		} else {
			finalTarget = r.players[r.opponentOf(finalSource.id)]
			if finalTarget == nil || finalTarget.state == nil {
				source.state.GrantStars(charge)
				reject(reasonTargetStateMissing)
				return
			}
		}
	}

	// 8. Apply. Purge cleanses both participants instead of applying to a
	// single simulation.
	if appliedID == abilities.Purge {
		for _, slot := range r.players {
			slot.state.ClearActiveEffects()
		}
	} else {
		finalTarget.state.ApplyAbility(appliedID)
		if finalTarget.driver != nil {
			if applied, known := r.cfg.Catalog.Lookup(appliedID); known && applied.Instant() {
				finalTarget.driver.DropPlan()
			}
		}
	}

	// 9. Notify resolved target and original caster.
	if finalTarget.id != source.id {
		r.send(finalTarget.conn, abilityReceivedMessage{
			Type:         msgAbilityReceived,
			AbilityID:    appliedID,
			FromPlayerID: finalSource.id,
		})
	}
	result := abilityResultMessage{
		Type:             msgAbilityResult,
		RequestID:        msg.RequestID,
		AbilityID:        msg.AbilityID,
		AppliedAbilityID: appliedID,
		Accepted:         true,
		InterceptedBy:    interceptedBy,
		ChargedCost:      charge,
		RemainingStars:   source.state.Stars(),
	}
	if interceptedBy == "reflect" {
		result.Reason = reasonReflected
	}
	r.send(replyConn, result)

	matchlog.AbilityCast(context.Background(), r.cfg.Publisher, r.id, source.id, finalTarget.id,
		matchlog.AbilityPayload{AbilityID: msg.AbilityID, AppliedAbilityID: appliedID, ChargedCost: charge})

	// 11. Broadcast the new state to both participants.
	r.markDirty()
}
