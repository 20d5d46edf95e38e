package sim

import (
	"sort"
	"time"

	"stackduel/server/internal/abilities"
)

// Interception is the outcome of asking a defender whether an incoming
// debuff is intercepted.
type Interception string

const (
	InterceptNone    Interception = ""
	InterceptShield  Interception = "shield"
	InterceptReflect Interception = "reflect"
)

// effectActive is the single place expiry is decided: an entry at or past
// its deadline is treated as absent everywhere.
func (s *GameState) effectActive(id string, now time.Time) bool {
	expiry, ok := s.activeEffects[id]
	if !ok {
		return false
	}
	if !expiry.After(now) {
		delete(s.activeEffects, id)
		return false
	}
	return true
}

// EffectActive reports whether the named timed effect is currently live.
func (s *GameState) EffectActive(id string) bool {
	return s.effectActive(id, s.now())
}

// ActiveEffectIDs returns the live effect ids in sorted order, dropping
// expired entries as a side effect.
func (s *GameState) ActiveEffectIDs() []string {
	now := s.now()
	ids := make([]string, 0, len(s.activeEffects))
	for id := range s.activeEffects {
		if s.effectActive(id, now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ClearActiveEffects removes every timed effect immediately. Used by the
// purge resolution path.
func (s *GameState) ClearActiveEffects() {
	for id := range s.activeEffects {
		delete(s.activeEffects, id)
	}
}

// ConsumeDefensiveInterception pops a live shield or reflect effect. The
// consumed effect is spent regardless of its remaining duration; shield
// wins when both are up. Callers invoke this only for incoming debuffs.
func (s *GameState) ConsumeDefensiveInterception() Interception {
	now := s.now()
	if s.effectActive(abilities.Shield, now) {
		delete(s.activeEffects, abilities.Shield)
		return InterceptShield
	}
	if s.effectActive(abilities.Reflect, now) {
		delete(s.activeEffects, abilities.Reflect)
		return InterceptReflect
	}
	return InterceptNone
}

// TickInterval returns the effective gravity interval. The base interval is
// never mutated; speed effects scale the returned value for exactly as long
// as they are live, so expiry restores the prior rate by construction.
func (s *GameState) TickInterval() time.Duration {
	interval := s.cfg.BaseTickInterval
	if s.EffectActive(abilities.SpeedUp) && s.cfg.SpeedUpFactor > 1 {
		interval /= time.Duration(s.cfg.SpeedUpFactor)
	}
	return interval
}
