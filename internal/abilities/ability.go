package abilities

import "time"

// Category groups abilities by who they help and how they resolve.
type Category string

const (
	CategoryBuff      Category = "buff"
	CategoryDebuff    Category = "debuff"
	CategoryDefensive Category = "defensive"
)

// Targeting constrains which player an activation request may name.
type Targeting string

const (
	TargetSelf     Targeting = "self"
	TargetOpponent Targeting = "opponent"
)

// Wire-visible ability identifiers. The catalog may be re-tuned from JSON
// but these ids are referenced by the resolver and the simulation.
const (
	Shield          = "shield"
	Reflect         = "reflect"
	Clone           = "clone"
	Purge           = "purge"
	Earthquake      = "earthquake"
	DebrisRain      = "debris_rain"
	MirrorField     = "mirror_field"
	CrossBlast      = "cross_blast"
	SpeedUp         = "speed_up_opponent"
	ReverseControls = "reverse_controls"
	RotationLock    = "rotation_lock"
	Blackout        = "blackout"
	Compact         = "compact"
	Bargain         = "bargain"
)

// Definition is one immutable catalog row. DurationMs of zero marks an
// instantaneous ability.
type Definition struct {
	ID         string    `json:"id" jsonschema:"title=Ability id,pattern=^[a-z0-9_]+$,minLength=1,required"`
	Cost       int       `json:"cost" jsonschema:"title=Star cost,minimum=0,required"`
	DurationMs int       `json:"durationMs" jsonschema:"title=Effect duration in milliseconds,minimum=0"`
	Category   Category  `json:"category" jsonschema:"title=Category,enum=buff,enum=debuff,enum=defensive,required"`
	Targeting  Targeting `json:"targeting" jsonschema:"title=Targeting rule,enum=self,enum=opponent,required"`
}

// Duration converts the authored millisecond value.
func (d Definition) Duration() time.Duration {
	return time.Duration(d.DurationMs) * time.Millisecond
}

// Instant reports whether the ability resolves entirely at cast time.
func (d Definition) Instant() bool {
	return d.DurationMs == 0
}

// defaults is the built-in catalog. A designer JSON file may re-tune any
// row; rows it does not mention keep these values.
var defaults = []Definition{
	{ID: Shield, Cost: 4, DurationMs: 15000, Category: CategoryDefensive, Targeting: TargetSelf},
	{ID: Reflect, Cost: 6, DurationMs: 15000, Category: CategoryDefensive, Targeting: TargetSelf},
	{ID: Clone, Cost: 5, DurationMs: 0, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: Purge, Cost: 3, DurationMs: 0, Category: CategoryBuff, Targeting: TargetSelf},
	{ID: Earthquake, Cost: 6, DurationMs: 0, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: DebrisRain, Cost: 5, DurationMs: 0, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: MirrorField, Cost: 4, DurationMs: 0, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: CrossBlast, Cost: 7, DurationMs: 0, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: SpeedUp, Cost: 5, DurationMs: 10000, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: ReverseControls, Cost: 4, DurationMs: 8000, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: RotationLock, Cost: 4, DurationMs: 8000, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: Blackout, Cost: 3, DurationMs: 6000, Category: CategoryDebuff, Targeting: TargetOpponent},
	{ID: Compact, Cost: 5, DurationMs: 0, Category: CategoryBuff, Targeting: TargetSelf},
	{ID: Bargain, Cost: 2, DurationMs: 0, Category: CategoryBuff, Targeting: TargetSelf},
}
