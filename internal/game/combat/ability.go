package combat

import (
	"fmt"
	"strings"
)

// Category groups abilities for AI weighting.
type Category int

const (
	CategoryMelee Category = iota
	CategoryRanged
	CategoryMagic
	CategorySupport
	CategoryUtility
	CategoryPassive
)

var categoryNames = map[Category]string{
	CategoryMelee:   "melee",
	CategoryRanged:  "ranged",
	CategoryMagic:   "magic",
	CategorySupport: "support",
	CategoryUtility: "utility",
	CategoryPassive: "passive",
}

func (c Category) String() string { return enumName(categoryNames, c) }

// ActionType is the action-economy cost of an ability.
type ActionType int

const (
	ActionStandard ActionType = iota
	ActionBonus
	ActionFree
)

var actionTypeNames = map[ActionType]string{
	ActionStandard: "action",
	ActionBonus:    "bonus_action",
	ActionFree:     "free_action",
}

func (a ActionType) String() string { return enumName(actionTypeNames, a) }

// Delivery describes how an ability reaches its targets.
type Delivery int

const (
	DeliveryInstant Delivery = iota
	DeliveryMelee
	DeliveryProjectile
	DeliveryRay
	DeliveryArea
	DeliveryChain
)

var deliveryNames = map[Delivery]string{
	DeliveryInstant:    "instant",
	DeliveryMelee:      "melee",
	DeliveryProjectile: "projectile",
	DeliveryRay:        "ray",
	DeliveryArea:       "area",
	DeliveryChain:      "chain",
}

func (d Delivery) String() string { return enumName(deliveryNames, d) }

// TargetType is who an ability affects.
type TargetType int

const (
	TargetSelf TargetType = iota
	TargetEnemy
	TargetAlly
	TargetArea
)

var targetTypeNames = map[TargetType]string{
	TargetSelf:  "self",
	TargetEnemy: "enemy",
	TargetAlly:  "ally",
	TargetArea:  "area",
}

func (t TargetType) String() string { return enumName(targetTypeNames, t) }

// Effect is the visual special-effect tag. Only Knockback changes rules
// state; the rest are forwarded to presentation as cues.
type Effect int

const (
	EffectNone Effect = iota
	EffectBurn
	EffectFreeze
	EffectStun
	EffectPoisoned
	EffectKnockback
	EffectHealOverTime
)

var effectNames = map[Effect]string{
	EffectNone:         "none",
	EffectBurn:         "burn",
	EffectFreeze:       "freeze",
	EffectStun:         "stun",
	EffectPoisoned:     "poisoned",
	EffectKnockback:    "knockback",
	EffectHealOverTime: "heal_over_time",
}

func (e Effect) String() string { return enumName(effectNames, e) }

// DamageType is informational and travels with damage cues.
type DamageType int

const (
	DamagePhysical DamageType = iota
	DamageFire
	DamageCold
	DamageLightning
	DamagePoison
	DamageHoly
	DamageShadow
)

var damageTypeNames = map[DamageType]string{
	DamagePhysical:  "physical",
	DamageFire:      "fire",
	DamageCold:      "cold",
	DamageLightning: "lightning",
	DamagePoison:    "poison",
	DamageHoly:      "holy",
	DamageShadow:    "shadow",
}

func (d DamageType) String() string { return enumName(damageTypeNames, d) }

// Special tags select named resolution branches.
const (
	SpecialSneak         = "sneak"
	SpecialSneakAttack   = "sneak_attack"
	SpecialFancyFootwork = "fancy_footwork"
	SpecialRestoreSlots  = "restore_slots"
	SpecialBarrier       = "barrier"
	SpecialDashAttack    = "dash_attack"
	SpecialWideSlash     = "wide_slash"
	SpecialBless         = "bless"
	SpecialCloseWounds   = "close_wounds"
	SpecialHealingSpirit = "healing_spirit"
	SpecialShadowStep    = "shadow_step"
	SpecialLifeDrain     = "life_drain"
)

var knownSpecials = map[string]bool{
	"":                   true,
	SpecialSneak:         true,
	SpecialSneakAttack:   true,
	SpecialFancyFootwork: true,
	SpecialRestoreSlots:  true,
	SpecialBarrier:       true,
	SpecialDashAttack:    true,
	SpecialWideSlash:     true,
	SpecialBless:         true,
	SpecialCloseWounds:   true,
	SpecialHealingSpirit: true,
	SpecialShadowStep:    true,
	SpecialLifeDrain:     true,
}

// Ability is an ability definition. Everything except the two use counters
// is immutable after loading.
//
// UsesThisBattle and LifetimeUses belong to the definition instance and are
// shared by every combatant holding the same *Ability.
type Ability struct {
	ID          string
	Name        string
	Description string
	Unlocked    bool
	Category    Category

	BaseDamage       int
	DiceCount        int
	DiceSides        int
	DamageScaling    float64
	ScalingAttribute Attribute
	DamageType       DamageType

	UsesSpellSlot bool
	SpellLevel    int
	SlotCost      int

	Action     ActionType
	Target     TargetType
	Delivery   Delivery
	Range      float64
	AreaRadius float64
	Strikes    int

	Special          string
	Effect           Effect
	StatusEffect     string
	StatusDuration   int
	BarrierReduction float64

	MaxUsesPerBattle int
	MaxLifetimeUses  int

	UsesThisBattle int
	LifetimeUses   int
}

// IsCantrip reports whether the ability is a free level-0 cast.
func (a *Ability) IsCantrip() bool {
	return !a.UsesSpellSlot && a.SpellLevel == 0
}

// Reaches reports whether a target at distance is within the ability's range.
func (a *Ability) Reaches(distance float64) bool {
	return distance <= a.Range+rangeEpsilon
}

// BattleExhausted reports whether the per-battle cap is reached.
func (a *Ability) BattleExhausted() bool {
	return a.MaxUsesPerBattle > 0 && a.UsesThisBattle >= a.MaxUsesPerBattle
}

// LifetimeExhausted reports whether the lifetime cap is reached.
func (a *Ability) LifetimeExhausted() bool {
	return a.MaxLifetimeUses > 0 && a.LifetimeUses >= a.MaxLifetimeUses
}

// ResetBattleUses zeroes the per-battle counter.
func (a *Ability) ResetBattleUses() {
	a.UsesThisBattle = 0
}

func (a *Ability) recordUse() {
	a.UsesThisBattle++
	if a.MaxLifetimeUses > 0 || a.Special == SpecialRestoreSlots {
		a.LifetimeUses++
	}
}

// affordable reports whether c could pay the slot cost right now.
func (a *Ability) affordable(c *Combatant) bool {
	return !a.UsesSpellSlot || c.HasSpellSlots(a.SpellLevel, a.SlotCost)
}

// Usable reports whether c may pick the ability at all: unlocked, slot-free
// or affordable, and not exhausted. The AI filters candidates with it.
func (a *Ability) Usable(c *Combatant) bool {
	return a.Unlocked && a.affordable(c) && !a.BattleExhausted() && !a.LifetimeExhausted()
}

func enumName[T comparable](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return "unknown"
}

func parseEnum[T comparable](kind string, names map[T]string, s string, def T) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	s = strings.ReplaceAll(s, "-", "_")
	for v, n := range names {
		if n == s || strings.ReplaceAll(n, "_", "") == s {
			return v, nil
		}
	}
	return def, fmt.Errorf("unknown %s %q", kind, s)
}
