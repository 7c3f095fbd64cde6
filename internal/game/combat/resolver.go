package combat

import (
	"math"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// AttackResult holds one attack roll and its damage.
type AttackResult struct {
	// Roll is the natural d20.
	Roll int
	// Modifier is the caster's scaling-attribute modifier.
	Modifier int
	Hit      bool
	Crit     bool
	Miss     bool
	Damage   int
}

// Total returns Roll + Modifier.
func (r AttackResult) Total() int { return r.Roll + r.Modifier }

// ResolveAttack rolls ability a from caster against targetAC.
//
// A natural 1 misses with zero damage. A natural 20 crits: a pure utility
// ability (base 0, no dice) deals 0, otherwise the dice are drawn twice as
// many times. Any other roll hits when roll + modifier >= targetAC.
//
// Precondition: r, a and caster are non-nil.
// Postcondition: Damage >= 0; Miss implies Damage == 0.
func ResolveAttack(r *dice.Roller, a *Ability, caster *Combatant, targetAC int) AttackResult {
	res := AttackResult{Roll: r.D20(), Modifier: caster.Modifier(a.ScalingAttribute)}
	switch {
	case res.Roll == 1:
		res.Miss = true
	case res.Roll == 20:
		res.Hit, res.Crit = true, true
		if a.BaseDamage != 0 || a.DiceCount != 0 {
			res.Damage = max(0, a.BaseDamage+r.Dice(2*a.DiceCount, a.DiceSides)+res.Modifier)
		}
	case res.Total() >= targetAC:
		res.Hit = true
		if a.BaseDamage != 0 || a.DiceCount != 0 {
			res.Damage = max(0, a.BaseDamage+r.Dice(a.DiceCount, a.DiceSides)+res.Modifier)
		}
	default:
		res.Miss = true
	}
	return res
}

// HealRoll computes a self-heal: |base| + (d20 + modifier) * DamageScaling,
// doubled on a natural 20 and halved on a natural 1, rounded.
//
// Postcondition: Returns the rounded amount and the natural roll.
func HealRoll(r *dice.Roller, a *Ability, caster *Combatant) (int, int) {
	roll := r.D20()
	raw := math.Abs(float64(a.BaseDamage)) + float64(roll+caster.Modifier(a.ScalingAttribute))*a.DamageScaling
	switch roll {
	case 20:
		raw *= 2
	case 1:
		raw *= 0.5
	}
	return max(0, int(math.RoundToEven(raw))), roll
}

// FlatHeal computes an ally heal: max(1, base + dice + modifier).
func FlatHeal(r *dice.Roller, a *Ability, caster *Combatant) int {
	return max(1, a.BaseDamage+r.Dice(a.DiceCount, a.DiceSides)+caster.Modifier(a.ScalingAttribute))
}
