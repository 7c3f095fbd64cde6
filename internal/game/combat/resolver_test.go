package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

func TestResolveAttack_HitScenario(t *testing.T) {
	// d20 11, then 2d6 of 3 and 4.
	r := rollerWith(10, 2, 3)
	caster := newPlayer("p", withStrength(16))
	a := strikeAbility("cleave")

	res := combat.ResolveAttack(r, a, caster, 14)
	assert.Equal(t, 11, res.Roll)
	assert.Equal(t, 3, res.Modifier)
	assert.Equal(t, 14, res.Total())
	assert.True(t, res.Hit)
	assert.False(t, res.Crit)
	assert.Equal(t, 12, res.Damage)
}

func TestResolveAttack_BelowAC_Misses(t *testing.T) {
	r := rollerWith(9)
	res := combat.ResolveAttack(r, strikeAbility("cleave"), newPlayer("p", withStrength(16)), 14)
	assert.False(t, res.Hit)
	assert.True(t, res.Miss)
	assert.Equal(t, 0, res.Damage)
}

func TestResolveAttack_Nat20DoublesDice(t *testing.T) {
	// d20 20, then every d6 shows 6.
	r := rollerWith(19, 5)
	res := combat.ResolveAttack(r, strikeAbility("cleave"), newPlayer("p", withStrength(16)), 99)
	assert.True(t, res.Crit)
	assert.True(t, res.Hit)
	assert.Equal(t, 2+4*6+3, res.Damage)
}

func TestResolveAttack_Nat20UtilityDealsNothing(t *testing.T) {
	a := strikeAbility("taunt")
	a.BaseDamage, a.DiceCount = 0, 0
	res := combat.ResolveAttack(rollerWith(19), a, newPlayer("p", withStrength(18)), 10)
	assert.True(t, res.Crit)
	assert.Equal(t, 0, res.Damage)
}

func TestProperty_Nat1AlwaysMisses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := strikeAbility("x")
		a.BaseDamage = rapid.IntRange(0, 50).Draw(rt, "base")
		a.DiceCount = rapid.IntRange(0, 6).Draw(rt, "count")
		caster := newPlayer("p", withStrength(rapid.IntRange(1, 30).Draw(rt, "str")))
		ac := rapid.IntRange(-10, 40).Draw(rt, "ac")

		res := combat.ResolveAttack(rollerWith(0, 3), a, caster, ac)
		if !res.Miss || res.Hit || res.Damage != 0 {
			rt.Fatalf("natural 1 produced %+v", res)
		}
	})
}

func TestProperty_DamageNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := strikeAbility("x")
		a.BaseDamage = rapid.IntRange(-20, 20).Draw(rt, "base")
		a.DiceCount = rapid.IntRange(0, 4).Draw(rt, "count")
		caster := newPlayer("p", withStrength(rapid.IntRange(1, 30).Draw(rt, "str")))
		src := dice.NewSeededSource(rapid.Uint64().Draw(rt, "s1"), rapid.Uint64().Draw(rt, "s2"))

		res := combat.ResolveAttack(dice.NewLoggedRoller(src, nil), a, caster, 10)
		if res.Damage < 0 {
			rt.Fatalf("negative damage %+v", res)
		}
	})
}

func TestHealRoll_Scenario(t *testing.T) {
	a := &combat.Ability{ID: "mend", DiceCount: 1, DiceSides: 8, DamageScaling: 1, ScalingAttribute: combat.AttrWisdom}
	caster := newPlayer("p", func(s *combat.Stats) { s.Scores.Wisdom = 14 })

	amount, roll := combat.HealRoll(rollerWith(14), a, caster)
	assert.Equal(t, 15, roll)
	assert.Equal(t, 17, amount)
}

func TestHealRoll_CritAndFumble(t *testing.T) {
	a := &combat.Ability{ID: "mend", BaseDamage: -3, DamageScaling: 0.5, ScalingAttribute: combat.AttrNone}
	caster := newPlayer("p")

	amount, _ := combat.HealRoll(rollerWith(19), a, caster)
	assert.Equal(t, 26, amount, "(3 + 20*0.5) * 2")

	amount, _ = combat.HealRoll(rollerWith(0), a, caster)
	assert.Equal(t, 2, amount, "round((3 + 0.5) * 0.5)")
}

func TestHealRoll_TiesRoundToEven(t *testing.T) {
	// A natural 1 halves (|base| + 1): 5 * 0.5 = 2.5 rounds down to 2.
	a := &combat.Ability{ID: "mend", BaseDamage: 4, DamageScaling: 1, ScalingAttribute: combat.AttrNone}
	amount, roll := combat.HealRoll(rollerWith(0), a, newPlayer("p"))
	assert.Equal(t, 1, roll)
	assert.Equal(t, 2, amount)

	// 7 * 0.5 = 3.5 rounds up to 4.
	a.BaseDamage = 6
	amount, _ = combat.HealRoll(rollerWith(0), a, newPlayer("p"))
	assert.Equal(t, 4, amount)
}

func TestFlatHeal_AtLeastOne(t *testing.T) {
	a := &combat.Ability{ID: "close_wounds", BaseDamage: -10, DiceCount: 1, DiceSides: 4}
	assert.Equal(t, 1, combat.FlatHeal(rollerWith(0), a, newPlayer("p")))

	a.BaseDamage = 2
	assert.Equal(t, 2+3, combat.FlatHeal(rollerWith(2), a, newPlayer("p")))
}
