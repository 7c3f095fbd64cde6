package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

func TestNewCombatant_Defaults(t *testing.T) {
	c := combat.NewCombatant(combat.Stats{Kind: combat.KindEnemy, MaxHealth: 0, SlotMax: [2]int{3, -1}})
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 1, c.MaxHealth())
	assert.Equal(t, 1, c.Health())
	assert.Equal(t, combat.DefaultRadius, c.Radius)
	assert.Equal(t, combat.SlotPool{Current: 3, Max: 3}, c.Slots(1))
	assert.Equal(t, combat.SlotPool{}, c.Slots(2))
	assert.True(t, c.HasAction())
	assert.True(t, c.HasBonusAction())
}

func TestActionEconomy(t *testing.T) {
	c := newPlayer("p")
	assert.True(t, c.CanUseActionType(combat.ActionStandard))
	c.ConsumeActionType(combat.ActionStandard)
	assert.False(t, c.CanUseActionType(combat.ActionStandard))
	assert.True(t, c.CanUseActionType(combat.ActionBonus))
	c.ConsumeActionType(combat.ActionBonus)
	assert.False(t, c.CanUseActionType(combat.ActionBonus))

	c.ConsumeActionType(combat.ActionFree)
	assert.True(t, c.CanUseActionType(combat.ActionFree))

	c.ResetTurnActions()
	assert.True(t, c.HasAction())
	assert.True(t, c.HasBonusAction())
	assert.False(t, c.SwitchedThisRound())
}

func TestHasSpellSlots_VariantRule(t *testing.T) {
	p := newPlayer("p")
	e := newEnemy("e")

	assert.True(t, p.HasSpellSlots(0, 5), "level 0 is free")
	assert.True(t, p.HasSpellSlots(1, 0), "cost 0 is free")
	assert.True(t, p.HasSpellSlots(1, 2))
	assert.False(t, p.HasSpellSlots(1, 3))
	assert.False(t, p.HasSpellSlots(3, 1), "players have no level 3 pool")
	assert.True(t, e.HasSpellSlots(3, 1), "enemies always afford unpooled levels")
}

func TestSpendSpellSlots_ClampsAndRestores(t *testing.T) {
	c := newPlayer("p")
	c.SpendSpellSlots(1, 5)
	assert.Equal(t, 0, c.Slots(1).Current)
	c.SpendSpellSlots(3, 1)
	c.SpendSpellSlots(2, -1)
	assert.Equal(t, 1, c.Slots(2).Current)

	c.RestoreAllSpellSlots()
	assert.Equal(t, combat.SlotPool{Current: 2, Max: 2}, c.Slots(1))
}

func TestTakeDamage_Order(t *testing.T) {
	t.Run("miss deals nothing", func(t *testing.T) {
		sink := &recordingSink{}
		c := newPlayer("p")
		c.SetSink(sink)
		res := c.TakeDamage(10, false, true)
		assert.True(t, res.Miss)
		assert.Equal(t, 20, c.Health())
		require.Len(t, sink.events, 1)
		assert.True(t, sink.events[0].Miss)
	})

	t.Run("barrier halves and rounds", func(t *testing.T) {
		c := newPlayer("p")
		c.Status.ApplyBarrier(3, 0.5)
		res := c.TakeDamage(5, false, false)
		assert.Equal(t, 2, res.Dealt)
		assert.Equal(t, 18, c.Health())
	})

	t.Run("barrier ties round to even", func(t *testing.T) {
		for hit, want := range map[int]int{1: 0, 3: 2, 5: 2, 7: 4, 9: 4, 6: 3} {
			c := newPlayer("p")
			c.Status.ApplyBarrier(3, 0.5)
			assert.Equal(t, want, c.TakeDamage(hit, false, false).Dealt, "hit %d", hit)
		}
	})

	t.Run("floors at zero and dies once", func(t *testing.T) {
		sink := &recordingSink{}
		c := newEnemy("e", withHealth(4))
		c.SetSink(sink)
		deaths := 0
		c.OnDeath(func(*combat.Combatant) { deaths++ })

		res := c.TakeDamage(9, true, false)
		assert.Equal(t, 4, res.Dealt)
		assert.True(t, res.Killed)
		assert.Equal(t, 0, c.Health())
		assert.True(t, c.IsDead())
		assert.False(t, c.IsTargetable())

		again := c.TakeDamage(3, false, false)
		assert.True(t, again.Ignored)
		assert.Equal(t, 1, deaths)
		assert.Len(t, sink.ofType(combat.EventCombatantDied), 1)
	})
}

func TestHeal_ClampsAndRefusesDead(t *testing.T) {
	c := newPlayer("p")
	c.TakeDamage(5, false, false)
	assert.Equal(t, 5, c.Heal(50))
	assert.Equal(t, c.MaxHealth(), c.Health())

	c.TakeDamage(100, false, false)
	assert.Equal(t, 0, c.Heal(10))
	assert.True(t, c.IsDead())
}

func TestMovement(t *testing.T) {
	c := newPlayer("p")
	assert.Equal(t, 4.0, c.SpendMovement(4))
	assert.Equal(t, 2.0, c.SpendMovement(4))
	assert.Equal(t, 0.0, c.Movement())
	c.RefillMovement()
	assert.Equal(t, 6.0, c.Movement())
	c.ZeroMovement()
	assert.Equal(t, 0.0, c.Movement())

	c.MoveToward(combat.Vec2{X: 3, Y: 4}, 2.5)
	assert.InDelta(t, 2.5, combat.Distance(combat.Vec2{}, c.Position), 1e-9)
	c.MoveToward(combat.Vec2{X: 3, Y: 4}, 100)
	assert.Equal(t, combat.Vec2{X: 3, Y: 4}, c.Position)
}

func TestProgress_KeepsMissingHealth(t *testing.T) {
	c := newPlayer("p", withHealth(20))
	c.TakeDamage(5, false, false)
	c.SpendSpellSlots(1, 2)
	c.Progress(2, combat.Stats{MaxHealth: 28, AC: 13, MaxMovement: 6, SlotMax: [2]int{3, 1}})
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 28, c.MaxHealth())
	assert.Equal(t, 23, c.Health())
	assert.Equal(t, combat.SlotPool{Current: 3, Max: 3}, c.Slots(1))
}

// TestProperty_ResourceBounds applies random damage, heals and slot spends
// and checks the health and slot invariants after every step.
func TestProperty_ResourceBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxHP := rapid.IntRange(1, 200).Draw(rt, "maxHP")
		c := combat.NewCombatant(combat.Stats{
			Kind:      combat.KindPlayer,
			MaxHealth: maxHP,
			SlotMax:   [2]int{rapid.IntRange(0, 5).Draw(rt, "s1"), rapid.IntRange(0, 5).Draw(rt, "s2")},
		})
		if rapid.Bool().Draw(rt, "barrier") {
			c.Status.ApplyBarrier(3, rapid.Float64Range(0, 1).Draw(rt, "ratio"))
		}
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, "op") {
			case 0:
				c.TakeDamage(rapid.IntRange(-5, 300).Draw(rt, "dmg"), rapid.Bool().Draw(rt, "crit"), rapid.Bool().Draw(rt, "miss"))
			case 1:
				c.Heal(rapid.IntRange(-5, 300).Draw(rt, "heal"))
			case 2:
				c.SpendSpellSlots(rapid.IntRange(-1, 4).Draw(rt, "level"), rapid.IntRange(-2, 8).Draw(rt, "cost"))
			case 3:
				c.RestoreAllSpellSlots()
			}
			if c.Health() < 0 || c.Health() > c.MaxHealth() {
				rt.Fatalf("health %d outside [0, %d]", c.Health(), c.MaxHealth())
			}
			for lvl := 1; lvl <= 2; lvl++ {
				p := c.Slots(lvl)
				if p.Current < 0 || p.Current > p.Max {
					rt.Fatalf("slot level %d = %+v out of bounds", lvl, p)
				}
			}
		}
	})
}
