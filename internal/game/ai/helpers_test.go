package ai_test

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// seqSource replays Intn results in order and then repeats the last one.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v % n
}

func rollerWith(vals ...int) *dice.Roller {
	return dice.NewLoggedRoller(&seqSource{vals: vals}, nil)
}

// mockScriptCaller answers every hook with a fixed value, or vetoes the
// abilities listed in deny.
type mockScriptCaller struct {
	returnVal lua.LValue
	err       error
	deny      map[string]bool
	calls     int
}

func (m *mockScriptCaller) CallHook(_, _ string, args ...lua.LValue) (lua.LValue, error) {
	m.calls++
	if m.err != nil {
		return lua.LNil, m.err
	}
	if m.deny != nil && len(args) > 1 && m.deny[args[1].String()] {
		return lua.LFalse, nil
	}
	if m.returnVal == nil {
		return lua.LNil, nil
	}
	return m.returnVal, nil
}

func ability(id string, cat combat.Category, rng float64) *combat.Ability {
	return &combat.Ability{
		ID:               id,
		Name:             id,
		Unlocked:         true,
		Category:         cat,
		BaseDamage:       2,
		DiceCount:        1,
		DiceSides:        4,
		DamageScaling:    1,
		ScalingAttribute: combat.AttrStrength,
		Action:           combat.ActionStandard,
		Target:           combat.TargetEnemy,
		Delivery:         combat.DeliveryMelee,
		Range:            rng,
		Strikes:          1,
	}
}

func newCombatant(id string, kind combat.Kind, pos combat.Vec2, abs ...*combat.Ability) *combat.Combatant {
	return combat.NewCombatant(combat.Stats{
		ID:          id,
		Name:        id,
		Kind:        kind,
		Scores:      combat.AbilityScores{Strength: 10, Dexterity: 10, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10},
		MaxHealth:   30,
		AC:          12,
		MaxMovement: 6,
		SlotMax:     [2]int{1, 0},
		Abilities:   abs,
		Position:    pos,
	})
}

// fakeArena records requests instead of resolving them.
type fakeArena struct {
	current  *combat.Combatant
	players  []*combat.Combatant
	enemies  []*combat.Combatant
	focus    *combat.Combatant
	check    combat.Failure
	requests []combat.Request
}

func (a *fakeArena) Current() *combat.Combatant { return a.current }

func (a *fakeArena) Opponents(of *combat.Combatant) []*combat.Combatant {
	if of.Kind == combat.KindEnemy {
		return living(a.players)
	}
	return living(a.enemies)
}

func (a *fakeArena) Allies(of *combat.Combatant) []*combat.Combatant {
	if of.Kind == combat.KindEnemy {
		return living(a.enemies)
	}
	return a.players
}

func (a *fakeArena) Focus(*combat.Combatant) *combat.Combatant { return a.focus }

func (a *fakeArena) Execute(_ context.Context, req combat.Request) (combat.Outcome, error) {
	a.requests = append(a.requests, req)
	return combat.Outcome{Ability: req.Ability.ID, CasterID: req.Caster.ID}, nil
}

func (a *fakeArena) Check(combat.Request) combat.Failure { return a.check }

func (a *fakeArena) Round() int { return 1 }

func living(cs []*combat.Combatant) []*combat.Combatant {
	var out []*combat.Combatant
	for _, c := range cs {
		if c.IsTargetable() {
			out = append(out, c)
		}
	}
	return out
}
