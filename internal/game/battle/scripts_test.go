package battle_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

type recordedCall struct {
	scope, hook string
	args        []lua.LValue
}

type fakeCaller struct {
	calls []recordedCall
	err   error
}

func (f *fakeCaller) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	f.calls = append(f.calls, recordedCall{scope, hook, args})
	return lua.LTrue, f.err
}

func smallBattle(t *testing.T) (*combat.Battle, *combat.Combatant, *combat.Combatant, *combat.Combatant) {
	t.Helper()
	hero := combat.NewCombatant(combat.Stats{ID: "hero", Name: "Hero", Kind: combat.KindPlayer, MaxHealth: 20, AC: 12})
	g1 := combat.NewCombatant(combat.Stats{ID: "g1", Name: "Goblin", Kind: combat.KindEnemy, Tag: "goblin", MaxHealth: 5, Position: combat.Vec2{X: 3, Y: 4}})
	g2 := combat.NewCombatant(combat.Stats{ID: "g2", Name: "Goblin", Kind: combat.KindEnemy, Tag: "goblin", MaxHealth: 5})
	party, err := combat.NewParty([]*combat.Combatant{hero})
	require.NoError(t, err)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1, 2), nil)
	b := combat.NewBattle(combat.BattleConfig{Engine: combat.EngineConfig{Roller: roller}}, party, []*combat.Combatant{g1, g2})
	return b, hero, g1, g2
}

func TestScriptHook_ForwardsOutcome(t *testing.T) {
	b, hero, g1, _ := smallBattle(t)
	g1.TakeDamage(5, false, false)
	require.True(t, g1.IsDead())

	caller := &fakeCaller{}
	hook := battle.NewScriptHook(caller, scripting.GlobalScope, b, nil)
	out := combat.Outcome{
		Hits: []combat.Hit{
			{TargetID: "g1", Dealt: 3},
			{TargetID: "g1", Dealt: 2},
			{TargetID: "g2", Dealt: 1},
		},
		Heals: []combat.Heal{{TargetID: "hero", Amount: 4}},
	}
	hook.AfterAbility(context.Background(), hero, &combat.Ability{ID: "wide_slash"}, out)

	require.Len(t, caller.calls, 1)
	call := caller.calls[0]
	assert.Equal(t, scripting.GlobalScope, call.scope)
	assert.Equal(t, battle.HookAbilityResolved, call.hook)
	require.Len(t, call.args, 5)
	assert.Equal(t, lua.LString("hero"), call.args[0])
	assert.Equal(t, lua.LString("wide_slash"), call.args[1])
	assert.Equal(t, lua.LNumber(6), call.args[2])
	assert.Equal(t, lua.LNumber(4), call.args[3])
	assert.Equal(t, lua.LNumber(1), call.args[4], "g1 counted once")
}

func TestScriptHook_LogsCallerError(t *testing.T) {
	b, hero, _, _ := smallBattle(t)
	core, logs := observer.New(zap.WarnLevel)
	hook := battle.NewScriptHook(&fakeCaller{err: errors.New("boom")}, scripting.GlobalScope, b, zap.New(core))
	hook.AfterAbility(context.Background(), hero, &combat.Ability{ID: "slash"}, combat.Outcome{})
	assert.Equal(t, 1, logs.FilterMessage("ability hook failed").Len())
}

func TestBridge_ExposesBattleToLua(t *testing.T) {
	b, _, g1, _ := smallBattle(t)
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(3, 4), nil), nil)
	t.Cleanup(mgr.Close)
	battle.Bridge(mgr, b)

	info := mgr.GetCombatant("g1")
	require.NotNil(t, info)
	assert.Equal(t, "enemy", info.Kind)
	assert.Equal(t, 5, info.HP)
	assert.InDelta(t, 3.0, info.X, 1e-9)
	assert.Nil(t, mgr.GetCombatant("nobody"))

	all := mgr.ListCombatants()
	require.Len(t, all, 3)
	assert.Equal(t, "hero", all[0].ID, "party first")

	g1.TakeDamage(5, false, false)
	assert.True(t, mgr.GetCombatant("g1").Dead)
	assert.Equal(t, b.Round(), mgr.CurrentRound())
}
