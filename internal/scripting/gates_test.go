package scripting_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/scripting"
)

// repoRoot walks up from the test's working directory to find the module root.
func repoRoot(t testing.TB) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	root := wd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root
		}
		parent := filepath.Dir(root)
		if parent == root {
			t.Fatalf("could not find repo root from %s", wd)
		}
		root = parent
	}
}

func loadContentScripts(t testing.TB, mgr *scripting.Manager) {
	t.Helper()
	require.NoError(t, mgr.LoadGlobal(filepath.Join(repoRoot(t), "content", "scripts"), 0))
}

func gate(t *testing.T, mgr *scripting.Manager, hook, self, ability string, dist float64) lua.LValue {
	t.Helper()
	ret, err := mgr.CallHook(scripting.GlobalScope, hook, lua.LString(self), lua.LString(ability), lua.LNumber(dist))
	require.NoError(t, err)
	return ret
}

func TestGateSupport_HealsOnlyWhenAllyHurt(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentScripts(t, mgr)
	roster := []scripting.CombatantInfo{
		{ID: "shaman", Kind: "enemy", HP: 20, MaxHP: 20},
		{ID: "orc", Kind: "enemy", HP: 30, MaxHP: 30},
		{ID: "hero", Kind: "player", HP: 1, MaxHP: 50},
	}
	wireRoster(mgr, roster)

	assert.Equal(t, lua.LFalse, gate(t, mgr, "gate_support", "shaman", "healing_spirit", 3))
	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_support", "shaman", "fire_bolt", 3))

	roster[1].HP = 10
	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_support", "shaman", "healing_spirit", 3))

	// A dead ally does not count.
	roster[1].Dead = true
	assert.Equal(t, lua.LFalse, gate(t, mgr, "gate_support", "shaman", "close_wounds", 3))
}

func TestGateBerserker_NoDefenceWhenBloodied(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentScripts(t, mgr)
	roster := []scripting.CombatantInfo{{ID: "brute", Kind: "enemy", HP: 30, MaxHP: 30}}
	wireRoster(mgr, roster)

	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_berserker", "brute", "barrier", 1))
	roster[0].HP = 5
	assert.Equal(t, lua.LFalse, gate(t, mgr, "gate_berserker", "brute", "barrier", 1))
	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_berserker", "brute", "cleave", 1))
}

func TestGateSkirmisher_KeepsDistance(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentScripts(t, mgr)
	wireRoster(mgr, []scripting.CombatantInfo{{ID: "archer", Kind: "enemy", HP: 10, MaxHP: 10}})

	assert.Equal(t, lua.LFalse, gate(t, mgr, "gate_skirmisher", "archer", "dash_attack", 8))
	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_skirmisher", "archer", "dash_attack", 2))
	assert.Equal(t, lua.LTrue, gate(t, mgr, "gate_skirmisher", "archer", "shortbow", 8))
}

func TestGates_UnknownSelfAllows(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentScripts(t, mgr)
	wireRoster(mgr, nil)
	rapid.Check(t, func(rt *rapid.T) {
		hook := rapid.SampledFrom([]string{"gate_support", "gate_berserker", "gate_skirmisher"}).Draw(rt, "hook")
		ability := rapid.SampledFrom([]string{"healing_spirit", "barrier", "claw", "dash_attack"}).Draw(rt, "ability")
		ret, err := mgr.CallHook(scripting.GlobalScope, hook, lua.LString("ghost"), lua.LString(ability), lua.LNumber(1))
		if err != nil || ret != lua.LTrue {
			rt.Fatalf("%s(%s) = %v, %v", hook, ability, ret, err)
		}
	})
}

func TestOnAbilityResolved_Defined(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadContentScripts(t, mgr)
	assert.True(t, mgr.HasHook("anything", "on_ability_resolved"))
}
