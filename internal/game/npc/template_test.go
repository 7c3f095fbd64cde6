package npc_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/npc"
)

const goblinYAML = `
id: goblin
name: Goblin
type: humanoid
level: 2
scores: {strength: 8, dexterity: 14, constitution: 12}
base_health: 10
abilities: [scratch]
ai_profile: skirmisher
xp_reward: 40
`

func TestLoadTemplateFromBytes_Goblin(t *testing.T) {
	tmpl, err := npc.LoadTemplateFromBytes([]byte(goblinYAML))
	require.NoError(t, err)
	assert.Equal(t, "goblin", tmpl.ID)
	assert.Equal(t, npc.CreatureType("humanoid"), tmpl.Type)
	assert.Equal(t, "skirmisher", tmpl.AIProfile)

	// 10 base + 6 humanoid + 1*3 + 2*(4+1)
	assert.Equal(t, 29, tmpl.MaxHealth())
	// 10 + floor(2*0.5)
	assert.Equal(t, 11, tmpl.AC())
	// round(30/5 + 2*0.2 + 8/20) = round(6.8)
	assert.Equal(t, 7.0, tmpl.Movement())
	assert.Equal(t, 2, tmpl.Initiative())
	assert.Equal(t, 40, tmpl.Reward())
}

func TestTemplate_Defaults(t *testing.T) {
	tmpl := &npc.Template{ID: "blob", Name: "Blob", Level: 1, Abilities: []string{"x"}}
	require.NoError(t, tmpl.Validate())
	// 10 + 5 + 0 + 1*4
	assert.Equal(t, 19, tmpl.MaxHealth())
	assert.Equal(t, 10, tmpl.AC())
	assert.Equal(t, npc.DefaultXPReward, tmpl.Reward())
}

func TestTemplate_ValidateJoinsViolations(t *testing.T) {
	tmpl := &npc.Template{Type: "kraken", Level: 0, Scores: combat.AbilityScores{Strength: 40}, XPReward: -1}
	err := tmpl.Validate()
	require.Error(t, err)
	for _, want := range []string{"id", "level", "kraken", "1..30", "xp_reward", "ability is required"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadTemplateFromBytes_RejectsUnknownFields(t *testing.T) {
	_, err := npc.LoadTemplateFromBytes([]byte("id: x\nname: X\nlevel: 1\nabilities: [a]\nloot: {}\n"))
	assert.Error(t, err)
}

func TestLoadTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "goblin.yaml"), []byte(goblinYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	tmpls, err := npc.LoadTemplates(dir)
	require.NoError(t, err)
	assert.Len(t, tmpls, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "goblin2.yaml"), []byte(goblinYAML), 0o644))
	_, err = npc.LoadTemplates(dir)
	assert.ErrorContains(t, err, "duplicate")

	_, err = npc.LoadTemplates(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestTemplate_DerivedFloors(t *testing.T) {
	types := npc.CreatureTypes()
	rapid.Check(t, func(rt *rapid.T) {
		score := rapid.IntRange(1, 30)
		tmpl := &npc.Template{
			ID: "x", Name: "X", Abilities: []string{"a"},
			Type:  rapid.SampledFrom(types).Draw(rt, "type"),
			Level: rapid.IntRange(1, 20).Draw(rt, "level"),
			Scores: combat.AbilityScores{
				Strength: score.Draw(rt, "str"), Dexterity: score.Draw(rt, "dex"), Constitution: score.Draw(rt, "con"),
			},
		}
		if err := tmpl.Validate(); err != nil {
			rt.Fatal(err)
		}
		if tmpl.MaxHealth() < 1 || tmpl.Movement() < 1 {
			rt.Fatalf("floors violated: hp=%d move=%v", tmpl.MaxHealth(), tmpl.Movement())
		}
	})
}
