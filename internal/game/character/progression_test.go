package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/combat"
)

func TestProgression_LevelsUpAcrossThresholds(t *testing.T) {
	reg := fixtureRegistry(t)
	var events []combat.Event
	prog := character.NewProgression(reg, combat.SinkFunc(func(e combat.Event) { events = append(events, e) }), nil)
	ch := fighter()
	c, err := character.Build(ch, reg, fixtureCatalog(t), nil)
	require.NoError(t, err)
	prog.Track(ch, c)
	c.TakeDamage(7, false, false)

	prog.Award(c, 250)
	assert.Equal(t, 2, ch.Level)
	assert.Equal(t, 150, ch.Experience)
	assert.Equal(t, 150, c.Experience)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 90, c.MaxHealth())
	assert.Equal(t, 83, c.Health(), "missing health carries over")
	require.Len(t, events, 1)
	assert.Equal(t, combat.EventLevelUp, events[0].Type)
	assert.Equal(t, 2, events[0].Amount)

	prog.Award(c, 50)
	assert.Equal(t, 3, ch.Level)
	assert.Zero(t, ch.Experience)
	assert.Len(t, events, 2)

	prog.Award(c, 0)
	assert.Len(t, events, 2)
}

func TestProgression_UntrackedOnlyAccumulates(t *testing.T) {
	prog := character.NewProgression(fixtureRegistry(t), nil, nil)
	c := combat.NewCombatant(combat.Stats{ID: "x", Kind: combat.KindPlayer, MaxHealth: 10})
	prog.Award(c, 500)
	assert.Equal(t, 500, c.Experience)
	assert.Equal(t, 1, c.Level)
}

func TestXPToNext(t *testing.T) {
	assert.Equal(t, 100, character.XPToNext(1))
	assert.Equal(t, 300, character.XPToNext(3))
	assert.Equal(t, 100, character.XPToNext(0))
}
