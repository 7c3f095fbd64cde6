package battle_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/combat"
)

type step struct {
	Type    combat.EventType
	Ability string
	Amount  int
	Crit    bool
	Miss    bool
}

func steps(events []combat.Event) []step {
	out := make([]step, 0, len(events))
	for _, e := range events {
		out = append(out, step{e.Type, e.Ability, e.Amount, e.Crit, e.Miss})
	}
	return out
}

func simulate(t *testing.T, key string, archive battle.Archive) *battle.Record {
	t.Helper()
	cfg := testConfig(t)
	svc := battle.NewService(cfg, loadContent(t, cfg), archive, nil)
	rec, err := svc.Simulate(context.Background(), battle.Request{
		Roster:    defaultRoster(t),
		Enemies:   []string{"goblin", "goblin", "wolf"},
		ReplayKey: key,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func TestSimulate_RunsToAnEnd(t *testing.T) {
	archive := &memArchive{}
	rec := simulate(t, "simulate-end", archive)

	assert.Contains(t, []string{"victory", "defeat", "stalled"}, rec.Outcome)
	assert.Positive(t, rec.Rounds)
	assert.Equal(t, []string{"goblin", "goblin", "wolf"}, rec.Enemies)
	assert.Equal(t, "simulate-end", rec.ReplayKey)
	require.Len(t, archive.records, 1)

	var ended int
	for _, e := range rec.Journal {
		if e.Type == combat.EventBattleEnded {
			ended++
		}
	}
	assert.Equal(t, 1, ended)
}

func TestSimulate_SameKeySameBattle(t *testing.T) {
	a := simulate(t, "replay-me", nil)
	b := simulate(t, "replay-me", nil)
	assert.Equal(t, a.Outcome, b.Outcome)
	assert.Equal(t, a.Rounds, b.Rounds)
	assert.Equal(t, steps(a.Journal), steps(b.Journal))
}

func TestSimulate_RejectsBadRequests(t *testing.T) {
	cfg := testConfig(t)
	content := loadContent(t, cfg)
	svc := battle.NewService(cfg, content, nil, nil)
	ctx := context.Background()

	_, err := svc.Simulate(ctx, battle.Request{Enemies: []string{"goblin"}})
	assert.Error(t, err)
	_, err = svc.Simulate(ctx, battle.Request{Roster: defaultRoster(t)})
	assert.Error(t, err)
	_, err = svc.Simulate(ctx, battle.Request{Roster: defaultRoster(t), Enemies: []string{"dragon-king"}})
	assert.Error(t, err)
	assert.Empty(t, content.Enemies.Living())
}

func TestTuningFrom(t *testing.T) {
	cfg := testConfig(t)
	got := battle.TuningFrom(cfg.Combat)
	assert.Equal(t, combat.DefaultTuning(), got)
}

func TestPacerFor(t *testing.T) {
	assert.Equal(t, combat.NoDelay{}, battle.PacerFor(0))
	p, ok := battle.PacerFor(0.25).(combat.ScaledPacer)
	require.True(t, ok)
	assert.InDelta(t, 0.25, p.Factor, 1e-9)
}

func TestDefaultProfileFrom(t *testing.T) {
	p := battle.DefaultProfileFrom(config.AIConfig{Weights: config.WeightsConfig{Melee: 2, Ranged: 2, Magic: 3, Utility: 1, Default: 1}})
	require.NoError(t, p.Validate())
	assert.Equal(t, ai.DefaultProfileID, p.ID)
	assert.Equal(t, ai.DefaultWeights(), p.Weights)
	assert.Equal(t, 3, p.Weight(combat.CategoryMagic))
}

func campaign(t *testing.T, key string, archive battle.Archive) []*battle.Record {
	t.Helper()
	cfg := testConfig(t)
	svc := battle.NewService(cfg, loadContent(t, cfg), archive, nil)
	recs, err := svc.Campaign(context.Background(), battle.Request{
		Roster:    defaultRoster(t),
		Enemies:   []string{"goblin"},
		ReplayKey: key,
	}, 3)
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	return recs
}

func TestCampaign_OnePartyManyWaves(t *testing.T) {
	archive := &memArchive{}
	recs := campaign(t, "camp", archive)

	require.LessOrEqual(t, len(recs), 3)
	assert.Len(t, archive.records, len(recs))
	ids := map[string]bool{}
	for i, r := range recs {
		ids[r.ID] = true
		if i == 0 {
			assert.Equal(t, "camp", r.ReplayKey)
		} else {
			assert.Equal(t, fmt.Sprintf("camp/%d", i), r.ReplayKey)
		}
		if i < len(recs)-1 {
			assert.Equal(t, combat.ResultVictory, r.Result(), "only a victory leads to the next wave")
		}
	}
	assert.Len(t, ids, len(recs))
	if last := recs[len(recs)-1]; last.Result() == combat.ResultVictory {
		assert.Len(t, recs, 3)
	}
}

func TestCampaign_SameKeySameWaves(t *testing.T) {
	a := campaign(t, "camp-replay", nil)
	b := campaign(t, "camp-replay", nil)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Outcome, b[i].Outcome)
		assert.Equal(t, steps(a[i].Journal), steps(b[i].Journal))
	}
}

func TestCampaign_RejectsNoWaves(t *testing.T) {
	cfg := testConfig(t)
	svc := battle.NewService(cfg, loadContent(t, cfg), nil, nil)
	_, err := svc.Campaign(context.Background(), battle.Request{Roster: defaultRoster(t), Enemies: []string{"goblin"}}, 0)
	assert.Error(t, err)
	_, err = svc.Campaign(context.Background(), battle.Request{Enemies: []string{"goblin"}}, 2)
	assert.Error(t, err)
}
