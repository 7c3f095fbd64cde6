package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
	"github.com/cory-johannsen/tactics/internal/testutil"
)

func newRepo(t *testing.T) *postgres.BattleRepository {
	t.Helper()
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return postgres.NewBattleRepository(pc.RawPool)
}

func sampleRecord(id string, started time.Time) *battle.Record {
	return &battle.Record{
		ID:        id,
		ReplayKey: "key-" + id,
		Party:     "default",
		Enemies:   []string{"goblin", "goblin"},
		Outcome:   combat.ResultVictory.String(),
		Rounds:    3,
		StartedAt: started,
		EndedAt:   started.Add(90 * time.Second),
		Journal: []combat.Event{
			{Type: combat.EventTurnStarted, Round: 1, ActorID: "hero"},
			{Type: combat.EventDamageApplied, Round: 1, ActorID: "hero", TargetID: "g1", Ability: "slash", Amount: 7, Crit: true},
			{Type: combat.EventBattleEnded, Round: 3, Reason: "victory"},
		},
	}
}

func TestBattleRepository_SaveAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := sampleRecord("b-1", started)

	require.NoError(t, repo.Save(ctx, rec))
	got, err := repo.Get(ctx, "b-1")
	require.NoError(t, err)

	assert.Equal(t, rec.ReplayKey, got.ReplayKey)
	assert.Equal(t, rec.Enemies, got.Enemies)
	assert.Equal(t, rec.Outcome, got.Outcome)
	assert.Equal(t, rec.Rounds, got.Rounds)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.True(t, rec.EndedAt.Equal(got.EndedAt))
	require.Len(t, got.Journal, 3)
	assert.Equal(t, combat.EventDamageApplied, got.Journal[1].Type)
	assert.Equal(t, 7, got.Journal[1].Amount)
	assert.True(t, got.Journal[1].Crit)
	assert.Equal(t, "slash", got.Journal[1].Ability)
}

func TestBattleRepository_Duplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	rec := sampleRecord("dup", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, rec))
	assert.ErrorIs(t, repo.Save(ctx, rec), postgres.ErrBattleExists)
}

func TestBattleRepository_NotFound(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, battle.ErrRecordNotFound)
}

func TestBattleRepository_ListRecent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(ctx, sampleRecord(fmt.Sprintf("b-%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Equal(t, 3, s.Events)
		assert.Equal(t, 90*time.Second, s.Duration())
	}

	all, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBattleRepository_RejectsEmptyID(t *testing.T) {
	repo := postgres.NewBattleRepository(nil)
	assert.Error(t, repo.Save(context.Background(), &battle.Record{}))
}

func TestBattleRepository_RejectsUnfinished(t *testing.T) {
	repo := postgres.NewBattleRepository(nil)
	rec := sampleRecord("running", time.Now().UTC())
	rec.Outcome = combat.ResultNone.String()
	assert.ErrorIs(t, repo.Save(context.Background(), rec), battle.ErrUnfinished)
}
