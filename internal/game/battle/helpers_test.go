package battle_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/character"
)

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

func testConfig(t testing.TB) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	v.Set("content.dir", filepath.Join(repoRoot(t), "content"))
	cfg, err := config.LoadFromViper(v)
	require.NoError(t, err)
	return &cfg
}

func loadContent(t testing.TB, cfg *config.Config) *battle.Content {
	t.Helper()
	c, err := battle.LoadContent(cfg.Content)
	require.NoError(t, err)
	return c
}

func defaultRoster(t testing.TB) *character.Roster {
	t.Helper()
	r, err := character.LoadRoster(filepath.Join(repoRoot(t), "content", "party", "default.yaml"))
	require.NoError(t, err)
	return r
}

// memArchive is an in-memory Archive.
type memArchive struct {
	mu      sync.Mutex
	records []*battle.Record
}

func (m *memArchive) Save(_ context.Context, r *battle.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *memArchive) Get(_ context.Context, id string) (*battle.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, battle.ErrRecordNotFound
}

func (m *memArchive) ListRecent(_ context.Context, limit int) ([]battle.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []battle.Summary
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i].Summary())
	}
	return out, nil
}
