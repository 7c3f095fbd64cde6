package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/battle"
	"github.com/cory-johannsen/tactics/internal/game/character"
	"github.com/cory-johannsen/tactics/internal/game/dice"
	"github.com/cory-johannsen/tactics/internal/scripting"
	"github.com/cory-johannsen/tactics/internal/storage/postgres"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load every content file and report all errors",
	Long: `Load abilities, conditions, the ruleset, enemy templates, AI profiles,
Lua scripts and party rosters, and report every problem found.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := provideConfig(configPath)
	if err != nil {
		return err
	}
	content, err := battle.LoadContent(cfg.Content)
	if err != nil {
		return fmt.Errorf("content invalid:\n%w", err)
	}

	scripts := scripting.NewManager(dice.NewLoggedRoller(dice.NewCryptoSource(), nil), nil)
	defer scripts.Close()
	if err := scripts.LoadGlobal(content.ScriptsDir, cfg.AI.ScriptInstructionLimit); err != nil {
		return err
	}
	profiles := map[string]bool{ai.DefaultProfileID: true}
	for _, p := range content.Profiles {
		profiles[p.ID] = true
		if p.GateHook != "" && !scripts.HasHook(scripting.GlobalScope, p.GateHook) {
			return fmt.Errorf("ai profile %q: gate hook %q is not defined", p.ID, p.GateHook)
		}
	}
	for _, id := range content.Enemies.TemplateIDs() {
		if t, _ := content.Enemies.Template(id); t.AIProfile != "" && !profiles[t.AIProfile] {
			return fmt.Errorf("enemy %q: unknown ai profile %q", id, t.AIProfile)
		}
	}

	rosters, err := filepath.Glob(filepath.Join(cfg.Content.Dir, "party", "*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range rosters {
		r, err := character.LoadRoster(path)
		if err != nil {
			return err
		}
		for _, m := range r.Members {
			if m.AIProfile != "" && !profiles[m.AIProfile] {
				return fmt.Errorf("party %s: member %q uses unknown ai profile %q", path, m.ID, m.AIProfile)
			}
		}
		if _, err := character.BuildParty(r, content.Ruleset, content.Abilities, content.Conditions, nil); err != nil {
			return fmt.Errorf("party %s: %w", path, err)
		}
	}

	if cfg.Archive.Enabled {
		if err := checkArchive(cmd.Context(), cfg.Database); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok: archive reachable and migrated")
	}

	races, classes, backgrounds := content.Ruleset.Counts()
	fmt.Fprintf(cmd.OutOrStdout(),
		"ok: %d abilities, %d enemies, %d ai profiles, %d races, %d classes, %d backgrounds, %d parties\n",
		len(content.Abilities.All()), len(content.Enemies.TemplateIDs()), len(content.Profiles),
		races, classes, backgrounds, len(rosters))
	return nil
}

// archiveTimeout bounds the archive health check.
const archiveTimeout = 5 * time.Second

func checkArchive(ctx context.Context, cfg config.DatabaseConfig) error {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer pool.Close()
	if err := pool.Health(ctx, archiveTimeout); err != nil {
		return err
	}
	return pool.CheckSchema(ctx)
}
