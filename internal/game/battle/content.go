package battle

import (
	"errors"
	"fmt"
	"os"

	"github.com/cory-johannsen/tactics/internal/config"
	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/npc"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

// Content is everything loaded from the content tree.
type Content struct {
	Abilities  *combat.Catalog
	Conditions *condition.Registry
	Ruleset    *ruleset.Registry
	Enemies    *npc.Manager
	Profiles   []*ai.Profile
	ScriptsDir string
}

// LoadContent loads and cross-checks the content tree under cfg.Dir.
//
// Postcondition: Returns the content, or every loading error joined.
func LoadContent(cfg config.ContentConfig) (*Content, error) {
	var errs []error
	c := &Content{ScriptsDir: cfg.ScriptsDir()}

	abilities, err := combat.LoadAbilities(cfg.AbilitiesDir())
	if err != nil {
		errs = append(errs, fmt.Errorf("abilities: %w", err))
	}
	c.Abilities = abilities

	conditions, err := condition.LoadDirectory(cfg.ConditionsDir())
	if err != nil {
		errs = append(errs, fmt.Errorf("conditions: %w", err))
	}
	c.Conditions = conditions

	if c.Ruleset, err = ruleset.Load(cfg.RulesetDir()); err != nil {
		errs = append(errs, fmt.Errorf("ruleset: %w", err))
	}
	if c.Profiles, err = ai.LoadProfiles(cfg.ProfilesDir()); err != nil {
		errs = append(errs, fmt.Errorf("ai profiles: %w", err))
	}
	if fi, err := os.Stat(c.ScriptsDir); err != nil || !fi.IsDir() {
		errs = append(errs, fmt.Errorf("scripts: %q is not a directory", c.ScriptsDir))
	}

	// Enemy templates reference abilities; skip them if the catalog failed.
	if abilities != nil && conditions != nil {
		templates, err := npc.LoadTemplates(cfg.EnemiesDir())
		if err != nil {
			errs = append(errs, fmt.Errorf("enemies: %w", err))
		}
		c.Enemies = npc.NewManager(abilities, conditions)
		for _, t := range templates {
			if err := c.Enemies.AddTemplate(t); err != nil {
				errs = append(errs, fmt.Errorf("enemy %q: %w", t.ID, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}
