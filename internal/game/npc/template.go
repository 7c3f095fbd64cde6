// Package npc provides enemy template definitions and spawns enemy
// combatants from them.
package npc

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// Template defaults.
const (
	DefaultBaseHealth = 10
	DefaultXPReward   = 50
)

// Slots holds an enemy's spell-slot maxima.
type Slots struct {
	Level1 int `yaml:"level1"`
	Level2 int `yaml:"level2"`
}

// Template defines a reusable enemy archetype loaded from YAML.
//
// A zero score is read as 10.
type Template struct {
	ID          string               `yaml:"id"`
	Name        string               `yaml:"name"`
	Description string               `yaml:"description"`
	Type        CreatureType         `yaml:"type"`
	Level       int                  `yaml:"level"`
	Scores      combat.AbilityScores `yaml:"scores"`
	BaseHealth  int                  `yaml:"base_health"`
	Slots       Slots                `yaml:"slots"`
	Radius      float64              `yaml:"radius"`
	Abilities   []string             `yaml:"abilities"`
	// AIProfile names the ai profile; empty selects the default.
	AIProfile string `yaml:"ai_profile"`
	XPReward  int    `yaml:"xp_reward"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1, Type
// is known, scores are within 1..30, slot counts and XPReward are
// non-negative and at least one ability is listed; otherwise every violation
// is joined.
func (t *Template) Validate() error {
	var errs []error
	if t.ID == "" {
		errs = append(errs, errors.New("npc template: id must not be empty"))
	}
	if t.Name == "" {
		errs = append(errs, fmt.Errorf("npc template %q: name must not be empty", t.ID))
	}
	if t.Level < 1 {
		errs = append(errs, fmt.Errorf("npc template %q: level must be >= 1", t.ID))
	}
	if !t.Type.Known() {
		errs = append(errs, fmt.Errorf("npc template %q: unknown creature type %q", t.ID, t.Type))
	}
	s := t.scores()
	for _, v := range []int{s.Strength, s.Dexterity, s.Constitution, s.Intelligence, s.Wisdom, s.Charisma} {
		if v < 1 || v > 30 {
			errs = append(errs, fmt.Errorf("npc template %q: ability score %d outside 1..30", t.ID, v))
			break
		}
	}
	if t.BaseHealth < 0 {
		errs = append(errs, fmt.Errorf("npc template %q: base_health must be >= 0", t.ID))
	}
	if t.Slots.Level1 < 0 || t.Slots.Level2 < 0 {
		errs = append(errs, fmt.Errorf("npc template %q: slot counts must be >= 0", t.ID))
	}
	if t.XPReward < 0 {
		errs = append(errs, fmt.Errorf("npc template %q: xp_reward must be >= 0", t.ID))
	}
	if t.Radius < 0 {
		errs = append(errs, fmt.Errorf("npc template %q: radius must be >= 0", t.ID))
	}
	if len(t.Abilities) == 0 {
		errs = append(errs, fmt.Errorf("npc template %q: at least one ability is required", t.ID))
	}
	return errors.Join(errs...)
}

func (t *Template) scores() combat.AbilityScores {
	s := t.Scores
	for _, p := range []*int{&s.Strength, &s.Dexterity, &s.Constitution, &s.Intelligence, &s.Wisdom, &s.Charisma} {
		if *p == 0 {
			*p = 10
		}
	}
	return s
}

func (t *Template) baseHealth() int {
	if t.BaseHealth == 0 {
		return DefaultBaseHealth
	}
	return t.BaseHealth
}

// MaxHealth returns base + type HP + CON×3 + level×(4 + CON), at least 1.
func (t *Template) MaxHealth() int {
	con := t.scores().Modifier(combat.AttrConstitution)
	hp := t.baseHealth() + t.Type.row().HP + con*3 + t.Level*(4+con)
	return max(1, hp)
}

// AC returns the type base plus half the DEX modifier, rounded down.
func (t *Template) AC() int {
	dex := t.scores().Modifier(combat.AttrDexterity)
	return t.Type.row().AC + int(math.Floor(float64(dex)*0.5))
}

// Movement returns speed/5 + DEX×0.2 + STR/20, rounded, at least 1.
func (t *Template) Movement() float64 {
	s := t.scores()
	dex := s.Modifier(combat.AttrDexterity)
	m := t.Type.row().Speed/5 + float64(dex)*0.2 + float64(s.Strength)/20
	return math.Max(1, math.Round(m))
}

// Initiative returns the DEX modifier.
func (t *Template) Initiative() int {
	return t.scores().Modifier(combat.AttrDexterity)
}

// Reward returns XPReward, or DefaultXPReward when unset.
func (t *Template) Reward() int {
	if t.XPReward == 0 {
		return DefaultXPReward
	}
	return t.XPReward
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates, or an error naming every file that
// failed to parse or validate and every duplicate ID.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	var errs []error
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %q: %w", path, err))
			continue
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("loading %q: %w", path, err))
			continue
		}
		if prev, dup := seen[tmpl.ID]; dup {
			errs = append(errs, fmt.Errorf("loading %q: duplicate template id %q (first in %s)", path, tmpl.ID, prev))
			continue
		}
		seen[tmpl.ID] = entry.Name()
		templates = append(templates, tmpl)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return templates, nil
}
