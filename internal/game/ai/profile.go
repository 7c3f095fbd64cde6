// Package ai chooses abilities and movement for combatants the scheduler
// drives: every enemy, and party members in auto mode.
//
// A Profile (YAML) tunes category weights and names an optional Lua gate
// hook. A Policy applies one profile; a Controller plays whole turns.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// DefaultProfileID names the profile used when none is assigned.
const DefaultProfileID = "default"

// Profile tunes a Policy.
//
// Precondition: ID must be non-empty.
type Profile struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	// Weights maps category names (melee, ranged, magic, support, utility,
	// passive) or "default" to selection weights.
	Weights map[string]int `yaml:"weights"`
	// GateHook is a Lua function name consulted per candidate; empty disables
	// gating.
	GateHook string `yaml:"gate_hook"`
	// ChaseMaxDistance overrides the controller's chase give-up distance when
	// positive.
	ChaseMaxDistance float64 `yaml:"chase_max_distance"`
}

// DefaultWeights returns the stock category weights.
func DefaultWeights() map[string]int {
	return map[string]int{
		combat.CategoryMelee.String():   2,
		combat.CategoryRanged.String():  2,
		combat.CategoryMagic.String():   3,
		combat.CategoryUtility.String(): 1,
		"default":                       1,
	}
}

// DefaultProfile returns the profile with stock weights and no gate.
func DefaultProfile() *Profile {
	return &Profile{ID: DefaultProfileID, Weights: DefaultWeights()}
}

// Weight returns the weight for cat, falling back to the profile's
// "default" entry and then to the stock weights.
func (p *Profile) Weight(cat combat.Category) int {
	if w, ok := p.Weights[cat.String()]; ok {
		return w
	}
	if w, ok := p.Weights["default"]; ok {
		return w
	}
	stock := DefaultWeights()
	if w, ok := stock[cat.String()]; ok {
		return w
	}
	return stock["default"]
}

var knownWeightKeys = map[string]bool{
	"melee": true, "ranged": true, "magic": true, "support": true,
	"utility": true, "passive": true, "default": true,
}

// Validate checks the profile.
//
// Postcondition: nil return guarantees a non-empty ID, known weight keys,
// non-negative weights and a non-negative chase distance.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("ai.Profile: ID must not be empty")
	}
	keys := make([]string, 0, len(p.Weights))
	for k := range p.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !knownWeightKeys[k] {
			return fmt.Errorf("ai.Profile %q: unknown weight key %q", p.ID, k)
		}
		if p.Weights[k] < 0 {
			return fmt.Errorf("ai.Profile %q: weight %q must be >= 0", p.ID, k)
		}
	}
	if p.ChaseMaxDistance < 0 {
		return fmt.Errorf("ai.Profile %q: chase_max_distance must be >= 0", p.ID)
	}
	return nil
}

// yamlProfileFile wraps the YAML top-level key.
type yamlProfileFile struct {
	Profile *Profile `yaml:"profile"`
}

// LoadProfiles reads all *.yaml files from dir and returns parsed Profiles.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any YAML file fails to parse or validate.
func LoadProfiles(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadProfiles: reading %q: %w", dir, err)
	}
	var profiles []*Profile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadProfiles: reading %s: %w", e.Name(), err)
		}
		var f yamlProfileFile
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("ai.LoadProfiles: parsing %s: %w", e.Name(), err)
		}
		if f.Profile == nil {
			return nil, fmt.Errorf("ai.LoadProfiles: %s missing top-level 'profile' key", e.Name())
		}
		if err := f.Profile.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, f.Profile)
	}
	return profiles, nil
}
