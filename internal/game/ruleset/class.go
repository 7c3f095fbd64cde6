package ruleset

import (
	"errors"
	"fmt"
)

// Constitution-to-AC scaling modes.
const (
	ConToACNone = ""
	ConToACFull = "full"
	ConToACHalf = "half"
)

// ClassFeature describes a single class feature gained at a specific level.
type ClassFeature struct {
	Name        string `yaml:"name"`
	Level       int    `yaml:"level"`
	Description string `yaml:"description"`
}

// SlotBand gives the spell-slot maxima for levels up to MaxLevel.
type SlotBand struct {
	MaxLevel int `yaml:"max_level"`
	Level1   int `yaml:"level1"`
	Level2   int `yaml:"level2"`
}

// Class defines a playable character class.
//
// Precondition: ID, Name, and KeyAbility must be non-empty after loading.
type Class struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Description       string         `yaml:"description"`
	KeyAbility        string         `yaml:"key_ability"`
	BaseHP            int            `yaml:"base_hp"`
	HitPointsPerLevel int            `yaml:"hit_points_per_level"`
	BaseAC            int            `yaml:"base_ac"`
	ConToAC           string         `yaml:"con_to_ac"`
	MovementBonus     float64        `yaml:"movement_bonus"`
	Slots             []SlotBand     `yaml:"slots"`
	Abilities         []string       `yaml:"abilities"`
	Features          []ClassFeature `yaml:"features"`
}

// SlotsAt returns the level-1 and level-2 slot maxima at level. Bands are
// searched in order; levels beyond the last band use it.
//
// Postcondition: both entries are >= 0.
func (c *Class) SlotsAt(level int) [2]int {
	if len(c.Slots) == 0 {
		return [2]int{}
	}
	for _, b := range c.Slots {
		if level <= b.MaxLevel {
			return [2]int{max(0, b.Level1), max(0, b.Level2)}
		}
	}
	last := c.Slots[len(c.Slots)-1]
	return [2]int{max(0, last.Level1), max(0, last.Level2)}
}

// FeaturesAt returns the features gained at or below level.
func (c *Class) FeaturesAt(level int) []ClassFeature {
	var out []ClassFeature
	for _, f := range c.Features {
		if f.Level <= level {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the class.
func (c *Class) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("class id must not be empty"))
	}
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("class %q: name must not be empty", c.ID))
	}
	if !scoreKeys[c.KeyAbility] {
		errs = append(errs, fmt.Errorf("class %q: key_ability %q is not an ability score", c.ID, c.KeyAbility))
	}
	if c.BaseHP < 1 {
		errs = append(errs, fmt.Errorf("class %q: base_hp must be >= 1", c.ID))
	}
	if c.HitPointsPerLevel < 0 {
		errs = append(errs, fmt.Errorf("class %q: hit_points_per_level must be >= 0", c.ID))
	}
	switch c.ConToAC {
	case ConToACNone, ConToACFull, ConToACHalf:
	default:
		errs = append(errs, fmt.Errorf("class %q: con_to_ac must be full, half or empty", c.ID))
	}
	prev := 0
	for i, b := range c.Slots {
		if b.MaxLevel <= prev {
			errs = append(errs, fmt.Errorf("class %q: slot band %d max_level must increase", c.ID, i))
		}
		if b.Level1 < 0 || b.Level2 < 0 {
			errs = append(errs, fmt.Errorf("class %q: slot band %d counts must be >= 0", c.ID, i))
		}
		prev = b.MaxLevel
	}
	return errors.Join(errs...)
}

// LoadClasses reads all .yaml files in dir and parses each as a Class.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed classes (may be empty slice) or a non-nil error.
func LoadClasses(dir string) ([]*Class, error) {
	return loadDir[Class](dir, "class")
}
