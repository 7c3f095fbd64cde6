package ruleset

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultBaseSpeed is a race's walking speed in feet when unset.
const DefaultBaseSpeed = 30

// Race defines a playable race.
//
// Precondition: ID and Name must be non-empty after loading.
type Race struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Article     string `yaml:"article"`
	Description string `yaml:"description"`
	// ScoreBonuses adds to the named ability scores.
	ScoreBonuses map[string]int `yaml:"score_bonuses"`
	HPBonus      int            `yaml:"hp_bonus"`
	// BaseSpeed is in feet; movement converts it at five feet per unit.
	BaseSpeed int `yaml:"base_speed"`
}

// DisplayName returns the human-readable race name with its grammatical article.
// If Article is empty, returns Name alone.
//
// Precondition: Name must be non-empty.
// Postcondition: Returns a non-empty string.
func (r *Race) DisplayName() string {
	if r.Article == "" {
		return r.Name
	}
	return r.Article + " " + r.Name
}

// Speed returns BaseSpeed, or DefaultBaseSpeed when unset.
func (r *Race) Speed() int {
	if r.BaseSpeed <= 0 {
		return DefaultBaseSpeed
	}
	return r.BaseSpeed
}

// Validate checks the race.
func (r *Race) Validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("race id must not be empty"))
	}
	if r.Name == "" {
		errs = append(errs, fmt.Errorf("race %q: name must not be empty", r.ID))
	}
	if r.BaseSpeed < 0 {
		errs = append(errs, fmt.Errorf("race %q: base_speed must be >= 0", r.ID))
	}
	keys := make([]string, 0, len(r.ScoreBonuses))
	for k := range r.ScoreBonuses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !scoreKeys[k] {
			errs = append(errs, fmt.Errorf("race %q: unknown ability score %q", r.ID, k))
		}
	}
	return errors.Join(errs...)
}

// LoadRaces reads all .yaml files in dir and parses each as a Race.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed races (may be empty slice) or a non-nil error.
func LoadRaces(dir string) ([]*Race, error) {
	return loadDir[Race](dir, "race")
}
