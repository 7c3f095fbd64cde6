package ruleset

import (
	"errors"
	"fmt"
)

// Background defines a character's upbringing.
type Background struct {
	ID            string  `yaml:"id"`
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description"`
	HPBonus       int     `yaml:"hp_bonus"`
	MovementBonus float64 `yaml:"movement_bonus"`
}

// Validate checks the background.
func (b *Background) Validate() error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("background id must not be empty"))
	}
	if b.Name == "" {
		errs = append(errs, fmt.Errorf("background %q: name must not be empty", b.ID))
	}
	if b.MovementBonus < 0 {
		errs = append(errs, fmt.Errorf("background %q: movement_bonus must be >= 0", b.ID))
	}
	return errors.Join(errs...)
}

// LoadBackgrounds reads all .yaml files in dir and parses each as a Background.
func LoadBackgrounds(dir string) ([]*Background, error) {
	return loadDir[Background](dir, "background")
}
