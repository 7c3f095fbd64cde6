// Package character builds party members from the ruleset tables and tracks
// their experience between battles.
package character

import "github.com/cory-johannsen/tactics/internal/game/combat"

// Character is a party member's persistent definition.
//
// Scores are the rolled or assigned base scores before race bonuses; a zero
// score is read as 10.
type Character struct {
	ID         string               `yaml:"id"`
	Name       string               `yaml:"name"`
	Race       string               `yaml:"race"`
	Class      string               `yaml:"class"`
	Background string               `yaml:"background"`
	Level      int                  `yaml:"level"`
	Experience int                  `yaml:"experience"`
	Scores     combat.AbilityScores `yaml:"scores"`
	// Abilities are granted on top of the class list.
	Abilities []string `yaml:"abilities"`
	// AIProfile drives the member in auto mode.
	AIProfile string `yaml:"ai_profile"`
}

// Sheet holds the stats derived from a Character and its tables.
type Sheet struct {
	Scores      combat.AbilityScores
	MaxHealth   int
	AC          int
	Movement    float64
	Initiative  int
	Proficiency int
	SlotMax     [2]int
}

// XPToNext returns the experience needed to leave level.
func XPToNext(level int) int {
	return max(1, level) * XPPerLevel
}
