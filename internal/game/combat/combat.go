// Package combat implements the turn-based combat core: the per-combatant
// resource model, ability definitions, the ability resolution engine, the
// initiative turn scheduler, and the party and battle state that tie them
// together.
//
// The package is single-threaded by contract. Exactly one combatant's turn is
// active at a time and every mutation happens from that turn's context, so no
// type here carries a mutex.
package combat

import (
	"fmt"
	"strings"
)

// Kind tags a Combatant as player-controlled or enemy.
type Kind int

const (
	KindPlayer Kind = iota
	KindEnemy
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

// Attribute names one of the six primary ability scores.
type Attribute int

const (
	AttrNone Attribute = iota
	AttrStrength
	AttrDexterity
	AttrConstitution
	AttrIntelligence
	AttrWisdom
	AttrCharisma
)

var attributeNames = map[Attribute]string{
	AttrNone:         "none",
	AttrStrength:     "strength",
	AttrDexterity:    "dexterity",
	AttrConstitution: "constitution",
	AttrIntelligence: "intelligence",
	AttrWisdom:       "wisdom",
	AttrCharisma:     "charisma",
}

// String returns the full lowercase attribute name.
func (a Attribute) String() string {
	if n, ok := attributeNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAttribute accepts full names ("strength") or three-letter
// abbreviations ("str"), case-insensitively. The empty string is AttrNone.
func ParseAttribute(s string) (Attribute, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return AttrNone, nil
	}
	for a, name := range attributeNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return a, nil
		}
	}
	return AttrNone, fmt.Errorf("unknown attribute %q", s)
}

// AbilityScores holds the six primary ability scores.
type AbilityScores struct {
	Strength     int `yaml:"strength"`
	Dexterity    int `yaml:"dexterity"`
	Constitution int `yaml:"constitution"`
	Intelligence int `yaml:"intelligence"`
	Wisdom       int `yaml:"wisdom"`
	Charisma     int `yaml:"charisma"`
}

// Score returns the raw score for attr. AttrNone yields 10 so its modifier is 0.
func (s AbilityScores) Score(attr Attribute) int {
	switch attr {
	case AttrStrength:
		return s.Strength
	case AttrDexterity:
		return s.Dexterity
	case AttrConstitution:
		return s.Constitution
	case AttrIntelligence:
		return s.Intelligence
	case AttrWisdom:
		return s.Wisdom
	case AttrCharisma:
		return s.Charisma
	default:
		return 10
	}
}

// Modifier returns the derived modifier for attr.
//
// Postcondition: Returns 0 for AttrNone.
func (s AbilityScores) Modifier(attr Attribute) int {
	if attr == AttrNone {
		return 0
	}
	return AbilityMod(s.Score(attr))
}

// AbilityMod computes floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// ProficiencyBonus returns 2 + (level-1)/4.
//
// Precondition: level >= 1; lower levels are treated as 1.
// Postcondition: Returns >= 2.
func ProficiencyBonus(level int) int {
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}
