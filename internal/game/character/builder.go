package character

import (
	"errors"
	"fmt"
	"math"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

// feetPerUnit converts race speeds to movement units.
const feetPerUnit = 5.0

// Tables bundles the ruleset rows a Character references.
type Tables struct {
	Race       *ruleset.Race
	Class      *ruleset.Class
	Background *ruleset.Background
}

// Lookup resolves ch's race, class and background in reg.
//
// Postcondition: Returns every missing reference joined into one error.
func Lookup(ch *Character, reg *ruleset.Registry) (Tables, error) {
	var t Tables
	var errs []error
	var ok bool
	if t.Race, ok = reg.Race(ch.Race); !ok {
		errs = append(errs, fmt.Errorf("character %q: unknown race %q", ch.Name, ch.Race))
	}
	if t.Class, ok = reg.Class(ch.Class); !ok {
		errs = append(errs, fmt.Errorf("character %q: unknown class %q", ch.Name, ch.Class))
	}
	if t.Background, ok = reg.Background(ch.Background); !ok {
		errs = append(errs, fmt.Errorf("character %q: unknown background %q", ch.Name, ch.Background))
	}
	return t, errors.Join(errs...)
}

// applyScores starts unset scores at 10, adds race bonuses, then gives the
// class key ability +2.
func applyScores(base combat.AbilityScores, bonuses map[string]int, keyAbility string) combat.AbilityScores {
	a := base
	for _, p := range []*int{&a.Strength, &a.Dexterity, &a.Constitution, &a.Intelligence, &a.Wisdom, &a.Charisma} {
		if *p == 0 {
			*p = 10
		}
	}
	add := func(ability string, delta int) {
		switch ability {
		case "strength":
			a.Strength += delta
		case "dexterity":
			a.Dexterity += delta
		case "constitution":
			a.Constitution += delta
		case "intelligence":
			a.Intelligence += delta
		case "wisdom":
			a.Wisdom += delta
		case "charisma":
			a.Charisma += delta
		}
	}
	for ability, delta := range bonuses {
		add(ability, delta)
	}
	add(keyAbility, 2)
	return a
}

// Derive computes the sheet for ch at its current level.
//
// Precondition: every table in t must be non-nil.
// Postcondition: MaxHealth >= 1, AC >= 10, Movement >= 1.
func Derive(ch *Character, t Tables) Sheet {
	level := max(1, ch.Level)
	scores := applyScores(ch.Scores, t.Race.ScoreBonuses, t.Class.KeyAbility)
	dexMod := scores.Modifier(combat.AttrDexterity)
	conMod := scores.Modifier(combat.AttrConstitution)
	wisMod := scores.Modifier(combat.AttrWisdom)

	hp := t.Class.BaseHP + t.Race.HPBonus + t.Background.HPBonus + conMod*3 +
		(level-1)*(t.Class.HitPointsPerLevel+conMod)

	ac := t.Class.BaseAC + dexMod
	switch t.Class.ConToAC {
	case ruleset.ConToACFull:
		ac += conMod
	case ruleset.ConToACHalf:
		ac += int(math.Floor(float64(conMod) * 0.5))
	}

	move := float64(t.Race.Speed())/feetPerUnit + float64(dexMod) +
		t.Class.MovementBonus + t.Background.MovementBonus

	// Perception and insight both start at 10 + WIS.
	sense := float64(10 + wisMod)
	awareness := int(math.Floor(sense/5 + sense/10))
	prof := combat.ProficiencyBonus(level)

	return Sheet{
		Scores:      scores,
		MaxHealth:   max(1, hp),
		AC:          max(10, ac),
		Movement:    math.Max(1, math.Round(move)),
		Initiative:  dexMod + prof + awareness,
		Proficiency: prof,
		SlotMax:     t.Class.SlotsAt(level),
	}
}

// AbilityIDs returns the class abilities followed by ch's extra abilities,
// without duplicates.
func AbilityIDs(ch *Character, class *ruleset.Class) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{class.Abilities, ch.Abilities} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// Build constructs a player Combatant for ch.
//
// Precondition: reg and catalog must be non-nil; conditions may be nil.
// Postcondition: Returns a full-health player at the origin, or a non-nil error.
func Build(ch *Character, reg *ruleset.Registry, catalog *combat.Catalog, conditions *condition.Registry) (*combat.Combatant, error) {
	if ch.Name == "" {
		return nil, errors.New("character name must not be empty")
	}
	t, err := Lookup(ch, reg)
	if err != nil {
		return nil, err
	}
	abilities, err := catalog.Resolve(AbilityIDs(ch, t.Class))
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", ch.Name, err)
	}
	if ch.Level < 1 {
		ch.Level = 1
	}
	return combat.NewCombatant(stats(ch, Derive(ch, t), abilities, conditions)), nil
}

func stats(ch *Character, s Sheet, abilities []*combat.Ability, conditions *condition.Registry) combat.Stats {
	return combat.Stats{
		ID:          ch.ID,
		Name:        ch.Name,
		Kind:        combat.KindPlayer,
		Tag:         ch.Class,
		Level:       ch.Level,
		Scores:      s.Scores,
		MaxHealth:   s.MaxHealth,
		AC:          s.AC,
		MaxMovement: s.Movement,
		Initiative:  s.Initiative,
		SlotMax:     s.SlotMax,
		Abilities:   abilities,
		Experience:  ch.Experience,
		Conditions:  conditions,
	}
}

// AbilityName returns the short display label for an ability score field.
func AbilityName(field string) string {
	names := map[string]string{
		"strength":     "STR",
		"dexterity":    "DEX",
		"constitution": "CON",
		"intelligence": "INT",
		"wisdom":       "WIS",
		"charisma":     "CHA",
	}
	if n, ok := names[field]; ok {
		return n
	}
	return fmt.Sprintf("<%s>", field)
}
