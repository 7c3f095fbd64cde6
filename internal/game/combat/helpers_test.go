package combat_test

import (
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// seqSource replays Intn results in order and then repeats the last one.
// A d20 of r needs the value r-1.
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v % n
}

func rollerWith(vals ...int) *dice.Roller {
	return dice.NewLoggedRoller(&seqSource{vals: vals}, nil)
}

func newCombatant(id string, kind combat.Kind, mutate ...func(*combat.Stats)) *combat.Combatant {
	s := combat.Stats{
		ID:          id,
		Name:        id,
		Kind:        kind,
		Level:       1,
		Scores:      combat.AbilityScores{Strength: 10, Dexterity: 10, Constitution: 10, Intelligence: 10, Wisdom: 10, Charisma: 10},
		MaxHealth:   20,
		AC:          12,
		MaxMovement: 6,
		SlotMax:     [2]int{2, 1},
	}
	for _, m := range mutate {
		m(&s)
	}
	return combat.NewCombatant(s)
}

func newPlayer(id string, mutate ...func(*combat.Stats)) *combat.Combatant {
	return newCombatant(id, combat.KindPlayer, mutate...)
}

func newEnemy(id string, mutate ...func(*combat.Stats)) *combat.Combatant {
	return newCombatant(id, combat.KindEnemy, mutate...)
}

func at(x, y float64) func(*combat.Stats) {
	return func(s *combat.Stats) { s.Position = combat.Vec2{X: x, Y: y} }
}

func withHealth(hp int) func(*combat.Stats) {
	return func(s *combat.Stats) { s.MaxHealth = hp }
}

func withAC(ac int) func(*combat.Stats) {
	return func(s *combat.Stats) { s.AC = ac }
}

func withStrength(score int) func(*combat.Stats) {
	return func(s *combat.Stats) { s.Scores.Strength = score }
}

func withInitiative(i int) func(*combat.Stats) {
	return func(s *combat.Stats) { s.Initiative = i }
}

func withAbilities(abs ...*combat.Ability) func(*combat.Stats) {
	return func(s *combat.Stats) { s.Abilities = abs }
}

func strikeAbility(id string) *combat.Ability {
	return &combat.Ability{
		ID:               id,
		Name:             id,
		Unlocked:         true,
		Category:         combat.CategoryMelee,
		BaseDamage:       2,
		DiceCount:        2,
		DiceSides:        6,
		DamageScaling:    1,
		ScalingAttribute: combat.AttrStrength,
		Action:           combat.ActionStandard,
		Target:           combat.TargetEnemy,
		Delivery:         combat.DeliveryInstant,
		Range:            10,
		Strikes:          1,
	}
}

// fixedRoster is a Roster over explicit sides with a settable current turn.
type fixedRoster struct {
	current *combat.Combatant
	players []*combat.Combatant
	enemies []*combat.Combatant
}

func (r *fixedRoster) Current() *combat.Combatant { return r.current }

func (r *fixedRoster) Opponents(of *combat.Combatant) []*combat.Combatant {
	side := r.enemies
	if of.Kind == combat.KindEnemy {
		side = r.players
	}
	var out []*combat.Combatant
	for _, c := range side {
		if c.IsTargetable() {
			out = append(out, c)
		}
	}
	return out
}

func (r *fixedRoster) Allies(of *combat.Combatant) []*combat.Combatant {
	if of.Kind == combat.KindPlayer {
		return r.players
	}
	return r.enemies
}

func (r *fixedRoster) Focus(of *combat.Combatant) *combat.Combatant {
	opp := r.Opponents(of)
	if len(opp) == 0 {
		return nil
	}
	return opp[0]
}

// recordingSink keeps every event.
type recordingSink struct {
	events []combat.Event
}

func (s *recordingSink) Emit(e combat.Event) { s.events = append(s.events, e) }

func (s *recordingSink) ofType(t combat.EventType) []combat.Event {
	var out []combat.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func newEngine(roster combat.Roster, roller *dice.Roller, sink combat.Sink) *combat.Engine {
	return combat.NewEngine(combat.EngineConfig{Roller: roller, Sink: sink, Pacer: combat.NoDelay{}}, roster)
}
