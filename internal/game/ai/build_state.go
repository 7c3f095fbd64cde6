package ai

import "github.com/cory-johannsen/tactics/internal/game/combat"

// BuildWorldState constructs a WorldState snapshot for self from roster.
//
// Precondition: roster and self must not be nil.
// Postcondition: ws.Self.ID == self.ID; self, its allies and its opponents
// each appear once.
func BuildWorldState(roster combat.Roster, self *combat.Combatant, round int) *WorldState {
	ws := &WorldState{Self: stateOf(self), Round: round}
	ws.Combatants = append(ws.Combatants, ws.Self)
	seen := map[string]bool{self.ID: true}
	add := func(cs []*combat.Combatant) {
		for _, c := range cs {
			if c == nil || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			ws.Combatants = append(ws.Combatants, stateOf(c))
		}
	}
	add(roster.Allies(self))
	add(roster.Opponents(self))
	return ws
}

func stateOf(c *combat.Combatant) *CombatantState {
	return &CombatantState{
		ID:       c.ID,
		Name:     c.Name,
		Kind:     c.Kind,
		HP:       c.Health(),
		MaxHP:    c.MaxHealth(),
		AC:       c.AC(),
		Position: c.Position,
		Dead:     !c.IsTargetable(),
	}
}
