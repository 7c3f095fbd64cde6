package ai

import "github.com/cory-johannsen/tactics/internal/game/combat"

// CombatantState captures a combatant's decision-relevant state at planning
// time.
type CombatantState struct {
	ID       string
	Name     string
	Kind     combat.Kind
	HP       int
	MaxHP    int
	AC       int
	Position combat.Vec2
	Dead     bool
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (c *CombatantState) HPPercent() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP) * 100
}

// WorldState is the snapshot a Controller plans one turn against.
//
// Invariant: Self must not be nil and is also present in Combatants.
type WorldState struct {
	Self       *CombatantState
	Round      int
	Combatants []*CombatantState
}

// Find returns the state for id, or nil.
func (ws *WorldState) Find(id string) *CombatantState {
	for _, c := range ws.Combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// DistanceTo returns the distance from Self to other.
func (ws *WorldState) DistanceTo(other *CombatantState) float64 {
	return combat.Distance(ws.Self.Position, other.Position)
}

// EnemiesOf returns all living combatants of the opposite kind from Self.
//
// Postcondition: returned slice contains no dead combatants and no same-kind combatants.
func (ws *WorldState) EnemiesOf() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.Dead && c.ID != ws.Self.ID && c.Kind != ws.Self.Kind {
			out = append(out, c)
		}
	}
	return out
}

// HasLivingEnemies returns true when at least one living enemy exists.
func (ws *WorldState) HasLivingEnemies() bool {
	return len(ws.EnemiesOf()) > 0
}

// NearestEnemy returns the closest living enemy, or nil.
//
// Postcondition: ties are broken by order in Combatants.
func (ws *WorldState) NearestEnemy() *CombatantState {
	var best *CombatantState
	for _, e := range ws.EnemiesOf() {
		if best == nil || ws.DistanceTo(e) < ws.DistanceTo(best) {
			best = e
		}
	}
	return best
}

// WeakestEnemy returns the living enemy with the lowest HP percentage, or nil.
//
// Postcondition: nil if no living enemies exist; ties broken by order in Combatants.
func (ws *WorldState) WeakestEnemy() *CombatantState {
	return weakest(ws.EnemiesOf())
}

// AlliesOf returns all living combatants of Self's kind, Self included.
func (ws *WorldState) AlliesOf() []*CombatantState {
	var out []*CombatantState
	for _, c := range ws.Combatants {
		if !c.Dead && c.Kind == ws.Self.Kind {
			out = append(out, c)
		}
	}
	return out
}

// WeakestAlly returns the living ally (Self included) with the lowest HP
// percentage, or nil.
func (ws *WorldState) WeakestAlly() *CombatantState {
	return weakest(ws.AlliesOf())
}

func weakest(cs []*CombatantState) *CombatantState {
	if len(cs) == 0 {
		return nil
	}
	w := cs[0]
	for _, c := range cs[1:] {
		if c.HPPercent() < w.HPPercent() {
			w = c
		}
	}
	return w
}

// ResolveTarget maps a target token to a combatant ID.
//
// Postcondition: tokens "nearest_enemy", "weakest_enemy", "weakest_ally" and
// "self" are resolved to IDs; unknown tokens are returned as-is; empty string
// is returned if the token names nobody.
func (ws *WorldState) ResolveTarget(token string) string {
	var c *CombatantState
	switch token {
	case "nearest_enemy":
		c = ws.NearestEnemy()
	case "weakest_enemy":
		c = ws.WeakestEnemy()
	case "weakest_ally":
		c = ws.WeakestAlly()
	case "self":
		c = ws.Self
	default:
		return token
	}
	if c == nil {
		return ""
	}
	return c.ID
}
