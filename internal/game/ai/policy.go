package ai

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// ScriptCaller is the interface required by the Policy to evaluate Lua gate
// hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error)
}

// repeatLimit is how many consecutive uses make an ability ineligible.
const repeatLimit = 2

type memory struct {
	ability string
	count   int
}

// Policy picks abilities for combatants under one Profile.
//
// Invariant: profile and roller are non-nil.
type Policy struct {
	profile *Profile
	roller  *dice.Roller
	caller  ScriptCaller
	scope   string
	logger  *zap.Logger
	recent  map[string]*memory
}

// NewPolicy constructs a Policy. caller may be nil when the profile has no
// gate hook.
//
// Precondition: profile and roller must not be nil.
func NewPolicy(profile *Profile, roller *dice.Roller, caller ScriptCaller, scope string, logger *zap.Logger) *Policy {
	if profile == nil {
		panic("ai.NewPolicy: profile must not be nil")
	}
	if roller == nil {
		panic("ai.NewPolicy: roller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		profile: profile,
		roller:  roller,
		caller:  caller,
		scope:   scope,
		logger:  logger,
		recent:  make(map[string]*memory),
	}
}

// Profile returns the policy's profile.
func (p *Policy) Profile() *Profile { return p.profile }

// ChooseAbility picks one of candidates for c at distance from its target.
//
// Candidates must be unlocked, affordable and not exhausted. The gate hook
// may veto any of them. An ability used repeatLimit times in a row is
// dropped unless it is the only one left. A single survivor is returned
// directly; otherwise the choice is a weighted draw by category.
//
// Postcondition: returns nil only when no candidate survives filtering.
func (p *Policy) ChooseAbility(c *combat.Combatant, candidates []*combat.Ability, distance float64) *combat.Ability {
	var pool []*combat.Ability
	for _, a := range candidates {
		if a != nil && a.Usable(c) && a.Category != combat.CategoryPassive && p.allowed(c, a, distance) {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	if m := p.recent[c.ID]; m != nil && m.count >= repeatLimit && len(pool) > 1 {
		kept := pool[:0:0]
		for _, a := range pool {
			if a.ID != m.ability {
				kept = append(kept, a)
			}
		}
		pool = kept
	}
	if len(pool) == 1 {
		return pool[0]
	}
	return p.weightedPick(pool)
}

func (p *Policy) weightedPick(pool []*combat.Ability) *combat.Ability {
	var flat []*combat.Ability
	for _, a := range pool {
		for i := 0; i < p.profile.Weight(a.Category); i++ {
			flat = append(flat, a)
		}
	}
	if len(flat) == 0 {
		flat = pool
	}
	return flat[p.roller.Intn(len(flat))]
}

// allowed consults the gate hook. Missing hooks and script errors allow.
func (p *Policy) allowed(c *combat.Combatant, a *combat.Ability, distance float64) bool {
	if p.profile.GateHook == "" || p.caller == nil {
		return true
	}
	val, err := p.caller.CallHook(p.scope, p.profile.GateHook,
		lua.LString(c.ID), lua.LString(a.ID), lua.LNumber(distance))
	if err != nil {
		p.logger.Warn("ai gate hook failed",
			zap.String("hook", p.profile.GateHook),
			zap.String("ability", a.ID),
			zap.Error(err),
		)
		return true
	}
	return val != lua.LFalse
}

// RecordUse notes that c used a, for anti-repetition.
func (p *Policy) RecordUse(c *combat.Combatant, a *combat.Ability) {
	m := p.recent[c.ID]
	if m == nil {
		p.recent[c.ID] = &memory{ability: a.ID, count: 1}
		return
	}
	if m.ability == a.ID {
		m.count++
		return
	}
	m.ability, m.count = a.ID, 1
}

// LastUsed returns the last ability c used and how many times in a row.
func (p *Policy) LastUsed(c *combat.Combatant) (string, int) {
	if m := p.recent[c.ID]; m != nil {
		return m.ability, m.count
	}
	return "", 0
}

// Forget clears c's history.
func (p *Policy) Forget(c *combat.Combatant) {
	delete(p.recent, c.ID)
}

// PlanMovement returns how far to move toward a target at distance so that a
// is in range, capped by budget. A nil ability closes the full distance.
//
// Postcondition: 0 <= result <= max(0, budget).
func PlanMovement(distance float64, a *combat.Ability, budget float64) float64 {
	reach := 0.0
	if a != nil {
		reach = a.Range
	}
	if distance <= reach || budget <= 0 {
		return 0
	}
	return math.Min(budget, distance-reach)
}
