package condition

import "sort"

// Active is one status effect applied to its owner.
type Active struct {
	Def             *Def
	RoundsRemaining int
	// Reduction is the damage reduction ratio for barriers.
	Reduction float64
}

// Tracker holds every status effect on one combatant. At most one effect of
// each Kind is active; re-applying replaces the previous one.
//
// Tracker is not safe for concurrent use; the turn context serialises access.
type Tracker struct {
	reg     *Registry
	effects map[Kind]*Active
}

// NewTracker creates an empty Tracker. A nil registry uses DefaultRegistry.
func NewTracker(reg *Registry) *Tracker {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Tracker{reg: reg, effects: make(map[Kind]*Active)}
}

// ApplyBarrier sets the single active barrier, replacing any prior one.
//
// Precondition: 0 <= ratio <= 1; values outside are clamped.
// Postcondition: Has(KindBarrier) iff rounds > 0.
func (t *Tracker) ApplyBarrier(rounds int, ratio float64) {
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	t.apply(KindBarrier, rounds, ratio)
}

// ApplyBless attaches a blessing for rounds turns.
func (t *Tracker) ApplyBless(rounds int) {
	t.apply(KindBless, rounds, 0)
}

// ApplySneak attaches a sneak for rounds turns.
func (t *Tracker) ApplySneak(rounds int) {
	t.apply(KindSneak, rounds, 0)
}

func (t *Tracker) apply(kind Kind, rounds int, ratio float64) {
	if rounds <= 0 {
		delete(t.effects, kind)
		return
	}
	t.effects[kind] = &Active{Def: t.reg.MustGet(kind), RoundsRemaining: rounds, Reduction: ratio}
}

// Tick decrements every effect by one round and removes those that reach
// zero.
//
// Postcondition: For every kind returned, Has(kind) is false. The result is
// sorted so callers observe a stable order.
func (t *Tracker) Tick() []Kind {
	var expired []Kind
	for kind, a := range t.effects {
		a.RoundsRemaining--
		if a.RoundsRemaining <= 0 {
			expired = append(expired, kind)
			delete(t.effects, kind)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i] < expired[j] })
	return expired
}

// Has reports whether an effect of kind is active.
func (t *Tracker) Has(kind Kind) bool {
	_, ok := t.effects[kind]
	return ok
}

// Remaining returns the rounds left on kind, or 0.
func (t *Tracker) Remaining(kind Kind) int {
	if a, ok := t.effects[kind]; ok {
		return a.RoundsRemaining
	}
	return 0
}

// BarrierReduction returns the active barrier's ratio.
func (t *Tracker) BarrierReduction() (float64, bool) {
	a, ok := t.effects[KindBarrier]
	if !ok {
		return 0, false
	}
	return a.Reduction, true
}

// Remove deletes kind. Removing an absent effect is a no-op.
func (t *Tracker) Remove(kind Kind) {
	delete(t.effects, kind)
}

// Clear removes every effect.
func (t *Tracker) Clear() {
	clear(t.effects)
}

// All returns copies of the active effects sorted by kind.
func (t *Tracker) All() []Active {
	out := make([]Active, 0, len(t.effects))
	for _, a := range t.effects {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}
