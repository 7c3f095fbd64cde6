package condition

// DamageMultiplier returns the factor applied to incoming damage.
//
// Postcondition: Returns a value in [0, 1].
func DamageMultiplier(t *Tracker) float64 {
	ratio, ok := t.BarrierReduction()
	if !ok {
		return 1
	}
	return 1 - ratio
}

// GrantsImmunity reports whether any active effect makes the owner immune.
func GrantsImmunity(t *Tracker) bool {
	for _, a := range t.effects {
		if a.Def.GrantsImmunity {
			return true
		}
	}
	return false
}

// RestrictsSpecial reports whether an active effect forbids using an ability
// tagged special. An empty special is restricted whenever any restriction
// exists.
func RestrictsSpecial(t *Tracker, special string) bool {
	for _, a := range t.effects {
		if len(a.Def.RestrictTo) == 0 {
			continue
		}
		allowed := false
		for _, s := range a.Def.RestrictTo {
			if s == special {
				allowed = true
				break
			}
		}
		if !allowed {
			return true
		}
	}
	return false
}
