package combat

import "errors"

// Failure names why an ability could not execute. Every failure leaves all
// state untouched.
type Failure int

const (
	FailureNone Failure = iota
	FailureNoTarget
	FailureOutOfRange
	FailureNoActionAvailable
	FailureNoSpellSlots
	FailureNoUsesLeft
	FailureInvalidActor
)

// String returns the failure name used in validation-failed events.
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureNoTarget:
		return "no_target"
	case FailureOutOfRange:
		return "out_of_range"
	case FailureNoActionAvailable:
		return "no_action_available"
	case FailureNoSpellSlots:
		return "no_spell_slots"
	case FailureNoUsesLeft:
		return "no_uses_left"
	case FailureInvalidActor:
		return "invalid_actor"
	default:
		return "unknown"
	}
}

var (
	ErrNoTarget          = errors.New("no valid target")
	ErrOutOfRange        = errors.New("target out of range")
	ErrNoActionAvailable = errors.New("no action available")
	ErrNoSpellSlots      = errors.New("not enough spell slots")
	ErrNoUsesLeft        = errors.New("no uses left")
	ErrInvalidActor      = errors.New("invalid actor")
)

// Err maps f to its sentinel error, or nil for FailureNone.
func (f Failure) Err() error {
	switch f {
	case FailureNoTarget:
		return ErrNoTarget
	case FailureOutOfRange:
		return ErrOutOfRange
	case FailureNoActionAvailable:
		return ErrNoActionAvailable
	case FailureNoSpellSlots:
		return ErrNoSpellSlots
	case FailureNoUsesLeft:
		return ErrNoUsesLeft
	case FailureInvalidActor:
		return ErrInvalidActor
	default:
		return nil
	}
}

// Hit records one attack resolution against one target.
type Hit struct {
	TargetID string
	Attack   AttackResult
	// Dealt is the health actually removed after multipliers and barriers.
	Dealt int
}

// Heal records healing applied to one target.
type Heal struct {
	TargetID string
	Amount   int
}

// Outcome is the result of Engine.Execute.
type Outcome struct {
	Ability  string
	CasterID string
	Failure  Failure
	// Fizzled is set when costs were committed but the effect found nothing to
	// act on, such as a heal prompt answered with a dead ally.
	Fizzled bool
	Hits    []Hit
	Heals   []Heal
}

// OK reports whether the ability passed validation and resolved.
func (o Outcome) OK() bool { return o.Failure == FailureNone }

// Err returns the sentinel error for a failed outcome, or nil.
func (o Outcome) Err() error { return o.Failure.Err() }

// TotalDamage sums the health removed across all hits.
func (o Outcome) TotalDamage() int {
	total := 0
	for _, h := range o.Hits {
		total += h.Dealt
	}
	return total
}
