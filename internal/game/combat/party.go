package combat

import (
	"context"
	"errors"
	"fmt"
)

// MaxPartySize is the most members a party may hold.
const MaxPartySize = 4

var (
	ErrSwitchDisabled  = errors.New("switching is disabled")
	ErrInvalidMember   = errors.New("invalid party member")
	ErrAlreadyActive   = errors.New("member is already active")
	ErrMemberDead      = errors.New("member is dead")
	ErrNoBonusAction   = errors.New("switching requires a bonus action")
	ErrAlreadySwitched = errors.New("already switched this round")
	ErrNotYourTurn     = errors.New("not the active member's turn")
)

// Party is the player side: up to MaxPartySize members of which exactly one
// is on the field.
type Party struct {
	members  []*Combatant
	active   int
	disabled bool

	sched *Scheduler
	sink  Sink
}

// NewParty creates a party with the first member active.
//
// Postcondition: Active() == members[0].
func NewParty(members []*Combatant) (*Party, error) {
	if len(members) == 0 || len(members) > MaxPartySize {
		return nil, fmt.Errorf("party size %d outside 1..%d", len(members), MaxPartySize)
	}
	seen := make(map[*Combatant]bool, len(members))
	for i, m := range members {
		if m == nil || m.Kind != KindPlayer {
			return nil, fmt.Errorf("member %d: %w", i, ErrInvalidMember)
		}
		if seen[m] {
			return nil, fmt.Errorf("member %d listed twice: %w", i, ErrInvalidMember)
		}
		seen[m] = true
	}
	p := &Party{members: append([]*Combatant(nil), members...), sink: NopSink{}}
	for i, m := range p.members {
		if !m.IsDead() {
			p.active = i
			break
		}
	}
	return p, nil
}

// Members returns the roster in slot order, dead members included.
func (p *Party) Members() []*Combatant {
	return append([]*Combatant(nil), p.members...)
}

// Active returns the member on the field.
func (p *Party) Active() *Combatant { return p.members[p.active] }

// SetSwitchingEnabled toggles manual switching.
func (p *Party) SetSwitchingEnabled(on bool) { p.disabled = !on }

// Living returns the members still alive.
func (p *Party) Living() []*Combatant {
	var out []*Combatant
	for _, m := range p.members {
		if !m.IsDead() {
			out = append(out, m)
		}
	}
	return out
}

// Wiped reports whether every member is dead.
func (p *Party) Wiped() bool { return len(p.Living()) == 0 }

// RestAll rests every living member between battles.
func (p *Party) RestAll() {
	for _, m := range p.members {
		m.Rest()
	}
}

func (p *Party) attach(s *Scheduler, sink Sink) {
	p.sched = s
	if sink == nil {
		sink = NopSink{}
	}
	p.sink = sink
}

func (p *Party) detach() {
	p.sched = nil
	p.sink = NopSink{}
}

// SwitchTo makes member idx active.
//
// Out of battle the swap is free. In battle it is only allowed on the active
// member's turn and costs its bonus action; the newcomer takes the same
// queue slot and position with an action, no bonus action and full movement.
func (p *Party) SwitchTo(_ context.Context, idx int) error {
	if p.disabled {
		return ErrSwitchDisabled
	}
	if idx < 0 || idx >= len(p.members) {
		return ErrInvalidMember
	}
	if idx == p.active {
		return ErrAlreadyActive
	}
	next := p.members[idx]
	if next.IsDead() {
		return ErrMemberDead
	}
	old := p.Active()
	if p.sched == nil {
		p.active = idx
		return nil
	}
	if p.sched.Current() != old || p.sched.State() != StateTurnActive {
		return ErrNotYourTurn
	}
	if !old.HasBonusAction() {
		return ErrNoBonusAction
	}
	if old.SwitchedThisRound() {
		return ErrAlreadySwitched
	}
	if !p.sched.ReplaceCombatant(old, next) {
		return ErrInvalidMember
	}

	old.hasBonusAction = false
	old.switchedThisRound = true
	if !old.sneaking {
		old.immune = false
	}
	p.place(old, next)
	next.hasAction = true
	next.hasBonusAction = false
	next.RefillMovement()
	if next.sneaking {
		next.endSneak()
	}
	p.active = idx
	emit(p.sink, Event{Type: EventCombatantSwitched, Round: p.sched.Round(), ActorID: old.ID, TargetID: next.ID})
	return nil
}

// NotifyMemberDied substitutes the next living member for a dead active
// member. It returns false when c was not active or nobody is left.
func (p *Party) NotifyMemberDied(c *Combatant) bool {
	if c != p.Active() || !c.IsDead() {
		return false
	}
	return p.SwitchToNextAlive() != nil
}

// SwitchToNextAlive activates the next living member after the current one,
// free of charge, and returns it or nil if the party is wiped.
func (p *Party) SwitchToNextAlive() *Combatant {
	old := p.Active()
	for step := 1; step <= len(p.members); step++ {
		i := (p.active + step) % len(p.members)
		next := p.members[i]
		if next == old || next.IsDead() {
			continue
		}
		if p.sched != nil && !p.sched.ReplaceCombatant(old, next) {
			continue
		}
		p.place(old, next)
		p.active = i
		round := 0
		if p.sched != nil {
			round = p.sched.Round()
		}
		emit(p.sink, Event{Type: EventCombatantSwitched, Round: round, ActorID: old.ID, TargetID: next.ID, Reason: "member_died"})
		return next
	}
	return nil
}

func (p *Party) place(old, next *Combatant) {
	next.Position = old.Position
	next.Facing = old.Facing
}
