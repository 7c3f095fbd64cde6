// Package battle assembles the combat core into runnable battles: it wires
// the engine, scheduler, AI controller and Lua hooks together, exposes an
// interactive Session, and journals every event for the archive.
package battle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

var (
	// ErrRecordNotFound is returned by archives when no battle has the given ID.
	ErrRecordNotFound = errors.New("battle record not found")
	// ErrUnfinished rejects a record whose outcome is not a final result.
	ErrUnfinished = errors.New("battle has no final outcome")
)

// Record is the archived account of one finished battle.
type Record struct {
	ID        string
	ReplayKey string
	Party     string
	Enemies   []string
	Outcome   string
	Rounds    int
	StartedAt time.Time
	EndedAt   time.Time
	Journal   []combat.Event
}

// Summary is the list view of a Record.
type Summary struct {
	ID        string
	ReplayKey string
	Party     string
	Outcome   string
	Rounds    int
	Events    int
	StartedAt time.Time
	EndedAt   time.Time
}

// Result parses the archived outcome.
func (s Summary) Result() combat.BattleResult { return combat.ParseBattleResult(s.Outcome) }

// Duration returns how long the battle ran.
func (s Summary) Duration() time.Duration { return s.EndedAt.Sub(s.StartedAt) }

// Result parses the archived outcome. Unknown text yields ResultNone.
func (r *Record) Result() combat.BattleResult { return combat.ParseBattleResult(r.Outcome) }

// Validate reports whether r can be archived.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record must have an ID")
	}
	if r.Result() == combat.ResultNone {
		return fmt.Errorf("%w: outcome %q", ErrUnfinished, r.Outcome)
	}
	return nil
}

// Summary returns the list view of r.
func (r *Record) Summary() Summary {
	return Summary{
		ID:        r.ID,
		ReplayKey: r.ReplayKey,
		Party:     r.Party,
		Outcome:   r.Outcome,
		Rounds:    r.Rounds,
		Events:    len(r.Journal),
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

// Archive persists finished battles.
type Archive interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Summary, error)
}
