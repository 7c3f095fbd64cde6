package battle

import (
	"sync"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// Recorder is a combat.Sink that journals every event in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []combat.Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements combat.Sink.
func (r *Recorder) Emit(e combat.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the journal.
func (r *Recorder) Events() []combat.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]combat.Event(nil), r.events...)
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t combat.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Record builds the archive record for b.
//
// Precondition: b must have ended.
func (r *Recorder) Record(b *combat.Battle, replayKey, party string) *Record {
	enemies := make([]string, 0, len(b.Enemies()))
	for _, e := range b.Enemies() {
		enemies = append(enemies, e.Tag)
	}
	return &Record{
		ID:        b.ID,
		ReplayKey: replayKey,
		Party:     party,
		Enemies:   enemies,
		Outcome:   b.Result().String(),
		Rounds:    b.Round(),
		StartedAt: b.StartedAt(),
		EndedAt:   b.EndedAt(),
		Journal:   r.Events(),
	}
}
