package combat

import (
	"time"

	"go.uber.org/zap"
)

// EventType enumerates the notifications the core emits.
type EventType string

const (
	EventTurnStarted       EventType = "turn_started"
	EventAbilityUsed       EventType = "ability_used"
	EventDamageApplied     EventType = "damage_applied"
	EventHealApplied       EventType = "heal_applied"
	EventCombatantDied     EventType = "combatant_died"
	EventBattleEnded       EventType = "battle_ended"
	EventValidationFailed  EventType = "validation_failed"
	EventCue               EventType = "cue"
	EventCombatantSwitched EventType = "combatant_switched"
	EventLevelUp           EventType = "level_up"
	EventStatusExpired     EventType = "status_expired"
)

// Event is a fire-and-forget notification for presentation, audio and
// archival collaborators. Fields irrelevant to a Type are left zero.
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	Round    int       `json:"round,omitempty"`
	ActorID  string    `json:"actor_id,omitempty"`
	TargetID string    `json:"target_id,omitempty"`
	Ability  string    `json:"ability,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Crit     bool      `json:"crit,omitempty"`
	Miss     bool      `json:"miss,omitempty"`
	Immune   bool      `json:"immune,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// Sink receives events. Implementations must not call back into the core.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// NopSink discards every event.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(Event) {}

// MultiSink fans each event out to every member in order.
type MultiSink []Sink

// Emit forwards e to each non-nil member.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// LogSink mirrors events into a zap logger at debug level, and battle ends
// at info level.
type LogSink struct {
	Logger *zap.Logger
}

// Emit logs e.
func (l LogSink) Emit(e Event) {
	if l.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("type", string(e.Type)),
		zap.Int("round", e.Round),
	}
	if e.ActorID != "" {
		fields = append(fields, zap.String("actor", e.ActorID))
	}
	if e.TargetID != "" {
		fields = append(fields, zap.String("target", e.TargetID))
	}
	if e.Ability != "" {
		fields = append(fields, zap.String("ability", e.Ability))
	}
	if e.Amount != 0 {
		fields = append(fields, zap.Int("amount", e.Amount))
	}
	if e.Crit {
		fields = append(fields, zap.Bool("crit", true))
	}
	if e.Miss {
		fields = append(fields, zap.Bool("miss", true))
	}
	if e.Immune {
		fields = append(fields, zap.Bool("immune", true))
	}
	if e.Reason != "" {
		fields = append(fields, zap.String("reason", e.Reason))
	}
	if e.Detail != "" {
		fields = append(fields, zap.String("detail", e.Detail))
	}
	if e.Type == EventBattleEnded {
		l.Logger.Info("combat event", fields...)
		return
	}
	l.Logger.Debug("combat event", fields...)
}

// clock stamps events; tests may replace it.
var clock = time.Now

func emit(s Sink, e Event) {
	if s == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = clock()
	}
	s.Emit(e)
}
