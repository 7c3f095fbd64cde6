package battle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/npc"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

var (
	ErrBattleOver     = errors.New("battle is over")
	ErrNotPlayerTurn  = errors.New("not a player's turn")
	ErrUnknownAbility = errors.New("unknown ability")
	ErrUnknownTarget  = errors.New("unknown target")
)

// Session is one interactive battle. Player turns wait for ExecuteAbility,
// SwitchActive and EndTurn; enemy turns run inside EndTurn.
//
// Session methods must be called from one goroutine, except RespondToPrompt,
// which answers a prompt raised inside a blocked ExecuteAbility.
type Session struct {
	battle    *combat.Battle
	prompter  *ChannelPrompter
	recorder  *Recorder
	scripts   *scripting.Manager
	enemies   *npc.Manager
	archive   Archive
	replayKey string
	party     string
	logger    *zap.Logger
	record    *Record
}

// Battle returns the underlying battle.
func (s *Session) Battle() *combat.Battle { return s.battle }

// ReplayKey returns the key the battle's dice were seeded from.
func (s *Session) ReplayKey() string { return s.replayKey }

// Prompts delivers ally-selection requests raised by player abilities.
func (s *Session) Prompts() <-chan Prompt { return s.prompter.Prompts() }

// Current returns the combatant whose turn it is, or nil.
func (s *Session) Current() *combat.Combatant { return s.battle.Current() }

// Snapshots returns the state of every participant, party first.
func (s *Session) Snapshots() []combat.Snapshot {
	all := participants(s.battle)
	out := make([]combat.Snapshot, 0, len(all))
	for _, c := range all {
		out = append(out, c.Snapshot())
	}
	return out
}

// Start rolls initiative and runs turns until a player must act.
func (s *Session) Start(ctx context.Context) error {
	return s.battle.Start(ctx)
}

// Events returns the journal so far.
func (s *Session) Events() []combat.Event { return s.recorder.Events() }

func (s *Session) playerTurn() (*combat.Combatant, error) {
	if s.battle.Over() {
		return nil, ErrBattleOver
	}
	cur := s.battle.Current()
	if cur == nil || cur.Kind != combat.KindPlayer {
		return nil, ErrNotPlayerTurn
	}
	return cur, nil
}

// ExecuteAbility uses abilityRef from the current player's kit. targetRef is
// a combatant ID or empty; point is an optional ground location.
//
// Postcondition: validation failures are reported in the Outcome with a nil
// error; errors are reserved for bad references, the wrong turn and
// cancellation.
func (s *Session) ExecuteAbility(ctx context.Context, abilityRef, targetRef string, point *combat.Vec2) (combat.Outcome, error) {
	cur, err := s.playerTurn()
	if err != nil {
		return combat.Outcome{}, err
	}
	var ability *combat.Ability
	for _, a := range cur.Abilities {
		if a.ID == abilityRef {
			ability = a
			break
		}
	}
	if ability == nil {
		return combat.Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAbility, abilityRef)
	}
	req := combat.Request{Ability: ability, Caster: cur, Point: point}
	if targetRef != "" {
		if req.Target = find(s.battle, targetRef); req.Target == nil {
			return combat.Outcome{}, fmt.Errorf("%w: %q", ErrUnknownTarget, targetRef)
		}
	}
	return s.battle.Execute(ctx, req)
}

// EndTurn ends the current player's turn. Enemy turns run before it returns.
func (s *Session) EndTurn(ctx context.Context) error {
	if _, err := s.playerTurn(); err != nil {
		return err
	}
	s.battle.EndTurn(ctx)
	return nil
}

// SwitchActive swaps the active party member for the one at index.
func (s *Session) SwitchActive(ctx context.Context, index int) error {
	if s.battle.Over() {
		return ErrBattleOver
	}
	return s.battle.Party().SwitchTo(ctx, index)
}

// RespondToPrompt answers the pending ally-selection prompt.
func (s *Session) RespondToPrompt(selection int) error {
	return s.prompter.RespondToPrompt(selection)
}

// Finish ends the battle if it is still running, archives it when an archive
// is configured and releases the spawned enemies. It is idempotent.
func (s *Session) Finish(ctx context.Context) (*Record, error) {
	if s.record != nil {
		return s.record, nil
	}
	if !s.battle.Over() {
		s.battle.End(combat.ResultAborted)
	}
	s.release()
	s.record = s.recorder.Record(s.battle, s.replayKey, s.party)
	s.logger.Info("battle finished",
		zap.String("outcome", s.record.Outcome),
		zap.Int("rounds", s.record.Rounds),
		zap.Int("events", len(s.record.Journal)),
	)
	// A battle that never started has no outcome to archive.
	if s.archive == nil || s.record.Result() == combat.ResultNone {
		return s.record, nil
	}
	if err := s.archive.Save(ctx, s.record); err != nil {
		return s.record, fmt.Errorf("archiving battle %s: %w", s.record.ID, err)
	}
	return s.record, nil
}

// release closes the battle's Lua state and returns its enemies to the pool.
func (s *Session) release() {
	removeEnemies(s.enemies, s.battle.Enemies(), s.logger)
	s.scripts.Close()
}
