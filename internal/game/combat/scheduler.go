package combat

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// DefaultSafetyBound caps how many queue entries EndTurn may skip.
const DefaultSafetyBound = 50

// State is the scheduler's phase.
type State int

const (
	StateIdle State = iota
	StateRollInitiative
	StateTurnActive
	StateTurnEnd
	StateBattleOver
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRollInitiative:
		return "roll_initiative"
	case StateTurnActive:
		return "turn_active"
	case StateTurnEnd:
		return "turn_end"
	case StateBattleOver:
		return "battle_over"
	default:
		return "unknown"
	}
}

// BattleResult is how a battle finished.
type BattleResult int

const (
	ResultNone BattleResult = iota
	ResultVictory
	ResultDefeat
	ResultStalled
	ResultAborted
)

func (r BattleResult) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultVictory:
		return "victory"
	case ResultDefeat:
		return "defeat"
	case ResultStalled:
		return "stalled"
	case ResultAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ParseBattleResult is the inverse of BattleResult.String.
func ParseBattleResult(s string) BattleResult {
	for r := ResultNone; r <= ResultAborted; r++ {
		if r.String() == s {
			return r
		}
	}
	return ResultNone
}

// EnemyController plays one turn for a combatant the scheduler drives. The
// scheduler ends the turn when TakeTurn returns.
type EnemyController interface {
	TakeTurn(ctx context.Context, c *Combatant) error
}

// Scheduler orders combatants by initiative and hands out turns.
//
// All methods must be called from the battle's single logical thread.
// Controller turns run inside an iterative driver loop: a controller that
// ends a turn, or a death that removes the active combatant, only queues the
// next turn start and the outermost caller runs it.
type Scheduler struct {
	roller      *dice.Roller
	sink        Sink
	logger      *zap.Logger
	safetyBound int
	maxRounds   int

	enemyCtrl  EnemyController
	playerCtrl EnemyController

	order    []*Combatant
	index    int
	round    int
	state    State
	result   BattleResult
	previous *Combatant

	serial  uint64
	driving bool
	pending bool

	onOver []func(BattleResult)
}

// NewScheduler creates an idle scheduler. safetyBound <= 0 selects
// DefaultSafetyBound.
//
// Precondition: roller must be non-nil.
func NewScheduler(roller *dice.Roller, sink Sink, logger *zap.Logger, safetyBound int) *Scheduler {
	if roller == nil {
		panic("combat.NewScheduler: roller must not be nil")
	}
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if safetyBound <= 0 {
		safetyBound = DefaultSafetyBound
	}
	return &Scheduler{roller: roller, sink: sink, logger: logger, safetyBound: safetyBound}
}

// SetController installs the controller that plays enemy turns.
func (s *Scheduler) SetController(c EnemyController) { s.enemyCtrl = c }

// SetPlayerController installs a controller for player turns. With none,
// a player's turn waits for EndTurn.
func (s *Scheduler) SetPlayerController(c EnemyController) { s.playerCtrl = c }

// SetMaxRounds ends the battle as Stalled once round n completes. Zero means
// unlimited.
func (s *Scheduler) SetMaxRounds(n int) { s.maxRounds = max(0, n) }

// OnBattleOver registers fn to run once when the battle ends.
func (s *Scheduler) OnBattleOver(fn func(BattleResult)) {
	s.onOver = append(s.onOver, fn)
}

// Current returns the combatant whose turn it is, or nil.
func (s *Scheduler) Current() *Combatant {
	if s.state != StateTurnActive && s.state != StateTurnEnd {
		return nil
	}
	if s.index < 0 || s.index >= len(s.order) {
		return nil
	}
	return s.order[s.index]
}

// Order returns a copy of the turn queue.
func (s *Scheduler) Order() []*Combatant {
	return append([]*Combatant(nil), s.order...)
}

// State returns the current phase.
func (s *Scheduler) State() State { return s.state }

// Result returns how the battle ended, or ResultNone.
func (s *Scheduler) Result() BattleResult { return s.result }

// Round returns the 1-based round number.
func (s *Scheduler) Round() int { return s.round }

// InitializeTurnOrder rolls initiative for every living combatant, sorts the
// queue and starts the first turn.
//
// Postcondition: the queue holds each living combatant exactly once, sorted
// by descending rolled initiative with ties in argument order.
func (s *Scheduler) InitializeTurnOrder(ctx context.Context, players, enemies []*Combatant) {
	s.state = StateRollInitiative
	s.result = ResultNone
	s.order = s.order[:0]
	s.previous = nil
	seen := make(map[*Combatant]bool)
	for _, group := range [][]*Combatant{players, enemies} {
		for _, c := range group {
			if c == nil || seen[c] || !c.IsTargetable() {
				continue
			}
			seen[c] = true
			c.rollInitiative(s.roller)
			s.order = append(s.order, c)
		}
	}
	s.resort()
	s.index = 0
	s.round = 1
	s.logger.Info("turn order rolled", zap.Int("combatants", len(s.order)))
	s.StartTurn(ctx)
}

// StartTurn begins the turn at the current index.
func (s *Scheduler) StartTurn(ctx context.Context) {
	if s.state == StateBattleOver {
		return
	}
	s.pending = true
	s.drive(ctx)
}

// EndTurn finishes the active turn and starts the next one.
func (s *Scheduler) EndTurn(ctx context.Context) {
	if s.state != StateTurnActive {
		return
	}
	s.advance()
	s.drive(ctx)
}

// RemoveCombatant deletes c from the queue. The current index keeps pointing
// at the same combatant; if c was the active one the turn passes to the
// entry that took its place.
func (s *Scheduler) RemoveCombatant(ctx context.Context, c *Combatant) {
	i := s.indexOf(c)
	if i < 0 {
		return
	}
	wasCurrent := i == s.index && s.state == StateTurnActive
	s.order = append(s.order[:i], s.order[i+1:]...)
	if i < s.index {
		s.index--
	}
	if s.index >= len(s.order) {
		s.index = 0
		if wasCurrent {
			s.wrap()
		}
	}
	s.logger.Info("combatant removed", zap.String("id", c.ID), zap.Int("remaining", len(s.order)))
	if s.state == StateBattleOver || s.state == StateIdle {
		return
	}
	if s.judge() {
		return
	}
	if wasCurrent {
		s.pending = true
		s.drive(ctx)
	}
}

// ReplaceCombatant puts repl at old's position. A newcomer that has not
// rolled initiative rolls now. It returns false when old is not queued or
// repl already is.
func (s *Scheduler) ReplaceCombatant(old, repl *Combatant) bool {
	i := s.indexOf(old)
	if i < 0 || repl == nil || s.indexOf(repl) >= 0 {
		return false
	}
	if !repl.rolled {
		repl.rollInitiative(s.roller)
	}
	s.order[i] = repl
	if s.previous == old {
		s.previous = repl
	}
	s.logger.Info("combatant replaced", zap.String("old", old.ID), zap.String("new", repl.ID))
	return true
}

// End stops the battle with result. It is a no-op once the battle is over.
func (s *Scheduler) End(result BattleResult) {
	if s.state == StateBattleOver {
		return
	}
	s.finish(result)
}

func (s *Scheduler) drive(ctx context.Context) {
	if s.driving {
		return
	}
	s.driving = true
	defer func() { s.driving = false }()
	for s.pending && s.state != StateBattleOver {
		s.pending = false
		if ctx.Err() != nil {
			s.finish(ResultAborted)
			return
		}
		s.beginTurn(ctx)
	}
}

func (s *Scheduler) beginTurn(ctx context.Context) {
	s.purgeDead()
	if s.judge() {
		return
	}
	if s.index >= len(s.order) {
		s.index = 0
	}
	c := s.order[s.index]
	s.serial++
	serial := s.serial
	s.state = StateTurnActive

	for _, k := range c.tickStatus() {
		emit(s.sink, Event{Type: EventStatusExpired, Round: s.round, TargetID: c.ID, Detail: string(k)})
	}
	c.ResetTurnActions()
	emit(s.sink, Event{Type: EventTurnStarted, Round: s.round, ActorID: c.ID})
	s.logger.Info("turn started",
		zap.Int("round", s.round),
		zap.String("combatant", c.ID),
		zap.Stringer("kind", c.Kind),
	)

	ctrl := s.enemyCtrl
	if c.Kind == KindPlayer {
		ctrl = s.playerCtrl
	}
	if ctrl == nil {
		return
	}
	if err := ctrl.TakeTurn(ctx, c); err != nil {
		s.logger.Warn("controller turn failed", zap.String("combatant", c.ID), zap.Error(err))
	}
	if s.state != StateTurnActive || s.pending || s.serial != serial {
		return
	}
	s.advance()
}

// advance moves the index to the next living combatant and queues its turn.
func (s *Scheduler) advance() {
	s.state = StateTurnEnd
	prev := s.Current()
	s.previous = prev
	if len(s.order) == 0 {
		s.stall("empty turn queue")
		return
	}
	for steps := 0; ; steps++ {
		if steps > s.safetyBound {
			s.stall("safety bound exceeded")
			return
		}
		s.index++
		if s.index >= len(s.order) {
			s.index = 0
			if !s.wrap() {
				return
			}
		}
		c := s.order[s.index]
		if !c.IsTargetable() {
			continue
		}
		if c == prev && s.othersAlive(prev) {
			continue
		}
		break
	}
	s.pending = true
}

// wrap starts a new round. It returns false if the round limit ended the
// battle.
func (s *Scheduler) wrap() bool {
	s.round++
	if s.maxRounds > 0 && s.round > s.maxRounds {
		s.logger.Warn("round limit reached", zap.Int("limit", s.maxRounds))
		s.finish(ResultStalled)
		return false
	}
	s.resort()
	return true
}

func (s *Scheduler) resort() {
	sort.SliceStable(s.order, func(i, j int) bool {
		return s.order[i].RolledInitiative() > s.order[j].RolledInitiative()
	})
}

func (s *Scheduler) purgeDead() {
	for i := 0; i < len(s.order); {
		if s.order[i].IsTargetable() {
			i++
			continue
		}
		s.order = append(s.order[:i], s.order[i+1:]...)
		if i < s.index {
			s.index--
		}
	}
	if s.index >= len(s.order) {
		s.index = 0
	}
}

// judge ends the battle when one side has nobody left in the queue.
func (s *Scheduler) judge() bool {
	if s.state == StateBattleOver {
		return true
	}
	if len(s.order) == 0 {
		s.stall("empty turn queue")
		return true
	}
	players, enemies := 0, 0
	for _, c := range s.order {
		if !c.IsTargetable() {
			continue
		}
		if c.Kind == KindPlayer {
			players++
		} else {
			enemies++
		}
	}
	switch {
	case enemies == 0:
		s.finish(ResultVictory)
		return true
	case players == 0:
		s.finish(ResultDefeat)
		return true
	}
	return false
}

func (s *Scheduler) othersAlive(c *Combatant) bool {
	for _, o := range s.order {
		if o != c && o.IsTargetable() {
			return true
		}
	}
	return false
}

func (s *Scheduler) indexOf(c *Combatant) int {
	for i, o := range s.order {
		if o == c {
			return i
		}
	}
	return -1
}

func (s *Scheduler) stall(reason string) {
	s.logger.Error("turn scheduler stalled", zap.String("reason", reason), zap.Int("round", s.round))
	s.finish(ResultStalled)
}

func (s *Scheduler) finish(r BattleResult) {
	s.state = StateBattleOver
	s.result = r
	s.pending = false
	s.logger.Info("battle over", zap.Stringer("result", r), zap.Int("rounds", s.round))
	for _, fn := range s.onOver {
		fn(r)
	}
}
