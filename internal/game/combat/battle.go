package combat

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBattleStarted = errors.New("battle already started")
	ErrPartyWiped    = errors.New("party has no living members")
	ErrNoEnemies     = errors.New("battle has no living enemies")
)

// XPAwarder grants experience to a surviving party member after a victory.
type XPAwarder interface {
	Award(c *Combatant, xp int)
}

// BattleConfig carries a Battle's collaborators.
type BattleConfig struct {
	Engine      EngineConfig
	SafetyBound int
	MaxRounds   int
	Awarder     XPAwarder
}

// Battle owns one fight between a party and a set of enemies. It is the
// Roster the engine resolves against and wires deaths to the scheduler.
type Battle struct {
	ID string

	party   *Party
	enemies []*Combatant
	sched   *Scheduler
	engine  *Engine
	sink    Sink
	logger  *zap.Logger
	awarder XPAwarder

	// ctx is the context Start ran under. Death observers fire from inside
	// engine calls that carry no context of their own.
	ctx       context.Context
	started   bool
	ended     bool
	result    BattleResult
	killed    []*Combatant
	startedAt time.Time
	endedAt   time.Time
}

// NewBattle assembles a battle. cfg.Engine.Roller is required.
func NewBattle(cfg BattleConfig, party *Party, enemies []*Combatant) *Battle {
	if party == nil {
		panic("combat.NewBattle: party must not be nil")
	}
	b := &Battle{
		ID:      uuid.NewString(),
		party:   party,
		enemies: append([]*Combatant(nil), enemies...),
		sink:    cfg.Engine.Sink,
		logger:  cfg.Engine.Logger,
		awarder: cfg.Awarder,
	}
	if b.sink == nil {
		b.sink = NopSink{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.sched = NewScheduler(cfg.Engine.Roller, b.sink, b.logger, cfg.SafetyBound)
	b.sched.SetMaxRounds(cfg.MaxRounds)
	b.engine = NewEngine(cfg.Engine, b)
	return b
}

// Engine returns the battle's ability engine.
func (b *Battle) Engine() *Engine { return b.engine }

// Scheduler returns the battle's turn scheduler.
func (b *Battle) Scheduler() *Scheduler { return b.sched }

// Party returns the player side.
func (b *Battle) Party() *Party { return b.party }

// Enemies returns every enemy, dead ones included.
func (b *Battle) Enemies() []*Combatant {
	return append([]*Combatant(nil), b.enemies...)
}

// Result returns the outcome, or ResultNone while running.
func (b *Battle) Result() BattleResult { return b.result }

// Over reports whether the battle has ended.
func (b *Battle) Over() bool { return b.ended }

// StartedAt returns when Start ran.
func (b *Battle) StartedAt() time.Time { return b.startedAt }

// EndedAt returns when the battle ended.
func (b *Battle) EndedAt() time.Time { return b.endedAt }

// SetController installs the enemy controller.
func (b *Battle) SetController(c EnemyController) { b.sched.SetController(c) }

// SetPlayerController makes player turns run automatically.
func (b *Battle) SetPlayerController(c EnemyController) { b.sched.SetPlayerController(c) }

// Current implements Roster.
func (b *Battle) Current() *Combatant { return b.sched.Current() }

// Opponents implements Roster. Only the party's active member is on the
// field.
func (b *Battle) Opponents(of *Combatant) []*Combatant {
	if of.Kind == KindEnemy {
		if a := b.party.Active(); a.IsTargetable() {
			return []*Combatant{a}
		}
		return nil
	}
	return b.livingEnemies()
}

// Allies implements Roster.
func (b *Battle) Allies(of *Combatant) []*Combatant {
	if of.Kind == KindPlayer {
		return b.party.Members()
	}
	return b.livingEnemies()
}

// Focus implements Roster.
func (b *Battle) Focus(of *Combatant) *Combatant {
	if of.Kind == KindEnemy {
		if a := b.party.Active(); a.IsTargetable() {
			return a
		}
		return nil
	}
	return nearestWithin(of.Position, b.livingEnemies(), math.MaxFloat64, nil)
}

func (b *Battle) livingEnemies() []*Combatant {
	var out []*Combatant
	for _, e := range b.enemies {
		if e.IsTargetable() {
			out = append(out, e)
		}
	}
	return out
}

// Start wires death handling and rolls initiative. Controller-driven turns
// run before Start returns; it returns once a turn waits for player input
// or the battle is over.
func (b *Battle) Start(ctx context.Context) error {
	if b.started {
		return ErrBattleStarted
	}
	if b.party.Wiped() {
		return ErrPartyWiped
	}
	if len(b.livingEnemies()) == 0 {
		return ErrNoEnemies
	}
	b.started = true
	b.ctx = ctx
	b.startedAt = clock()

	if b.party.Active().IsDead() {
		b.party.SwitchToNextAlive()
	}
	for _, m := range b.party.members {
		m.SetSink(b.sink)
		m.OnDeath(b.playerDied)
	}
	for _, e := range b.enemies {
		e.SetSink(b.sink)
		e.OnDeath(b.enemyDied)
	}
	b.party.attach(b.sched, b.sink)
	b.sched.OnBattleOver(b.finish)

	b.logger.Info("battle started",
		zap.String("battle", b.ID),
		zap.Int("party", len(b.party.members)),
		zap.Int("enemies", len(b.enemies)),
	)
	b.sched.InitializeTurnOrder(ctx, []*Combatant{b.party.Active()}, b.enemies)
	return nil
}

// Execute resolves an ability for the current combatant.
func (b *Battle) Execute(ctx context.Context, req Request) (Outcome, error) {
	return b.engine.Execute(ctx, req)
}

// Check runs the engine preconditions for req without side effects.
func (b *Battle) Check(req Request) Failure { return b.engine.Check(req) }

// Round returns the current round number.
func (b *Battle) Round() int { return b.sched.Round() }

// EndTurn ends the current turn.
func (b *Battle) EndTurn(ctx context.Context) { b.sched.EndTurn(ctx) }

// End stops the battle externally.
func (b *Battle) End(result BattleResult) {
	if !b.started {
		return
	}
	b.sched.End(result)
}

// MarkEnemyKilled records c as killed in this battle.
func (b *Battle) MarkEnemyKilled(c *Combatant) {
	for _, k := range b.killed {
		if k == c {
			return
		}
	}
	b.killed = append(b.killed, c)
}

// Killed returns the enemies killed so far, in order of death.
func (b *Battle) Killed() []*Combatant {
	return append([]*Combatant(nil), b.killed...)
}

func (b *Battle) enemyDied(c *Combatant) {
	b.MarkEnemyKilled(c)
	b.sched.RemoveCombatant(b.ctx, c)
}

func (b *Battle) playerDied(c *Combatant) {
	if b.party.NotifyMemberDied(c) {
		return
	}
	b.sched.RemoveCombatant(b.ctx, c)
}

func (b *Battle) finish(r BattleResult) {
	if b.ended {
		return
	}
	b.ended = true
	b.result = r
	b.endedAt = clock()

	participants := append(b.party.Members(), b.enemies...)
	for _, c := range participants {
		for _, a := range c.Abilities {
			a.ResetBattleUses()
		}
		c.clearStatus()
		c.clearObservers()
		c.forgetInitiative()
	}
	b.party.detach()

	emit(b.sink, Event{Type: EventBattleEnded, Round: b.sched.Round(), Detail: r.String()})

	if r != ResultVictory || b.awarder == nil {
		return
	}
	xp := 0
	for _, k := range b.killed {
		xp += k.XPReward
	}
	if xp == 0 {
		return
	}
	for _, m := range b.party.Living() {
		b.awarder.Award(m, xp)
	}
}
