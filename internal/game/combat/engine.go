package combat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// rangeEpsilon absorbs float error in range comparisons.
const rangeEpsilon = 1e-9

// Tuning holds the numeric knobs of ability resolution.
type Tuning struct {
	EnemyDamageMultiplier float64
	KnockbackDistance     float64
	DashDistance          float64
	ShadowStepDistance    float64
	LifeDrainRatio        float64
	BarrierRounds         int
	BarrierReduction      float64
	SneakRounds           int
	BlessRounds           int
	// WideSlashArc is the full cone angle in degrees.
	WideSlashArc float64
	CastDelay    time.Duration
	TravelDelay  time.Duration
	HitPause     time.Duration
}

// DefaultTuning returns the stock values.
func DefaultTuning() Tuning {
	return Tuning{
		EnemyDamageMultiplier: 0.5,
		KnockbackDistance:     3.5,
		DashDistance:          10,
		ShadowStepDistance:    1.5,
		LifeDrainRatio:        0.4,
		BarrierRounds:         3,
		BarrierReduction:      0.5,
		SneakRounds:           2,
		BlessRounds:           3,
		WideSlashArc:          120,
		CastDelay:             300 * time.Millisecond,
		TravelDelay:           400 * time.Millisecond,
		HitPause:              250 * time.Millisecond,
	}
}

// Roster answers who is on which side of the battle.
type Roster interface {
	// Current returns the combatant whose turn it is, or nil.
	Current() *Combatant
	// Opponents returns the living combatants hostile to of.
	Opponents(of *Combatant) []*Combatant
	// Allies returns of's side. For players this is the party in slot order,
	// dead members included.
	Allies(of *Combatant) []*Combatant
	// Focus returns the opponent of's side is engaging: the party's active
	// member for enemies.
	Focus(of *Combatant) *Combatant
}

// Prompter asks the controlling side to pick an ally for a prompted ability.
// It may block until the choice arrives.
type Prompter interface {
	ChooseAlly(ctx context.Context, caster *Combatant, allies []*Combatant) (int, error)
}

// AutoPrompter picks the living ally missing the most health.
type AutoPrompter struct{}

// ChooseAlly returns the index of the most wounded living ally, or -1.
func (AutoPrompter) ChooseAlly(_ context.Context, _ *Combatant, allies []*Combatant) (int, error) {
	best, missing := -1, -1
	for i, a := range allies {
		if a == nil || a.IsDead() {
			continue
		}
		if m := a.MaxHealth() - a.Health(); m > missing {
			best, missing = i, m
		}
	}
	return best, nil
}

// Hook observes resolved abilities.
type Hook interface {
	AfterAbility(ctx context.Context, caster *Combatant, a *Ability, out Outcome)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, caster *Combatant, a *Ability, out Outcome)

// AfterAbility calls f.
func (f HookFunc) AfterAbility(ctx context.Context, caster *Combatant, a *Ability, out Outcome) {
	f(ctx, caster, a, out)
}

// EngineConfig carries the Engine's collaborators. Only Roller is required.
type EngineConfig struct {
	Roller   *dice.Roller
	Logger   *zap.Logger
	Sink     Sink
	Pacer    Pacer
	Prompter Prompter
	Terrain  Terrain
	Tuning   Tuning
	Hooks    []Hook
}

// Request is one attempt to use an ability.
type Request struct {
	Ability *Ability
	Caster  *Combatant
	// Target is the locked target, if any.
	Target *Combatant
	// Point is a ground location for area and ray abilities.
	Point *Vec2
}

// Engine validates and resolves abilities against a Roster.
type Engine struct {
	roller   *dice.Roller
	logger   *zap.Logger
	sink     Sink
	pacer    Pacer
	prompter Prompter
	terrain  Terrain
	tuning   Tuning
	hooks    []Hook
	roster   Roster
}

// NewEngine creates an Engine bound to roster.
//
// Precondition: cfg.Roller and roster must be non-nil.
func NewEngine(cfg EngineConfig, roster Roster) *Engine {
	if cfg.Roller == nil {
		panic("combat.NewEngine: roller must not be nil")
	}
	if roster == nil {
		panic("combat.NewEngine: roster must not be nil")
	}
	e := &Engine{
		roller:   cfg.Roller,
		logger:   cfg.Logger,
		sink:     cfg.Sink,
		pacer:    cfg.Pacer,
		prompter: cfg.Prompter,
		terrain:  cfg.Terrain,
		tuning:   cfg.Tuning,
		hooks:    cfg.Hooks,
		roster:   roster,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.sink == nil {
		e.sink = NopSink{}
	}
	if e.pacer == nil {
		e.pacer = NoDelay{}
	}
	if e.prompter == nil {
		e.prompter = AutoPrompter{}
	}
	if e.terrain == nil {
		e.terrain = OpenField{}
	}
	if e.tuning == (Tuning{}) {
		e.tuning = DefaultTuning()
	}
	return e
}

// Tuning returns the engine's tuning values.
func (e *Engine) Tuning() Tuning { return e.tuning }

// AddHook appends h to the post-resolution hooks.
func (e *Engine) AddHook(h Hook) {
	if h != nil {
		e.hooks = append(e.hooks, h)
	}
}

// Execute validates req and, when every precondition holds, commits the cost
// and resolves the ability.
//
// A failed precondition is reported in Outcome.Failure with all state
// untouched. The error return is reserved for cancellation before commit and
// for Prompter failures; once committed the ability runs to completion.
func (e *Engine) Execute(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{Failure: FailureInvalidActor}
	if req.Ability == nil || req.Caster == nil {
		e.reject(req, &out)
		return out, nil
	}
	out = Outcome{Ability: req.Ability.ID, CasterID: req.Caster.ID}

	resolved, f := e.validate(req)
	if f != FailureNone {
		out.Failure = f
		e.reject(req, &out)
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	req = resolved
	a, c := req.Ability, req.Caster

	c.ConsumeActionType(a.Action)
	if a.UsesSpellSlot {
		c.SpendSpellSlots(a.SpellLevel, a.SlotCost)
	}
	ev := Event{Type: EventAbilityUsed, ActorID: c.ID, Ability: a.ID}
	if req.Target != nil {
		ev.TargetID = req.Target.ID
	}
	emit(e.sink, ev)
	// Counted at commit: a killing blow can end the battle, which resets the
	// per-battle counters, before dispatch returns.
	a.recordUse()
	e.wait(ctx, e.tuning.CastDelay)

	err := e.dispatch(ctx, req, &out)

	e.wait(ctx, e.tuning.HitPause)
	for _, h := range e.hooks {
		h.AfterAbility(ctx, c, a, out)
	}
	return out, err
}

// Check runs the preconditions without side effects.
func (e *Engine) Check(req Request) Failure {
	if req.Ability == nil || req.Caster == nil {
		return FailureInvalidActor
	}
	_, f := e.validate(req)
	return f
}

func (e *Engine) reject(req Request, out *Outcome) {
	ev := Event{Type: EventValidationFailed, Ability: out.Ability, ActorID: out.CasterID, Reason: out.Failure.String()}
	if req.Target != nil {
		ev.TargetID = req.Target.ID
	}
	emit(e.sink, ev)
	e.logger.Debug("ability rejected",
		zap.String("ability", out.Ability),
		zap.String("caster", out.CasterID),
		zap.Stringer("reason", out.Failure),
	)
}

// wait suspends at a pacing point. Cancellation only shortens the wait.
func (e *Engine) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	if err := e.pacer.Wait(ctx, d); err != nil {
		e.logger.Debug("pacing wait interrupted", zap.Error(err))
	}
}

// validate checks the preconditions in order and returns req with any
// fallback target filled in.
func (e *Engine) validate(req Request) (Request, Failure) {
	a, c := req.Ability, req.Caster
	if c.IsDead() || !c.IsTargetable() || e.roster.Current() != c {
		return req, FailureInvalidActor
	}
	if c.IsSneaking() && a.Special != SpecialSneakAttack {
		return req, FailureInvalidActor
	}
	if condition.RestrictsSpecial(c.Status, a.Special) {
		return req, FailureInvalidActor
	}
	if a.Special == SpecialSneakAttack && !c.Status.Has(condition.KindSneak) {
		return req, FailureInvalidActor
	}
	if !c.CanUseActionType(a.Action) {
		return req, FailureNoActionAvailable
	}
	if a.BattleExhausted() || a.LifetimeExhausted() {
		return req, FailureNoUsesLeft
	}
	req, f := e.checkTarget(req)
	if f != FailureNone {
		return req, f
	}
	if !a.affordable(c) {
		return req, FailureNoSpellSlots
	}
	return req, FailureNone
}

func (e *Engine) checkTarget(req Request) (Request, Failure) {
	a, c := req.Ability, req.Caster
	switch a.Target {
	case TargetSelf:
		return req, FailureNone
	case TargetAlly:
		switch a.Special {
		case SpecialBless, SpecialCloseWounds, SpecialHealingSpirit:
			return req, FailureNone
		}
		if req.Target == nil || req.Target.Kind != c.Kind {
			return req, FailureNoTarget
		}
		return req, inRange(c, req.Target, a.Range)
	case TargetArea:
		return req, e.checkArea(req)
	}

	if req.Target != nil && req.Target.Kind == c.Kind {
		return req, FailureNoTarget
	}
	switch a.Delivery {
	case DeliveryMelee:
		if req.Target != nil && inRange(c, req.Target, a.Range) == FailureNone {
			return req, FailureNone
		}
		opp := e.roster.Opponents(c)
		if len(opp) == 0 {
			return req, FailureNoTarget
		}
		n := nearestWithin(c.Position, opp, a.Range, nil)
		if n == nil {
			return req, FailureOutOfRange
		}
		req.Target = n
		return req, FailureNone
	case DeliveryArea:
		return req, e.checkArea(req)
	case DeliveryRay:
		if req.Target == nil && req.Point != nil {
			return req, FailureNone
		}
		return req, inRange(c, req.Target, a.Range)
	default:
		return req, inRange(c, req.Target, a.Range)
	}
}

func (e *Engine) checkArea(req Request) Failure {
	a, c := req.Ability, req.Caster
	if req.Target != nil {
		return inRange(c, req.Target, a.Range)
	}
	if req.Point == nil {
		return FailureNoTarget
	}
	if Distance(c.Position, *req.Point) > a.Range+rangeEpsilon {
		return FailureOutOfRange
	}
	return FailureNone
}

func inRange(c, t *Combatant, r float64) Failure {
	if t == nil || !t.IsTargetable() {
		return FailureNoTarget
	}
	if Distance(c.Position, t.Position) > r+rangeEpsilon {
		return FailureOutOfRange
	}
	return FailureNone
}

// nearestWithin returns the closest targetable candidate within r of p that
// skip does not exclude, or nil.
func nearestWithin(p Vec2, candidates []*Combatant, r float64, skip map[*Combatant]bool) *Combatant {
	var best *Combatant
	bestDist := r + rangeEpsilon
	for _, o := range candidates {
		if o == nil || !o.IsTargetable() || skip[o] {
			continue
		}
		if d := Distance(p, o.Position); d <= bestDist && (best == nil || d < bestDist) {
			best, bestDist = o, d
		}
	}
	return best
}
