package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
)

// Arena is the battle surface a Controller plays against.
type Arena interface {
	combat.Roster
	Execute(ctx context.Context, req combat.Request) (combat.Outcome, error)
	Check(req combat.Request) combat.Failure
	Round() int
}

// ControllerConfig tunes movement. Zero fields take defaults.
type ControllerConfig struct {
	Pacer combat.Pacer
	// MoveSpeed is in distance units per second of pacing.
	MoveSpeed float64
	// ChaseMaxTime bounds the pacing wait for one move.
	ChaseMaxTime time.Duration
	// ChaseMaxDistance is how far the target may be after moving before the
	// combatant gives up the chase for this turn. A target the chosen ability
	// already reaches is never given up.
	ChaseMaxDistance float64
	Logger           *zap.Logger
}

const (
	defaultMoveSpeed        = 4.0
	defaultChaseMaxTime     = 2 * time.Second
	defaultChaseMaxDistance = 8.0
)

// Controller plays whole turns for combatants the scheduler drives. It
// implements combat.EnemyController.
type Controller struct {
	arena    Arena
	registry *Registry
	cfg      ControllerConfig
	logger   *zap.Logger
	assigned map[string]*Policy
}

// NewController binds a Controller to arena. Combatants without an assigned
// profile use the registry's default policy.
//
// Precondition: arena and registry must not be nil.
func NewController(arena Arena, registry *Registry, cfg ControllerConfig) *Controller {
	if arena == nil || registry == nil {
		panic("ai.NewController: arena and registry must not be nil")
	}
	if cfg.Pacer == nil {
		cfg.Pacer = combat.NoDelay{}
	}
	if cfg.MoveSpeed <= 0 {
		cfg.MoveSpeed = defaultMoveSpeed
	}
	if cfg.ChaseMaxTime <= 0 {
		cfg.ChaseMaxTime = defaultChaseMaxTime
	}
	if cfg.ChaseMaxDistance <= 0 {
		cfg.ChaseMaxDistance = defaultChaseMaxDistance
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		arena:    arena,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		assigned: make(map[string]*Policy),
	}
}

// Assign gives combatantID the policy registered for profileID. An empty
// profileID selects the default.
func (c *Controller) Assign(combatantID, profileID string) error {
	if profileID == "" {
		profileID = DefaultProfileID
	}
	p, ok := c.registry.PolicyFor(profileID)
	if !ok {
		return fmt.Errorf("ai.Controller: unknown profile %q for %s", profileID, combatantID)
	}
	c.assigned[combatantID] = p
	return nil
}

// PolicyOf returns the policy that drives self.
func (c *Controller) PolicyOf(self *combat.Combatant) *Policy {
	if p, ok := c.assigned[self.ID]; ok {
		return p
	}
	return c.registry.Default()
}

// TakeTurn implements combat.EnemyController.
//
// Postcondition: at most one ability is executed; movement spent never
// exceeds the budget.
func (c *Controller) TakeTurn(ctx context.Context, self *combat.Combatant) error {
	if self.IsDead() {
		return nil
	}
	pol := c.PolicyOf(self)
	self.RefillMovement()

	ws := BuildWorldState(c.arena, self, c.arena.Round())
	target := c.pickTarget(self, ws)
	if target == nil {
		c.logger.Debug("ai has no target", zap.String("combatant", self.ID))
		return nil
	}
	self.Face(target.Position)

	dist := combat.Distance(self.Position, target.Position)
	ability := pol.ChooseAbility(self, self.Abilities, dist)

	if err := c.move(ctx, self, target, ability, dist); err != nil {
		return err
	}

	// Retarget: the move may have brought someone else closer.
	ws = BuildWorldState(c.arena, self, c.arena.Round())
	if t := c.pickTarget(self, ws); t != nil {
		target = t
	}
	dist = combat.Distance(self.Position, target.Position)
	inReach := ability != nil && ability.Reaches(dist)
	if limit := c.chaseLimit(pol); !inReach && dist > limit {
		c.logger.Info("ai gave up chase",
			zap.String("combatant", self.ID),
			zap.String("target", target.ID),
			zap.Float64("distance", dist),
			zap.Float64("limit", limit),
		)
		return nil
	}
	if ability == nil {
		return nil
	}

	req := c.request(self, ability, target, ws)
	if f := c.arena.Check(req); f != combat.FailureNone {
		c.logger.Debug("ai ends turn without acting",
			zap.String("combatant", self.ID),
			zap.String("ability", ability.ID),
			zap.Stringer("reason", f),
		)
		return nil
	}
	out, err := c.arena.Execute(ctx, req)
	if out.OK() {
		pol.RecordUse(self, ability)
	}
	return err
}

// pickTarget prefers the side's focus and falls back to the nearest opponent.
func (c *Controller) pickTarget(self *combat.Combatant, ws *WorldState) *combat.Combatant {
	if f := c.arena.Focus(self); f != nil && f.IsTargetable() {
		return f
	}
	n := ws.NearestEnemy()
	if n == nil {
		return nil
	}
	return c.byID(c.arena.Opponents(self), n.ID)
}

func (c *Controller) byID(cs []*combat.Combatant, id string) *combat.Combatant {
	for _, x := range cs {
		if x.ID == id {
			return x
		}
	}
	return nil
}

// move walks self toward target until the ability is in range, the budget
// runs out, or the two colliders touch.
func (c *Controller) move(ctx context.Context, self, target *combat.Combatant, ability *combat.Ability, dist float64) error {
	step := PlanMovement(dist, ability, self.Movement())
	contact := self.Radius + target.Radius
	step = math.Min(step, math.Max(0, dist-contact))
	if step <= 0 {
		return nil
	}
	wait := time.Duration(step / c.cfg.MoveSpeed * float64(time.Second))
	if wait > c.cfg.ChaseMaxTime {
		wait = c.cfg.ChaseMaxTime
	}
	if err := c.cfg.Pacer.Wait(ctx, wait); err != nil {
		return err
	}
	self.MoveToward(target.Position, step)
	self.SpendMovement(step)
	if self.Movement() <= 0 {
		self.ZeroMovement()
	}
	c.logger.Debug("ai moved",
		zap.String("combatant", self.ID),
		zap.Float64("step", step),
		zap.Float64("remaining", self.Movement()),
	)
	return nil
}

func (c *Controller) chaseLimit(pol *Policy) float64 {
	if d := pol.Profile().ChaseMaxDistance; d > 0 {
		return d
	}
	return c.cfg.ChaseMaxDistance
}

// request builds the engine request for ability.
func (c *Controller) request(self *combat.Combatant, ability *combat.Ability, target *combat.Combatant, ws *WorldState) combat.Request {
	req := combat.Request{Ability: ability, Caster: self}
	switch ability.Target {
	case combat.TargetSelf:
	case combat.TargetAlly:
		switch ability.Special {
		case combat.SpecialBless, combat.SpecialCloseWounds, combat.SpecialHealingSpirit:
			return req
		}
		if w := ws.WeakestAlly(); w != nil {
			if w.ID == self.ID {
				req.Target = self
			} else {
				req.Target = c.byID(c.arena.Allies(self), w.ID)
			}
		}
	default:
		req.Target = target
	}
	return req
}
