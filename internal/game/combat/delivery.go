package combat

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"
)

// knockbackStandoff keeps a pushed body short of the obstacle it hit.
const knockbackStandoff = 0.1

func (e *Engine) dispatch(ctx context.Context, req Request, out *Outcome) error {
	a := req.Ability
	switch a.Target {
	case TargetSelf:
		e.resolveSelf(req, out)
		return nil
	case TargetAlly:
		return e.resolveAlly(ctx, req, out)
	case TargetArea:
		e.resolveArea(ctx, req, out)
		return nil
	}
	switch a.Delivery {
	case DeliveryMelee:
		e.resolveMelee(req, out)
	case DeliveryProjectile:
		e.wait(ctx, e.tuning.TravelDelay)
		e.strikes(req, req.Target, a.Strikes, out)
	case DeliveryRay:
		e.resolveRay(ctx, req, out)
	case DeliveryArea:
		e.resolveArea(ctx, req, out)
	case DeliveryChain:
		e.resolveChain(ctx, req, out)
	default:
		e.resolveInstant(req, out)
	}
	return nil
}

func (e *Engine) resolveSelf(req Request, out *Outcome) {
	a, c := req.Ability, req.Caster
	switch a.Special {
	case SpecialSneak:
		c.startSneak(orDefault(a.StatusDuration, e.tuning.SneakRounds))
	case SpecialFancyFootwork:
		c.RefillMovement()
	case SpecialRestoreSlots:
		c.RestoreAllSpellSlots()
	case SpecialBarrier:
		ratio := a.BarrierReduction
		if ratio <= 0 {
			ratio = e.tuning.BarrierReduction
		}
		c.Status.ApplyBarrier(orDefault(a.StatusDuration, e.tuning.BarrierRounds), ratio)
	default:
		amount, roll := HealRoll(e.roller, a, c)
		e.logger.Debug("self heal", zap.String("caster", c.ID), zap.Int("roll", roll), zap.Int("amount", amount))
		e.heal(c, amount, out)
		return
	}
	e.cue(req, c)
}

func (e *Engine) resolveAlly(ctx context.Context, req Request, out *Outcome) error {
	a, c := req.Ability, req.Caster
	switch a.Special {
	case SpecialBless:
		c.Status.ApplyBless(orDefault(a.StatusDuration, e.tuning.BlessRounds))
		e.cue(req, c)
		return nil
	case SpecialCloseWounds:
		allies := e.roster.Allies(c)
		idx, err := e.prompter.ChooseAlly(ctx, c, allies)
		if err != nil {
			out.Fizzled = true
			return err
		}
		if idx < 0 || idx >= len(allies) || allies[idx] == nil || allies[idx].IsDead() {
			out.Fizzled = true
			emit(e.sink, Event{Type: EventValidationFailed, ActorID: c.ID, Ability: a.ID, Reason: FailureNoTarget.String()})
			return nil
		}
		e.heal(allies[idx], FlatHeal(e.roller, a, c), out)
		return nil
	case SpecialHealingSpirit:
		amount := FlatHeal(e.roller, a, c)
		for _, ally := range e.roster.Allies(c) {
			if ally != nil && !ally.IsDead() {
				e.heal(ally, amount, out)
			}
		}
		return nil
	default:
		amount, _ := HealRoll(e.roller, a, c)
		e.heal(req.Target, amount, out)
		return nil
	}
}

func (e *Engine) resolveMelee(req Request, out *Outcome) {
	a, c := req.Ability, req.Caster
	t := req.Target
	if t == nil {
		return
	}
	if a.Special != SpecialWideSlash {
		e.strikes(req, t, a.Strikes, out)
		return
	}
	facing := t.Position.Sub(c.Position)
	half := e.tuning.WideSlashArc / 2
	for _, o := range e.roster.Opponents(c) {
		if !o.IsTargetable() || Distance(c.Position, o.Position) > a.Range+rangeEpsilon {
			continue
		}
		if o != t && angleBetween(facing, o.Position.Sub(c.Position)) > half {
			continue
		}
		e.strikes(req, o, a.Strikes, out)
	}
}

type rayHit struct {
	target *Combatant
	along  float64
}

func (e *Engine) resolveRay(ctx context.Context, req Request, out *Outcome) {
	a, c := req.Ability, req.Caster
	aim := Vec2{}
	if req.Target != nil {
		aim = req.Target.Position
	} else if req.Point != nil {
		aim = *req.Point
	}
	dir := aim.Sub(c.Position).Normalize()
	if dir == (Vec2{}) {
		dir = c.Facing
	}
	c.Facing = dir
	end := c.Position.Add(dir.Scale(a.Range))

	var hits []rayHit
	for _, o := range e.roster.Opponents(c) {
		d, along := distanceToSegment(o.Position, c.Position, end)
		if d <= o.Radius+rangeEpsilon {
			hits = append(hits, rayHit{target: o, along: along})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].along < hits[j].along })
	e.wait(ctx, e.tuning.TravelDelay)
	for _, h := range hits {
		e.strikes(req, h.target, a.Strikes, out)
	}
}

func (e *Engine) resolveArea(ctx context.Context, req Request, out *Outcome) {
	a, c := req.Ability, req.Caster
	e.wait(ctx, e.tuning.TravelDelay)
	if c.Kind == KindEnemy {
		if f := e.roster.Focus(c); f != nil && f.IsTargetable() {
			e.strikes(req, f, a.Strikes, out)
		}
		return
	}
	var center Vec2
	switch {
	case req.Target != nil:
		center = req.Target.Position
	case req.Point != nil:
		center = *req.Point
	default:
		return
	}
	for _, o := range e.roster.Opponents(c) {
		if Distance(center, o.Position) <= a.AreaRadius+o.Radius+rangeEpsilon {
			e.strikes(req, o, a.Strikes, out)
		}
	}
}

func (e *Engine) resolveChain(ctx context.Context, req Request, out *Outcome) {
	a, c := req.Ability, req.Caster
	limit := a.Strikes
	if limit <= 0 {
		limit = 3
	}
	hit := make(map[*Combatant]bool, limit)
	cur := req.Target
	for n := 0; n < limit && cur != nil; n++ {
		if n > 0 {
			e.wait(ctx, e.tuning.TravelDelay)
		}
		e.strikes(req, cur, 1, out)
		hit[cur] = true
		cur = nearestWithin(cur.Position, e.roster.Opponents(c), a.Range, hit)
	}
}

func (e *Engine) resolveInstant(req Request, out *Outcome) {
	a, c, t := req.Ability, req.Caster, req.Target
	switch a.Special {
	case SpecialSneakAttack:
		e.strikes(req, t, 2, out)
		c.endSneak()
	case SpecialDashAttack:
		e.teleportPast(c, t, e.tuning.DashDistance)
		e.strikes(req, t, a.Strikes, out)
	case SpecialShadowStep:
		e.teleportPast(c, t, -e.tuning.ShadowStepDistance)
		e.cue(req, c)
	default:
		e.strikes(req, t, a.Strikes, out)
	}
}

// teleportPast moves c to dist beyond t on the line from c through t. A
// negative dist stops short of t on the approach side.
func (e *Engine) teleportPast(c, t *Combatant, dist float64) {
	dir := t.Position.Sub(c.Position).Normalize()
	if dir == (Vec2{}) {
		dir = c.Facing
	}
	c.Position = t.Position.Add(dir.Scale(dist))
	c.Face(t.Position)
}

// strikes resolves n attacks of req.Ability against t, stopping once t dies.
func (e *Engine) strikes(req Request, t *Combatant, n int, out *Outcome) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n && t != nil && t.IsTargetable(); i++ {
		e.strike(req, t, out)
	}
}

func (e *Engine) strike(req Request, t *Combatant, out *Outcome) {
	a, c := req.Ability, req.Caster
	c.Face(t.Position)
	atk := ResolveAttack(e.roller, a, c, t.AC())
	dmg := atk.Damage
	if c.Kind == KindEnemy {
		dmg = int(math.Floor(float64(dmg) * e.tuning.EnemyDamageMultiplier))
	}
	res := t.TakeDamage(dmg, atk.Crit, atk.Miss)
	out.Hits = append(out.Hits, Hit{TargetID: t.ID, Attack: atk, Dealt: res.Dealt})
	if !atk.Hit || res.Immune || res.Ignored {
		return
	}
	if a.Special == SpecialLifeDrain {
		e.heal(c, int(math.Floor(float64(dmg)*e.tuning.LifeDrainRatio)), out)
	}
	if a.Effect != EffectNone {
		e.cue(req, t)
	}
	if a.Effect == EffectKnockback && t.IsTargetable() {
		e.knockback(c, t)
	}
}

// knockback pushes t away from c, stopping short of any obstacle.
func (e *Engine) knockback(c, t *Combatant) {
	dir := t.Position.Sub(c.Position).Normalize()
	if dir == (Vec2{}) {
		dir = c.Facing
	}
	push := e.tuning.KnockbackDistance
	if clear := e.terrain.Clearance(t.Position, dir, push); clear < push {
		push = math.Max(0, clear-knockbackStandoff)
	}
	t.Position = t.Position.Add(dir.Scale(push))
}

func (e *Engine) heal(t *Combatant, amount int, out *Outcome) {
	if t == nil {
		return
	}
	if n := t.Heal(amount); n > 0 {
		out.Heals = append(out.Heals, Heal{TargetID: t.ID, Amount: n})
	}
}

func (e *Engine) cue(req Request, at *Combatant) {
	a := req.Ability
	detail := a.Effect.String()
	if a.Effect == EffectNone && a.Special != "" {
		detail = a.Special
	}
	emit(e.sink, Event{Type: EventCue, ActorID: req.Caster.ID, TargetID: at.ID, Ability: a.ID, Detail: detail})
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
