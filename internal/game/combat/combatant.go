package combat

import (
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tactics/internal/game/condition"
	"github.com/cory-johannsen/tactics/internal/game/dice"
)

// DefaultRadius is the collider radius used when Stats.Radius is zero.
const DefaultRadius = 0.5

// SlotPool is one spell-slot level's current and maximum count.
//
// Invariant: 0 <= Current <= Max.
type SlotPool struct {
	Current int
	Max     int
}

// Stats seeds a new Combatant. Builders in the character and npc packages
// derive these values from their tables.
type Stats struct {
	ID          string
	Name        string
	Kind        Kind
	Tag         string
	Level       int
	Scores      AbilityScores
	MaxHealth   int
	AC          int
	MaxMovement float64
	Initiative  int
	// SlotMax holds the maximum slot counts for levels 1 and 2.
	SlotMax    [2]int
	Abilities  []*Ability
	Position   Vec2
	Radius     float64
	XPReward   int
	Experience int
	Conditions *condition.Registry
}

// Combatant is a player character or an enemy. Both variants share one
// capability set (health, armor class, movement, initiative, slot casting)
// and differ only where Kind is consulted explicitly.
//
// Invariant: 0 <= Health() <= MaxHealth(); every slot pool satisfies
// 0 <= Current <= Max.
type Combatant struct {
	ID    string
	Name  string
	Kind  Kind
	Tag   string
	Level int

	Scores     AbilityScores
	Abilities  []*Ability
	Status     *condition.Tracker
	Position   Vec2
	Facing     Vec2
	Radius     float64
	XPReward   int
	Experience int

	health      int
	maxHealth   int
	ac          int
	movement    float64
	maxMovement float64

	initiative       int
	rolledInitiative int
	rolled           bool

	hasAction         bool
	hasBonusAction    bool
	switchedThisRound bool
	sneaking          bool
	immune            bool

	slots [2]SlotPool

	// active is false once the combatant has died; it is no longer targetable.
	active    bool
	sink      Sink
	observers []func(*Combatant)
}

// NewCombatant creates a combatant at full health with a fresh action
// economy. An empty ID is replaced with a random UUID.
//
// Postcondition: Health() == MaxHealth() >= 1 and every slot pool is full.
func NewCombatant(s Stats) *Combatant {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.MaxHealth < 1 {
		s.MaxHealth = 1
	}
	if s.Radius <= 0 {
		s.Radius = DefaultRadius
	}
	if s.Level < 1 {
		s.Level = 1
	}
	c := &Combatant{
		ID:          s.ID,
		Name:        s.Name,
		Kind:        s.Kind,
		Tag:         s.Tag,
		Level:       s.Level,
		Scores:      s.Scores,
		Abilities:   s.Abilities,
		Status:      condition.NewTracker(s.Conditions),
		Position:    s.Position,
		Facing:      Vec2{X: 1},
		Radius:      s.Radius,
		XPReward:    s.XPReward,
		Experience:  s.Experience,
		health:      s.MaxHealth,
		maxHealth:   s.MaxHealth,
		ac:          s.AC,
		movement:    s.MaxMovement,
		maxMovement: s.MaxMovement,
		initiative:  s.Initiative,
		active:      true,
		sink:        NopSink{},
	}
	for i := range c.slots {
		m := max(0, s.SlotMax[i])
		c.slots[i] = SlotPool{Current: m, Max: m}
	}
	c.ResetTurnActions()
	return c
}

// Health returns current health.
func (c *Combatant) Health() int { return c.health }

// MaxHealth returns maximum health.
func (c *Combatant) MaxHealth() int { return c.maxHealth }

// AC returns armor class.
func (c *Combatant) AC() int { return c.ac }

// Movement returns the remaining movement budget for this turn.
func (c *Combatant) Movement() float64 { return c.movement }

// MaxMovement returns the full per-turn movement budget.
func (c *Combatant) MaxMovement() float64 { return c.maxMovement }

// Initiative returns the initiative score before the d20.
func (c *Combatant) Initiative() int { return c.initiative }

// RolledInitiative returns score + d20 from the last roll.
func (c *Combatant) RolledInitiative() int { return c.rolledInitiative }

// IsDead reports whether health has reached zero.
func (c *Combatant) IsDead() bool { return c.health <= 0 }

// IsTargetable reports whether the combatant may still be harmed or chosen.
func (c *Combatant) IsTargetable() bool { return c.active && !c.IsDead() }

// HasAction reports the action flag.
func (c *Combatant) HasAction() bool { return c.hasAction }

// HasBonusAction reports the bonus-action flag.
func (c *Combatant) HasBonusAction() bool { return c.hasBonusAction }

// SwitchedThisRound reports whether the party swapped this member out this round.
func (c *Combatant) SwitchedThisRound() bool { return c.switchedThisRound }

// IsSneaking reports the sneaking flag.
func (c *Combatant) IsSneaking() bool { return c.sneaking }

// IsImmune reports the immunity flag.
func (c *Combatant) IsImmune() bool { return c.immune }

// Slots returns the pool for spell level 1 or 2, or a zero pool.
func (c *Combatant) Slots(level int) SlotPool {
	if level < 1 || level > len(c.slots) {
		return SlotPool{}
	}
	return c.slots[level-1]
}

// Modifier returns the derived modifier for attr.
func (c *Combatant) Modifier(attr Attribute) int {
	return c.Scores.Modifier(attr)
}

// SetSink routes this combatant's damage, heal and death notifications.
func (c *Combatant) SetSink(s Sink) {
	if s == nil {
		s = NopSink{}
	}
	c.sink = s
}

// OnDeath registers fn to run, in registration order, when health reaches 0.
func (c *Combatant) OnDeath(fn func(*Combatant)) {
	c.observers = append(c.observers, fn)
}

// clearObservers drops death observers registered by a finished battle.
func (c *Combatant) clearObservers() {
	c.observers = nil
}

// CanUseActionType reports whether the flag for t is available. Free actions
// are always available.
func (c *Combatant) CanUseActionType(t ActionType) bool {
	switch t {
	case ActionStandard:
		return c.hasAction
	case ActionBonus:
		return c.hasBonusAction
	default:
		return true
	}
}

// ConsumeActionType clears the flag for t. Free actions cost nothing.
func (c *Combatant) ConsumeActionType(t ActionType) {
	switch t {
	case ActionStandard:
		c.hasAction = false
	case ActionBonus:
		c.hasBonusAction = false
	}
}

// HasSpellSlots reports whether cost slots of level are available.
//
// A cost or level <= 0 is a free cast. Levels above 2 have no pools: players
// can never pay them and enemies always can.
func (c *Combatant) HasSpellSlots(level, cost int) bool {
	if cost <= 0 || level <= 0 {
		return true
	}
	if level > len(c.slots) {
		return c.Kind == KindEnemy
	}
	return c.slots[level-1].Current >= cost
}

// SpendSpellSlots deducts cost slots of level, clamping at zero.
//
// Postcondition: Slots(level).Current >= 0.
func (c *Combatant) SpendSpellSlots(level, cost int) {
	if cost <= 0 || level <= 0 || level > len(c.slots) {
		return
	}
	p := &c.slots[level-1]
	p.Current = max(0, p.Current-cost)
}

// RestoreAllSpellSlots refills every pool.
func (c *Combatant) RestoreAllSpellSlots() {
	for i := range c.slots {
		c.slots[i].Current = c.slots[i].Max
	}
}

// ResetTurnActions restores the action and bonus-action flags and clears the
// switched flag. The scheduler calls it once at turn start.
func (c *Combatant) ResetTurnActions() {
	c.hasAction = true
	c.hasBonusAction = true
	c.switchedThisRound = false
}

// SpendMovement deducts up to d from the budget and returns what was spent.
func (c *Combatant) SpendMovement(d float64) float64 {
	if d <= 0 {
		return 0
	}
	spent := math.Min(d, c.movement)
	c.movement -= spent
	return spent
}

// RefillMovement restores the full movement budget.
func (c *Combatant) RefillMovement() { c.movement = c.maxMovement }

// ZeroMovement exhausts the movement budget.
func (c *Combatant) ZeroMovement() { c.movement = 0 }

// MoveToward moves up to dist along the straight line to dest, stopping at
// dest, and faces the direction of travel. The budget is not consulted.
func (c *Combatant) MoveToward(dest Vec2, dist float64) {
	delta := dest.Sub(c.Position)
	if delta.Len() == 0 || dist <= 0 {
		return
	}
	c.Facing = delta.Normalize()
	if dist >= delta.Len() {
		c.Position = dest
		return
	}
	c.Position = c.Position.Add(c.Facing.Scale(dist))
}

// Face turns toward p.
func (c *Combatant) Face(p Vec2) {
	if d := p.Sub(c.Position); d.Len() > 0 {
		c.Facing = d.Normalize()
	}
}

// DamageResult describes what TakeDamage did.
type DamageResult struct {
	Dealt   int
	Crit    bool
	Miss    bool
	Immune  bool
	Killed  bool
	Ignored bool
}

// TakeDamage applies an attack result.
//
// A dead or inactive combatant ignores it. An immune combatant and a miss
// each emit a zero-damage notification and change nothing. Otherwise an
// active barrier scales amount by (1 - ratio), rounded, and health drops,
// floored at zero. Reaching zero runs the death side effect.
//
// Postcondition: 0 <= Health() <= MaxHealth().
func (c *Combatant) TakeDamage(amount int, isCrit, isMiss bool) DamageResult {
	if !c.IsTargetable() {
		return DamageResult{Ignored: true}
	}
	if c.immune {
		emit(c.sink, Event{Type: EventDamageApplied, TargetID: c.ID, Immune: true, Crit: isCrit})
		return DamageResult{Immune: true, Crit: isCrit}
	}
	if isMiss {
		emit(c.sink, Event{Type: EventDamageApplied, TargetID: c.ID, Miss: true})
		return DamageResult{Miss: true}
	}
	if amount < 0 {
		amount = 0
	}
	if ratio, ok := c.Status.BarrierReduction(); ok {
		amount = int(math.RoundToEven(float64(amount) * (1 - ratio)))
	}
	dealt := min(amount, c.health)
	c.health -= dealt
	emit(c.sink, Event{Type: EventDamageApplied, TargetID: c.ID, Amount: dealt, Crit: isCrit})

	res := DamageResult{Dealt: dealt, Crit: isCrit}
	if c.health == 0 {
		res.Killed = true
		c.die()
	}
	return res
}

func (c *Combatant) die() {
	c.active = false
	c.sneaking = false
	c.immune = false
	c.Status.Clear()
	emit(c.sink, Event{Type: EventCombatantDied, TargetID: c.ID})
	for _, fn := range c.observers {
		fn(c)
	}
}

// Heal restores up to amount health and returns the amount restored. The
// dead cannot be healed.
//
// Postcondition: Health() <= MaxHealth().
func (c *Combatant) Heal(amount int) int {
	if c.IsDead() || amount <= 0 {
		return 0
	}
	healed := min(amount, c.maxHealth-c.health)
	c.health += healed
	emit(c.sink, Event{Type: EventHealApplied, TargetID: c.ID, Amount: healed})
	return healed
}

// Rest restores health, slots, movement and the action economy, clearing
// status effects. Party members rest between battles.
func (c *Combatant) Rest() {
	if c.IsDead() {
		return
	}
	c.health = c.maxHealth
	c.RestoreAllSpellSlots()
	c.RefillMovement()
	c.ResetTurnActions()
	c.clearStatus()
}

// Revive brings a dead combatant back with the given health.
func (c *Combatant) Revive(health int) {
	c.health = max(1, min(health, c.maxHealth))
	c.active = true
}

// Progress replaces the level-derived stats, keeping the same amount of
// missing health.
//
// Postcondition: invariants hold; slot pools are refilled to the new maxima.
func (c *Combatant) Progress(level int, s Stats) {
	missing := c.maxHealth - c.health
	c.Level = level
	c.maxHealth = max(1, s.MaxHealth)
	c.health = max(1, c.maxHealth-missing)
	c.ac = s.AC
	c.maxMovement = s.MaxMovement
	c.initiative = s.Initiative
	c.Scores = s.Scores
	for i := range c.slots {
		m := max(0, s.SlotMax[i])
		c.slots[i] = SlotPool{Current: m, Max: m}
	}
}

// startSneak sets the sneaking and immune flags.
func (c *Combatant) startSneak(rounds int) {
	c.Status.ApplySneak(rounds)
	c.sneaking = true
	c.immune = condition.GrantsImmunity(c.Status) || c.immune
}

// endSneak removes the sneak status and the immunity it granted.
func (c *Combatant) endSneak() {
	c.Status.Remove(condition.KindSneak)
	c.sneaking = false
	c.immune = false
}

func (c *Combatant) clearStatus() {
	c.Status.Clear()
	c.sneaking = false
	c.immune = false
}

// tickStatus advances status effects at turn start and returns the expired
// kinds. An expired sneak clears the sneaking and immune flags.
func (c *Combatant) tickStatus() []condition.Kind {
	expired := c.Status.Tick()
	for _, k := range expired {
		if k == condition.KindSneak {
			c.sneaking = false
			c.immune = false
		}
	}
	return expired
}

func (c *Combatant) rollInitiative(r *dice.Roller) int {
	c.rolledInitiative = c.initiative + r.D20()
	c.rolled = true
	return c.rolledInitiative
}

// forgetInitiative drops the rolled value so the next battle rolls afresh.
func (c *Combatant) forgetInitiative() {
	c.rolledInitiative, c.rolled = 0, false
}

// Snapshot is a read-only view for HUD rendering.
type Snapshot struct {
	ID               string
	Name             string
	Kind             Kind
	Health           int
	MaxHealth        int
	AC               int
	Movement         float64
	MaxMovement      float64
	Slots            [2]SlotPool
	HasAction        bool
	HasBonusAction   bool
	Sneaking         bool
	Immune           bool
	Position         Vec2
	RolledInitiative int
	Effects          []condition.Active
}

// Snapshot copies the current public state.
func (c *Combatant) Snapshot() Snapshot {
	return Snapshot{
		ID:               c.ID,
		Name:             c.Name,
		Kind:             c.Kind,
		Health:           c.health,
		MaxHealth:        c.maxHealth,
		AC:               c.ac,
		Movement:         c.movement,
		MaxMovement:      c.maxMovement,
		Slots:            c.slots,
		HasAction:        c.hasAction,
		HasBonusAction:   c.hasBonusAction,
		Sneaking:         c.sneaking,
		Immune:           c.immune,
		Position:         c.Position,
		RolledInitiative: c.rolledInitiative,
		Effects:          c.Status.All(),
	}
}
