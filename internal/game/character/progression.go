package character

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/ruleset"
)

// XPPerLevel scales the level-up threshold: leaving level L costs L×XPPerLevel.
const XPPerLevel = 100

// Progression applies experience to tracked characters and levels them up.
// It implements combat.XPAwarder.
type Progression struct {
	reg    *ruleset.Registry
	sink   combat.Sink
	logger *zap.Logger
	chars  map[string]*Character
}

// NewProgression creates a Progression over reg. sink and logger may be nil.
//
// Precondition: reg must not be nil.
func NewProgression(reg *ruleset.Registry, sink combat.Sink, logger *zap.Logger) *Progression {
	if sink == nil {
		sink = combat.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Progression{reg: reg, sink: sink, logger: logger, chars: make(map[string]*Character)}
}

// Track associates the combatant built for ch.
func (p *Progression) Track(ch *Character, c *combat.Combatant) {
	p.chars[c.ID] = ch
}

// Character returns the definition tracked for combatant id.
func (p *Progression) Character(id string) (*Character, bool) {
	ch, ok := p.chars[id]
	return ch, ok
}

// Award adds xp to c and applies every level-up it crosses.
//
// Postcondition: for tracked combatants, Experience < XPToNext(Level) and
// c mirrors the character's level and experience.
func (p *Progression) Award(c *combat.Combatant, xp int) {
	if xp <= 0 {
		return
	}
	ch, ok := p.chars[c.ID]
	if !ok {
		c.Experience += xp
		return
	}
	ch.Experience += xp
	for ch.Experience >= XPToNext(ch.Level) {
		ch.Experience -= XPToNext(ch.Level)
		ch.Level++
		p.levelUp(ch, c)
	}
	c.Experience = ch.Experience
}

func (p *Progression) levelUp(ch *Character, c *combat.Combatant) {
	t, err := Lookup(ch, p.reg)
	if err != nil {
		p.logger.Error("level up skipped stat recompute", zap.String("character", ch.Name), zap.Error(err))
		c.Level = ch.Level
		return
	}
	s := Derive(ch, t)
	c.Progress(ch.Level, stats(ch, s, c.Abilities, nil))
	p.sink.Emit(combat.Event{
		Type:    combat.EventLevelUp,
		Time:    time.Now(),
		ActorID: c.ID,
		Amount:  ch.Level,
		Detail:  ch.Class,
	})
	p.logger.Info("character leveled up",
		zap.String("character", ch.Name),
		zap.Int("level", ch.Level),
		zap.Int("max_health", s.MaxHealth),
	)
}
