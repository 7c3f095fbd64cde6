package battle

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tactics/internal/game/ai"
	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/scripting"
)

// HookAbilityResolved is the Lua function called after every committed
// ability with (caster_id, ability_id, damage, healed, killed).
const HookAbilityResolved = "on_ability_resolved"

// participants returns every combatant in b: party members, then enemies.
func participants(b *combat.Battle) []*combat.Combatant {
	return append(b.Party().Members(), b.Enemies()...)
}

func find(b *combat.Battle, id string) *combat.Combatant {
	for _, c := range participants(b) {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func infoOf(c *combat.Combatant) scripting.CombatantInfo {
	info := scripting.CombatantInfo{
		ID:    c.ID,
		Name:  c.Name,
		Kind:  c.Kind.String(),
		HP:    c.Health(),
		MaxHP: c.MaxHealth(),
		AC:    c.AC(),
		X:     c.Position.X,
		Y:     c.Position.Y,
		Dead:  !c.IsTargetable(),
	}
	for _, a := range c.Status.All() {
		info.Conditions = append(info.Conditions, string(a.Def.ID))
	}
	return info
}

// Bridge points the engine.combat Lua module at b.
func Bridge(m *scripting.Manager, b *combat.Battle) {
	m.GetCombatant = func(id string) *scripting.CombatantInfo {
		c := find(b, id)
		if c == nil {
			return nil
		}
		info := infoOf(c)
		return &info
	}
	m.ListCombatants = func() []scripting.CombatantInfo {
		all := participants(b)
		out := make([]scripting.CombatantInfo, 0, len(all))
		for _, c := range all {
			out = append(out, infoOf(c))
		}
		return out
	}
	m.CurrentRound = b.Round
}

// ScriptHook forwards every committed ability to the on_ability_resolved Lua
// hook. It implements combat.Hook.
type ScriptHook struct {
	caller ai.ScriptCaller
	scope  string
	lookup func(id string) *combat.Combatant
	logger *zap.Logger
}

// NewScriptHook creates a ScriptHook resolving hit targets through b.
func NewScriptHook(caller ai.ScriptCaller, scope string, b *combat.Battle, logger *zap.Logger) *ScriptHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScriptHook{
		caller: caller,
		scope:  scope,
		lookup: func(id string) *combat.Combatant { return find(b, id) },
		logger: logger,
	}
}

// AfterAbility implements combat.Hook.
func (h *ScriptHook) AfterAbility(_ context.Context, caster *combat.Combatant, a *combat.Ability, out combat.Outcome) {
	healed := 0
	for _, x := range out.Heals {
		healed += x.Amount
	}
	killed := 0
	seen := map[string]bool{}
	for _, hit := range out.Hits {
		if seen[hit.TargetID] {
			continue
		}
		seen[hit.TargetID] = true
		if t := h.lookup(hit.TargetID); t != nil && t.IsDead() {
			killed++
		}
	}
	_, err := h.caller.CallHook(h.scope, HookAbilityResolved,
		lua.LString(caster.ID),
		lua.LString(a.ID),
		lua.LNumber(out.TotalDamage()),
		lua.LNumber(healed),
		lua.LNumber(killed),
	)
	if err != nil {
		h.logger.Warn("ability hook failed", zap.String("ability", a.ID), zap.Error(err))
	}
}
