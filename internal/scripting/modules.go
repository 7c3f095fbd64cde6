package scripting

import (
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(expr) -> {total, dice, modifier} or nil
//	engine.dice.d20() -> n
//	engine.combat.get(id) -> combatant table or nil
//	engine.combat.list() -> array of combatant tables
//	engine.combat.distance(a, b) -> number or nil
//	engine.combat.round() -> n
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			m.logger.Warn("scripting: bad dice expression", zap.Error(err))
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		ds := L.NewTable()
		for _, d := range res.Dice {
			ds.Append(lua.LNumber(d))
		}
		L.SetField(t, "dice", ds)
		L.Push(t)
		return 1
	}))
	L.SetField(mod, "d20", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(m.roller.D20()))
		return 1
	}))
	return mod
}

func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetCombatant(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantTable(L, info))
		return 1
	}))
	L.SetField(mod, "list", L.NewFunction(func(L *lua.LState) int {
		t := L.NewTable()
		if m.ListCombatants != nil {
			for _, info := range m.ListCombatants() {
				t.Append(combatantTable(L, &info))
			}
		}
		L.Push(t)
		return 1
	}))
	L.SetField(mod, "distance", L.NewFunction(func(L *lua.LState) int {
		a, b := L.CheckString(1), L.CheckString(2)
		if m.GetCombatant == nil {
			L.Push(lua.LNil)
			return 1
		}
		ca, cb := m.GetCombatant(a), m.GetCombatant(b)
		if ca == nil || cb == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(math.Hypot(ca.X-cb.X, ca.Y-cb.Y)))
		return 1
	}))
	L.SetField(mod, "round", L.NewFunction(func(L *lua.LState) int {
		r := 0
		if m.CurrentRound != nil {
			r = m.CurrentRound()
		}
		L.Push(lua.LNumber(r))
		return 1
	}))
	return mod
}

func combatantTable(L *lua.LState, c *CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(c.ID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "kind", lua.LString(c.Kind))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "ac", lua.LNumber(c.AC))
	L.SetField(t, "x", lua.LNumber(c.X))
	L.SetField(t, "y", lua.LNumber(c.Y))
	L.SetField(t, "dead", lua.LBool(c.Dead))
	conds := L.NewTable()
	for _, id := range c.Conditions {
		conds.Append(lua.LString(id))
	}
	L.SetField(t, "conditions", conds)
	return t
}
