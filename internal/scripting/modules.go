package scripting

import (
	"context"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// CombatantInfo is a snapshot of a combatant passed to Lua.
type CombatantInfo struct {
	ID      string
	Name    string
	Faction string
	HP      int
	MaxHP   int
	AP      int
	MaxAP   int
	X, Y    int
	Dying   bool
	Dead    bool
}

// Engine is the game surface behind the engine module.
type Engine interface {
	Combatant(id string) (CombatantInfo, bool)
	// Hostiles returns the living hostiles viewerID can see, nearest first.
	Hostiles(viewerID string) []CombatantInfo
	StandardAttack(ctx context.Context, attackerID, targetID string) bool
	// SingleAttack attacks once with the main or off hand, animated on request.
	SingleAttack(ctx context.Context, attackerID, targetID string, offHand, animated bool) bool
	TouchAttack(ctx context.Context, attackerID, targetID string, ranged bool) bool
	Step(ctx context.Context, id string, x, y int) bool
}

// RegisterModules defines the engine global in L. When owner is non-empty the
// action functions (standard_attack, single_attack, touch_attack, step) are
// added and act on behalf of owner.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine.log, engine.dice and the query functions are defined.
func (m *Manager) RegisterModules(L *lua.LState, owner string) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))

	L.SetField(engine, "combatant", L.NewFunction(func(L *lua.LState) int {
		c, ok := m.lookup(L.OptString(1, owner))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(combatantTable(L, c))
		return 1
	}))
	L.SetField(engine, "hp", L.NewFunction(func(L *lua.LState) int {
		c, ok := m.lookup(L.OptString(1, owner))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(c.HP))
		L.Push(lua.LNumber(c.MaxHP))
		return 2
	}))
	L.SetField(engine, "ap", L.NewFunction(func(L *lua.LState) int {
		c, ok := m.lookup(L.OptString(1, owner))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(c.AP))
		return 1
	}))
	L.SetField(engine, "hostiles", L.NewFunction(func(L *lua.LState) int {
		out := L.NewTable()
		if e := m.Engine; e != nil {
			for _, c := range e.Hostiles(L.OptString(1, owner)) {
				out.Append(combatantTable(L, c))
			}
		}
		L.Push(out)
		return 1
	}))

	if owner != "" {
		L.SetField(engine, "self", lua.LString(owner))
		m.registerActions(L, engine, owner)
	}
	L.SetGlobal("engine", engine)
}

func (m *Manager) registerActions(L *lua.LState, engine *lua.LTable, owner string) {
	act := func(fn func(e Engine, L *lua.LState) bool) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			e := m.Engine
			L.Push(lua.LBool(e != nil && fn(e, L)))
			return 1
		})
	}
	L.SetField(engine, "standard_attack", act(func(e Engine, L *lua.LState) bool {
		return e.StandardAttack(callContext(L), owner, L.CheckString(1))
	}))
	L.SetField(engine, "single_attack", act(func(e Engine, L *lua.LState) bool {
		return e.SingleAttack(callContext(L), owner, L.CheckString(1), L.OptBool(2, false), L.OptBool(3, false))
	}))
	L.SetField(engine, "touch_attack", act(func(e Engine, L *lua.LState) bool {
		return e.TouchAttack(callContext(L), owner, L.CheckString(1), L.OptBool(2, false))
	}))
	L.SetField(engine, "step", act(func(e Engine, L *lua.LState) bool {
		return e.Step(callContext(L), owner, L.CheckInt(1), L.CheckInt(2))
	}))
}

func callContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (m *Manager) lookup(id string) (CombatantInfo, bool) {
	if m.Engine == nil || id == "" {
		return CombatantInfo{}, false
	}
	return m.Engine.Combatant(id)
}

func combatantTable(L *lua.LState, c CombatantInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(c.ID))
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "faction", lua.LString(c.Faction))
	L.SetField(t, "hp", lua.LNumber(c.HP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "ap", lua.LNumber(c.AP))
	L.SetField(t, "max_ap", lua.LNumber(c.MaxAP))
	L.SetField(t, "x", lua.LNumber(c.X))
	L.SetField(t, "y", lua.LNumber(c.Y))
	L.SetField(t, "dying", lua.LBool(c.Dying))
	L.SetField(t, "dead", lua.LBool(c.Dead))
	return t
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logf := range levels {
		logf := logf
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logf(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

// diceModule exposes engine.dice.roll(expr), returning {dice, modifier, total}
// where dice is the sum of the individual dice.
func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		sum := 0
		for _, d := range res.Dice {
			sum += d
		}
		t := L.NewTable()
		L.SetField(t, "dice", lua.LNumber(sum))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.Push(t)
		return 1
	}))
	return mod
}
