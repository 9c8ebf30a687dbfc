package scripting_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

type fakeEngine struct {
	mu         sync.Mutex
	combatants map[string]scripting.CombatantInfo
	hostiles   []scripting.CombatantInfo
	calls      []string
}

func newFakeEngine() *fakeEngine {
	gob := scripting.CombatantInfo{ID: "gob", Name: "Goblin", Faction: "goblins", HP: 7, MaxHP: 10, AP: 6000, X: 1, Y: 2}
	hero := scripting.CombatantInfo{ID: "hero", Name: "Hero", Faction: "party", HP: 20, MaxHP: 20, AP: 10000}
	return &fakeEngine{
		combatants: map[string]scripting.CombatantInfo{"gob": gob, "hero": hero},
		hostiles:   []scripting.CombatantInfo{hero},
	}
}

func (f *fakeEngine) record(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeEngine) Combatant(id string) (scripting.CombatantInfo, bool) {
	c, ok := f.combatants[id]
	return c, ok
}

func (f *fakeEngine) Hostiles(viewerID string) []scripting.CombatantInfo {
	if viewerID != "gob" {
		return nil
	}
	return f.hostiles
}

func (f *fakeEngine) StandardAttack(_ context.Context, a, d string) bool {
	f.record("standard " + a + ">" + d)
	return true
}

func (f *fakeEngine) SingleAttack(_ context.Context, a, d string, offHand, animated bool) bool {
	call := "single"
	if offHand {
		call += "-off"
	}
	if animated {
		call += "-animated"
	}
	f.record(call + " " + a + ">" + d)
	return false
}

func (f *fakeEngine) TouchAttack(_ context.Context, a, d string, ranged bool) bool {
	f.record("touch " + a + ">" + d)
	return ranged
}

func (f *fakeEngine) Step(_ context.Context, id string, x, y int) bool {
	f.record("step " + id)
	return x >= 0 && y >= 0
}

func runAreaScript(t *testing.T, mgr *scripting.Manager, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "test.lua", src)
	require.NoError(t, mgr.LoadArea(context.Background(), "area", dir, 0))
	ret, err := mgr.CallHook(context.Background(), "area", hook, args...)
	require.NoError(t, err)
	return ret
}

func runOwnedScript(t *testing.T, mgr *scripting.Manager, owner, src, hook string, args ...lua.LValue) lua.LValue {
	t.Helper()
	dir := writeTempLua(t, "owned.lua", src)
	require.NoError(t, mgr.LoadCombatant(context.Background(), owner, filepath.Join(dir, "owned.lua"), 0))
	ret, err := mgr.CallHook(context.Background(), owner, hook, args...)
	require.NoError(t, err)
	return ret
}

func TestEngineLog_AllLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	mgr := scripting.NewManager(dice.NewRoller(dice.NewSeededSource(1), logger), logger)
	defer mgr.Close()

	runAreaScript(t, mgr, `
		function do_all_logs()
			engine.log.debug("d")
			engine.log.info("i")
			engine.log.warn("w")
			engine.log.error("e")
		end
	`, "do_all_logs")

	levels := map[string]bool{}
	for _, e := range logs.FilterField(zap.String("source", "lua")).All() {
		levels[e.Level.String()] = true
	}
	assert.Equal(t, map[string]bool{"debug": true, "info": true, "warn": true, "error": true}, levels)
}

func TestEngineDice_Roll_ReturnsTable(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runAreaScript(t, mgr, `
		function do_roll()
			local r = engine.dice.roll("1d6")
			if type(r.dice) ~= "number" then error("dice field missing") end
			return r.total
		end
	`, "do_roll")
	n, ok := ret.(lua.LNumber)
	require.True(t, ok, "expected LNumber, got %T", ret)
	assert.GreaterOrEqual(t, int(n), 1)
	assert.LessOrEqual(t, int(n), 6)
}

func TestEngineDice_Roll_BadExpressionIsScriptError(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret := runAreaScript(t, mgr, `
		function do_roll() return engine.dice.roll("banana").total end
	`, "do_roll")
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel))
}

func TestProperty_DiceRoll_TotalEqualsDicePlusModifier(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "check.lua", `
		function check_invariant(expr)
			local r = engine.dice.roll(expr)
			return r.total == r.dice + r.modifier
		end
	`)
	require.NoError(t, mgr.LoadArea(context.Background(), "area", dir, 0))
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.SampledFrom([]string{"1d6", "2d6+3", "1d4-1", "1d8"}).Draw(rt, "expr")
		ret, err := mgr.CallHook(context.Background(), "area", "check_invariant", lua.LString(expr))
		require.NoError(rt, err)
		assert.Equal(rt, lua.LTrue, ret, "total must equal dice + modifier for expr %s", expr)
	})
}

func TestEngineQueries_NilEngine_ReturnNil(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runAreaScript(t, mgr, `
		function query()
			return engine.hp("gob") == nil and engine.combatant("gob") == nil and #engine.hostiles("gob") == 0
		end
	`, "query")
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineQueries_ReadThroughEngine(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Engine = newFakeEngine()
	ret := runAreaScript(t, mgr, `
		function query()
			local hp, max = engine.hp("gob")
			local c = engine.combatant("gob")
			local hs = engine.hostiles("gob")
			return hp .. "/" .. max .. " " .. engine.ap("gob") .. " " .. c.name .. "@" .. c.x .. "," .. c.y .. " " .. hs[1].id
		end
	`, "query")
	assert.Equal(t, lua.LString("7/10 6000 Goblin@1,2 hero"), ret)
}

func TestEngineActions_AbsentFromAreaVMs(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Engine = newFakeEngine()
	ret := runAreaScript(t, mgr, `
		function query()
			return engine.standard_attack == nil and engine.step == nil and engine.self == nil
		end
	`, "query")
	assert.Equal(t, lua.LTrue, ret)
}

func TestEngineActions_ActForOwner(t *testing.T) {
	mgr, _ := newTestManager(t)
	fe := newFakeEngine()
	mgr.Engine = fe
	ret := runOwnedScript(t, mgr, "gob", `
		function runTurn()
			local target = engine.hostiles()[1].id
			local a = engine.standard_attack(target)
			local b = engine.single_attack(target, true)
			engine.single_attack(target, false, true)
			local c = engine.touch_attack(target, true)
			local d = engine.step(-1, 0)
			return engine.self .. tostring(a) .. tostring(b) .. tostring(c) .. tostring(d)
		end
	`, "runTurn")
	assert.Equal(t, lua.LString("gobtruefalsetruefalse"), ret)
	assert.Equal(t, []string{
		"standard gob>hero", "single-off gob>hero", "single-animated gob>hero", "touch gob>hero", "step gob",
	}, fe.calls)
}

func TestEngineActions_NilEngineReturnFalse(t *testing.T) {
	mgr, _ := newTestManager(t)
	ret := runOwnedScript(t, mgr, "gob", `
		function runTurn() return engine.standard_attack("hero") end
	`, "runTurn")
	assert.Equal(t, lua.LFalse, ret)
}
