package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

func newTestManager(t testing.TB) (*scripting.Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	roller := dice.NewRoller(dice.NewSeededSource(1), logger)
	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	return mgr, logs
}

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0o644))
	return dir
}

func hasLevel(logs *observer.ObservedLogs, level zapcore.Level) bool {
	for _, e := range logs.All() {
		if e.Level == level {
			return true
		}
	}
	return false
}

func TestManager_LoadArea_CallsHook(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function test_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadArea(context.Background(), "crypt", dir, 0))
	ret, err := mgr.CallHook(context.Background(), "crypt", "test_hook", lua.LNumber(3), lua.LNumber(4))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(7), ret)
	assert.True(t, mgr.HasHook("crypt", "test_hook"))
	assert.True(t, mgr.Loaded("crypt"))
}

func TestManager_CallHook_MissingHook_NoOp(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "empty.lua", `-- no functions`)
	require.NoError(t, mgr.LoadArea(context.Background(), "crypt", dir, 0))
	ret, err := mgr.CallHook(context.Background(), "crypt", "nonexistent_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.False(t, mgr.HasHook("crypt", "nonexistent_hook"))
}

func TestManager_CallHook_UnknownKey_LogsInfoReturnsNil(t *testing.T) {
	mgr, logs := newTestManager(t)
	ret, err := mgr.CallHook(context.Background(), "nowhere", "some_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.InfoLevel), "expected Info log for missing VM")
}

func TestManager_CallHook_RuntimeError_WarnLogNoPanic(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `
		function bad_hook()
			error("intentional error")
		end
	`)
	require.NoError(t, mgr.LoadArea(context.Background(), "crypt", dir, 0))
	ret, err := mgr.CallHook(context.Background(), "crypt", "bad_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel), "expected Warn log for Lua runtime error")
}

func TestManager_CallHook_RunawayScriptIsStopped(t *testing.T) {
	mgr, logs := newTestManager(t)
	dir := writeTempLua(t, "loop.lua", `
		function spin()
			while true do end
		end
		function ok() return 1 end
	`)
	require.NoError(t, mgr.LoadArea(context.Background(), "crypt", dir, 1000))
	ret, err := mgr.CallHook(context.Background(), "crypt", "spin")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
	assert.True(t, hasLevel(logs, zap.WarnLevel))

	ret, err = mgr.CallHook(context.Background(), "crypt", "ok")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), ret)
}

func TestManager_LoadGlobal_CallHookFallback(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "global.lua", `
		function global_hook()
			return 42
		end
	`)
	require.NoError(t, mgr.LoadGlobal(context.Background(), dir, 0))
	ret, err := mgr.CallHook(context.Background(), "unknownarea", "global_hook")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(42), ret)
	assert.False(t, mgr.Loaded("unknownarea"))
}

func TestManager_LoadArea_EmptyDir_NoError(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadArea(context.Background(), "empty", t.TempDir(), 0))
	ret, err := mgr.CallHook(context.Background(), "empty", "anything")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestManager_LoadArea_InvalidLua_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "bad.lua", `this is not valid lua @@@@`)
	assert.Error(t, mgr.LoadArea(context.Background(), "bad", dir, 0))
	assert.False(t, mgr.Loaded("bad"))
}

func TestManager_LoadArea_MissingDir_ReturnsError(t *testing.T) {
	mgr, _ := newTestManager(t)
	assert.Error(t, mgr.LoadArea(context.Background(), "gone", filepath.Join(t.TempDir(), "nope"), 0))
}

func TestManager_LoadArea_MultipleFiles_OrderedByName(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`base_val = 10`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`
		function get_val() return base_val end
	`), 0o644))
	require.NoError(t, mgr.LoadArea(context.Background(), "ordered", dir, 0))
	ret, err := mgr.CallHook(context.Background(), "ordered", "get_val")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(10), ret)
}

func TestManager_LoadCombatant_RequiresOwner(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "c.lua", `function runTurn() end`)
	assert.Error(t, mgr.LoadCombatant(context.Background(), "", filepath.Join(dir, "c.lua"), 0))
	require.NoError(t, mgr.LoadCombatant(context.Background(), "gob", filepath.Join(dir, "c.lua"), 0))
	assert.True(t, mgr.HasHook("gob", "runTurn"))
}

func TestManager_Unload(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "c.lua", `function f() return 1 end`)
	require.NoError(t, mgr.LoadArea(context.Background(), "crypt", dir, 0))
	mgr.Unload("crypt")
	assert.False(t, mgr.Loaded("crypt"))
	ret, err := mgr.CallHook(context.Background(), "crypt", "f")
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestProperty_CallHookMissingKeyNeverPanics(t *testing.T) {
	mgr, _ := newTestManager(t)
	rapid.Check(t, func(rt *rapid.T) {
		key := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "key")
		hook := rapid.StringMatching(`[a-z]{1,10}`).Draw(rt, "hook")
		ret, err := mgr.CallHook(context.Background(), key, hook)
		require.NoError(rt, err)
		assert.Equal(rt, lua.LNil, ret)
	})
}

func TestManager_CallHookConcurrentSameArea_NoRace(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "hooks.lua", `
		function concurrent_hook(a, b)
			return a + b
		end
	`)
	require.NoError(t, mgr.LoadArea(context.Background(), "conc", dir, 0))

	const goroutines = 10
	const callsEach = 5
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				ret, err := mgr.CallHook(context.Background(), "conc", "concurrent_hook", lua.LNumber(1), lua.LNumber(2))
				assert.NoError(t, err)
				assert.Equal(t, lua.LNumber(3), ret)
			}
		}()
	}
	wg.Wait()
}

func TestNewManager_PanicsOnNilRoller(t *testing.T) {
	assert.Panics(t, func() {
		scripting.NewManager(nil, zap.NewNop())
	})
}

func TestNewManager_PanicsOnNilLogger(t *testing.T) {
	roller := dice.NewRoller(dice.NewCryptoSource(), zap.NewNop())
	assert.Panics(t, func() {
		scripting.NewManager(roller, nil)
	})
}

func TestManager_Close_ReleasesVMs(t *testing.T) {
	mgr, _ := newTestManager(t)
	dir := writeTempLua(t, "init.lua", `function get_x() return x end`)
	require.NoError(t, mgr.LoadArea(context.Background(), "closing", dir, 0))
	mgr.Close()
	ret, err := mgr.CallHook(context.Background(), "closing", "get_x")
	assert.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}
