package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/dice"
)

// GlobalKey is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no VM is registered for a key.
const GlobalKey = "__global__"

// Manager owns one sandboxed VM per area, per scripted combatant, and the
// shared global VM, and dispatches hook calls into them.
//
// Manager is safe for concurrent use. Calls into one VM are serialized while
// different VMs run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*VM
	roller *dice.Roller
	logger *zap.Logger

	// Engine backs the engine.* query and action functions. Injected after
	// construction; while nil those functions return nil or false.
	Engine Engine
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a Manager with no VMs loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*VM),
		roller: roller,
		logger: logger,
	}
}

// LoadArea creates the hook VM for areaID and executes every *.lua file in
// scriptDir in lexicographic order. Area VMs get the query half of the engine
// module only: hooks run in the middle of attacks and must not start new ones.
//
// Postcondition: on success the area VM replaces any previous one.
func (m *Manager) LoadArea(ctx context.Context, areaID, scriptDir string, limit int) error {
	files, err := luaFiles(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: area %q: %w", areaID, err)
	}
	return m.load(ctx, areaID, "", files, limit)
}

// LoadGlobal creates the shared VM that CallHook falls back to.
func (m *Manager) LoadGlobal(ctx context.Context, scriptDir string, limit int) error {
	files, err := luaFiles(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: global: %w", err)
	}
	return m.load(ctx, GlobalKey, "", files, limit)
}

// LoadCombatant creates a VM owned by combatantID from the script at path.
// The engine module's action functions act on behalf of that combatant.
//
// Precondition: combatantID must be non-empty.
func (m *Manager) LoadCombatant(ctx context.Context, combatantID, path string, limit int) error {
	if combatantID == "" {
		return fmt.Errorf("scripting: combatant script %q needs an owner", path)
	}
	return m.load(ctx, combatantID, combatantID, []string{path}, limit)
}

func luaFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading script dir %q: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *Manager) load(ctx context.Context, key, owner string, files []string, limit int) error {
	vm := NewVM(key, limit)
	m.RegisterModules(vm.L, owner)
	for _, path := range files {
		if err := vm.DoFile(ctx, path); err != nil {
			vm.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}
	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = vm
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Debug("scripting: loaded", zap.String("key", key), zap.Int("files", len(files)))
	return nil
}

func (m *Manager) vm(key string) *VM {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if vm, ok := m.vms[key]; ok {
		return vm
	}
	return m.vms[GlobalKey]
}

// Loaded reports whether a VM is registered under exactly key.
func (m *Manager) Loaded(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vms[key]
	return ok
}

// HasHook reports whether hook is defined in key's VM or the global fallback.
func (m *Manager) HasHook(key, hook string) bool {
	vm := m.vm(key)
	return vm != nil && vm.Has(hook)
}

// CallHook calls the named Lua global function in key's VM, falling back to
// the global VM. It returns (LNil, nil) when no VM exists or the hook is not
// defined. Lua runtime errors, including exceeding the instruction limit, are
// logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(ctx context.Context, key, hook string, args ...lua.LValue) (lua.LValue, error) {
	vm := m.vm(key)
	if vm == nil {
		m.logger.Info("scripting: no VM for key", zap.String("key", key), zap.String("hook", hook))
		return lua.LNil, nil
	}
	ret, err := vm.Call(ctx, hook, args...)
	if err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	return ret, nil
}

// Unload closes and forgets key's VM.
func (m *Manager) Unload(key string) {
	m.mu.Lock()
	vm := m.vms[key]
	delete(m.vms, key)
	m.mu.Unlock()
	if vm != nil {
		vm.Close()
	}
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*VM)
	m.mu.Unlock()
	for _, vm := range vms {
		vm.Close()
	}
}
