// Package scripting provides sandboxed GopherLua VMs for area hooks and
// scripted combatants. It has no dependency on game domain packages; the
// game surface reaches scripts through the injected Engine.
package scripting

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one call may
// execute when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext cancels itself after Done has been called limit times.
// GopherLua's context-aware main loop calls Done once per opcode, which makes
// this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// limitContext derives from parent a context that is also cancelled after
// limit opcodes.
//
// Precondition: limit > 0.
func limitContext(parent context.Context, limit int) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	base, cancel := context.WithCancel(parent)
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{Context: base, cancel: cancel, remaining: rem}, cancel
}

// NewSandboxedState creates a GopherLua LState with only the base, table,
// string and math libraries, and with dofile, loadfile, load,
// collectgarbage and require removed.
//
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// VM is one sandboxed LState plus its per-call instruction limit. Calls into
// a VM are serialized.
type VM struct {
	mu    sync.Mutex
	key   string
	L     *lua.LState
	limit int
}

// NewVM creates a sandboxed VM identified by key.
//
// Precondition: limit >= 0; 0 uses DefaultInstructionLimit.
func NewVM(key string, limit int) *VM {
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	return &VM{key: key, L: NewSandboxedState(), limit: limit}
}

// Key returns the identifier the VM was created with.
func (v *VM) Key() string { return v.key }

// run executes fn with the VM locked and a fresh instruction budget bound to
// ctx. Cancelling ctx aborts the script at the next opcode.
func (v *VM) run(ctx context.Context, fn func(L *lua.LState) error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return fmt.Errorf("scripting: vm %q is closed", v.key)
	}
	lctx, cancel := limitContext(ctx, v.limit)
	defer cancel()
	v.L.SetContext(lctx)
	defer v.L.RemoveContext()
	return fn(v.L)
}

// DoString executes src in the VM.
func (v *VM) DoString(ctx context.Context, src string) error {
	return v.run(ctx, func(L *lua.LState) error { return L.DoString(src) })
}

// DoFile executes the Lua file at path in the VM.
func (v *VM) DoFile(ctx context.Context, path string) error {
	return v.run(ctx, func(L *lua.LState) error { return L.DoFile(path) })
}

// Has reports whether the global function hook is defined.
func (v *VM) Has(hook string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L == nil {
		return false
	}
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// Call invokes the global function hook with args and returns its first
// result. An undefined hook returns (LNil, nil).
func (v *VM) Call(ctx context.Context, hook string, args ...lua.LValue) (lua.LValue, error) {
	ret := lua.LValue(lua.LNil)
	err := v.run(ctx, func(L *lua.LState) error {
		fn := L.GetGlobal(hook)
		if fn.Type() != lua.LTFunction {
			return nil
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
			return err
		}
		ret = L.Get(-1)
		L.Pop(1)
		return nil
	})
	if err != nil {
		return lua.LNil, err
	}
	return ret, nil
}

// Close releases the LState. Later calls fail.
func (v *VM) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.L != nil {
		v.L.Close()
		v.L = nil
	}
}
