package ai

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// ScriptCaller evaluates Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in key's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(ctx context.Context, key, hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Action string
	// Target is the resolved combatant ID; empty for pass or when no
	// combatant matched the operator's target token.
	Target string
}

const maxPlanSteps = 32

// Planner evaluates an HTN domain for one combatant at a time.
//
// Invariant: domain and caller are non-nil.
type Planner struct {
	domain    *Domain
	caller    ScriptCaller
	scriptKey string
}

// NewPlanner constructs a Planner whose preconditions run in scriptKey's VM.
//
// Precondition: domain and caller must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller, scriptKey string) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	if caller == nil {
		panic("ai.NewPlanner: caller must not be nil")
	}
	return &Planner{domain: domain, caller: caller, scriptKey: scriptKey}
}

// Domain returns the domain the planner evaluates.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan decomposes RootTask against state into an ordered action list.
//
// Postcondition: returns a non-nil slice (possibly empty). Lua failures make a
// precondition false; they are never returned as errors.
func (p *Planner) Plan(ctx context.Context, state *WorldState) ([]PlannedAction, error) {
	if state == nil {
		return nil, errors.New("ai.Planner.Plan: state must not be nil")
	}
	queue := []string{RootTask}
	result := []PlannedAction{}
	for steps := 0; len(queue) > 0 && steps < maxPlanSteps; steps++ {
		current := queue[0]
		queue = queue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{Action: op.Action, Target: state.ResolveTarget(op.Target)})
			continue
		}
		m := p.applicableMethod(ctx, current, state)
		if m == nil {
			continue
		}
		queue = append(append([]string(nil), m.Subtasks...), queue...)
	}
	return result, nil
}

func (p *Planner) applicableMethod(ctx context.Context, taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" {
			return m
		}
		val, _ := p.caller.CallHook(ctx, p.scriptKey, m.Precondition, lua.LString(state.Self.ID))
		if val == lua.LTrue {
			return m
		}
	}
	return nil
}
