package ai

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

// Script drives one combatant from the Lua VM loaded under its ID. The turn
// is played by the script's runTurn through the engine module's actions.
type Script struct {
	scripts *scripting.Manager
	id      string
}

// NewScript binds the VM keyed by combatantID.
//
// Precondition: the VM was loaded with scripting.Manager.LoadCombatant.
func NewScript(scripts *scripting.Manager, combatantID string) *Script {
	return &Script{scripts: scripts, id: combatantID}
}

// RunTurn implements combat.TurnRunner. Script errors are logged by the
// manager and end the turn.
func (s *Script) RunTurn(ctx context.Context, t *combat.Turn) error {
	_, err := s.scripts.CallHook(ctx, s.id, scripting.HookRunTurn, lua.LString(t.ActorID))
	return err
}

// DecideOpportunityAttack implements combat.OpportunityDecider. Scripts
// without takeAttackOfOpportunity always take the attack.
func (s *Script) DecideOpportunityAttack(ctx context.Context, self, target combat.View) bool {
	if !s.scripts.HasHook(s.id, scripting.HookTakeAttackOfOpportunity) {
		return true
	}
	ret, _ := s.scripts.CallHook(ctx, s.id, scripting.HookTakeAttackOfOpportunity,
		lua.LString(self.ID), lua.LString(target.ID))
	return lua.LVAsBool(ret)
}

// Engine exposes a combat runner to scripts as scripting.Engine.
type Engine struct {
	runner *combat.Runner
}

// NewEngine wraps runner.
func NewEngine(runner *combat.Runner) *Engine { return &Engine{runner: runner} }

func info(v combat.View) scripting.CombatantInfo {
	return scripting.CombatantInfo{
		ID:      v.ID,
		Name:    v.Name,
		Faction: v.Faction,
		HP:      v.HP,
		MaxHP:   v.MaxHP,
		AP:      v.AP,
		MaxAP:   v.MaxAP,
		X:       v.Pos.X,
		Y:       v.Pos.Y,
		Dying:   v.Dying,
		Dead:    v.Dead,
	}
}

// Combatant implements scripting.Engine.
func (e *Engine) Combatant(id string) (scripting.CombatantInfo, bool) {
	v, ok := e.runner.World().View(id)
	if !ok {
		return scripting.CombatantInfo{}, false
	}
	return info(v), true
}

// Hostiles implements scripting.Engine.
func (e *Engine) Hostiles(viewerID string) []scripting.CombatantInfo {
	vs := e.runner.World().VisibleHostiles(viewerID)
	out := make([]scripting.CombatantInfo, 0, len(vs))
	for _, v := range vs {
		out = append(out, info(v))
	}
	return out
}

// StandardAttack implements scripting.Engine.
func (e *Engine) StandardAttack(ctx context.Context, attackerID, targetID string) bool {
	return e.runner.StandardAttack(ctx, attackerID, targetID)
}

// SingleAttack implements scripting.Engine.
func (e *Engine) SingleAttack(ctx context.Context, attackerID, targetID string, offHand, animated bool) bool {
	slot := inventory.MainHand
	if offHand {
		slot = inventory.OffHand
	}
	if animated {
		return e.runner.SingleAttackAnimated(ctx, attackerID, targetID, slot)
	}
	return e.runner.SingleAttack(ctx, attackerID, targetID, slot)
}

// TouchAttack implements scripting.Engine.
func (e *Engine) TouchAttack(ctx context.Context, attackerID, targetID string, ranged bool) bool {
	return e.runner.TouchAttack(ctx, attackerID, targetID, ranged)
}

// Step implements scripting.Engine.
func (e *Engine) Step(ctx context.Context, id string, x, y int) bool {
	return e.runner.Step(ctx, id, hex.Pt(x, y))
}
