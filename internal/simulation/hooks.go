package simulation

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

// LuaHooks forwards attacks to an area's Lua hooks.
//
// onAttack and onDefense are called as (attacker, defender, weapon, ranged,
// touch) and may return a table with attack_bonus, defender_ac,
// extra_damage and negate_damage. onAttackHit and onDefenseHit are called
// as (attacker, defender, weapon, damage, critical) once damage is applied.
type LuaHooks struct {
	scripts *scripting.Manager
	key     string
}

// NewLuaHooks binds the hooks in the VM loaded for areaID.
func NewLuaHooks(scripts *scripting.Manager, areaID string) *LuaHooks {
	return &LuaHooks{scripts: scripts, key: areaID}
}

// BeforeAttack implements combat.AttackHooks.
func (h *LuaHooks) BeforeAttack(ctx context.Context, info combat.AttackInfo) combat.Adjustment {
	var adj combat.Adjustment
	if !h.scripts.Loaded(h.key) {
		return adj
	}
	args := []lua.LValue{
		lua.LString(info.AttackerID),
		lua.LString(info.DefenderID),
		lua.LString(info.WeaponID),
		lua.LBool(info.Ranged),
		lua.LBool(info.Touch),
	}
	for _, hook := range []string{scripting.HookOnAttack, scripting.HookOnDefense} {
		ret, _ := h.scripts.CallHook(ctx, h.key, hook, args...)
		adj = adj.Add(adjustment(ret))
	}
	return adj
}

// AfterHit implements combat.AttackHooks.
func (h *LuaHooks) AfterHit(ctx context.Context, info combat.AttackInfo) {
	if !h.scripts.Loaded(h.key) {
		return
	}
	args := []lua.LValue{
		lua.LString(info.AttackerID),
		lua.LString(info.DefenderID),
		lua.LString(info.WeaponID),
		lua.LNumber(info.Damage),
		lua.LBool(info.Critical),
	}
	for _, hook := range []string{scripting.HookOnAttackHit, scripting.HookOnDefenseHit} {
		_, _ = h.scripts.CallHook(ctx, h.key, hook, args...)
	}
}

// adjustment reads a hook's returned table. Anything else adjusts nothing.
func adjustment(v lua.LValue) combat.Adjustment {
	tb, ok := v.(*lua.LTable)
	if !ok {
		return combat.Adjustment{}
	}
	return combat.Adjustment{
		AttackBonus:  intField(tb, "attack_bonus"),
		DefenderAC:   intField(tb, "defender_ac"),
		ExtraDamage:  intField(tb, "extra_damage"),
		NegateDamage: lua.LVAsBool(tb.RawGetString("negate_damage")),
	}
}

func intField(tb *lua.LTable, name string) int {
	if n, ok := tb.RawGetString(name).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}
