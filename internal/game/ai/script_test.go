package ai_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/ai"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

// scriptedGoblin loads src as gob's combatant script and registers a
// "scripted" behavior driven by it.
func scriptedGoblin(t *testing.T, a *arena, src string) *scripting.Manager {
	t.Helper()
	mgr := scripting.NewManager(dice.NewRoller(dice.NewSeededSource(1), nil), zap.NewNop())
	t.Cleanup(mgr.Close)
	mgr.Engine = ai.NewEngine(a.r)

	path := filepath.Join(t.TempDir(), "gob.lua")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	require.NoError(t, mgr.LoadCombatant(context.Background(), "gob", path, 0))
	a.r.RegisterBehavior("scripted", ai.NewScript(mgr, "gob"))
	return mgr
}

const attackUntilSpent = `
function runTurn(self)
	local hostiles = engine.hostiles()
	if #hostiles == 0 then return end
	while engine.ap() >= 4000 do
		if not engine.standard_attack(hostiles[1].id) then return end
	end
end
`

func TestScript_RunTurn_AttacksThroughEngine(t *testing.T) {
	a := newArena(t)
	scriptedGoblin(t, a, attackUntilSpent)
	a.player(t, "p1", hex.Pt(5, 5))
	a.goblin(t, "gob", "scripted", hex.Pt(5, 4))

	a.playAITurn(t)
	assert.Equal(t, -4, a.hp(t, "p1"))
	assert.Equal(t, 2000, a.view(t, "gob").AP)
}

func TestScript_RunTurn_StepsThroughEngine(t *testing.T) {
	a := newArena(t)
	scriptedGoblin(t, a, `
		function runTurn(self)
			local me = engine.combatant()
			engine.step(me.x, me.y + 1)
		end
	`)
	a.player(t, "p1", hex.Pt(0, 11))
	a.goblin(t, "gob", "scripted", hex.Pt(5, 1))

	a.playAITurn(t)
	assert.Equal(t, hex.Pt(5, 2), a.view(t, "gob").Pos)
}

func TestScript_OpportunityAttack(t *testing.T) {
	cases := []struct {
		name   string
		src    string
		wantHP int
	}{
		{"hook declines", `function takeAttackOfOpportunity(self, target) return false end`, 20},
		{"hook accepts", `function takeAttackOfOpportunity(self, target) return target == "p1" end`, 8},
		{"no hook takes it", `function runTurn(self) end`, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newArena(t)
			scriptedGoblin(t, a, tc.src)
			a.player(t, "p1", hex.Pt(5, 5))
			a.goblin(t, "gob", "scripted", hex.Pt(5, 4))
			a.fighting(t, "p1")

			require.True(t, a.r.Step(waitCtx(t), "p1", hex.Pt(4, 5)))
			assert.Equal(t, tc.wantHP, a.hp(t, "p1"))
		})
	}
}

func TestEngine_Combatant_And_Hostiles(t *testing.T) {
	a := newArena(t)
	a.player(t, "p1", hex.Pt(5, 5), withHP(15))
	a.goblin(t, "gob", ai.BehaviorPassive, hex.Pt(5, 3))
	e := ai.NewEngine(a.r)

	got, ok := e.Combatant("p1")
	require.True(t, ok)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "player", got.Faction)
	assert.Equal(t, 15, got.HP)
	assert.Equal(t, 20, got.MaxHP)
	assert.Equal(t, 5, got.X)
	assert.Equal(t, 5, got.Y)

	_, ok = e.Combatant("nobody")
	assert.False(t, ok)

	hostiles := e.Hostiles("gob")
	require.Len(t, hostiles, 1)
	assert.Equal(t, "p1", hostiles[0].ID)
}

func TestEngine_Actions_OutsideCombat(t *testing.T) {
	a := newArena(t)
	a.player(t, "p1", hex.Pt(5, 5))
	a.goblin(t, "gob", ai.BehaviorPassive, hex.Pt(5, 4))
	e := ai.NewEngine(a.r)
	ctx := waitCtx(t)

	assert.True(t, e.Step(ctx, "gob", 6, 4))
	assert.Equal(t, hex.Pt(6, 4), a.view(t, "gob").Pos)
	assert.False(t, e.Step(ctx, "gob", 6, 4), "stepping onto the current tile must fail")

	require.True(t, a.r.EnterCombat())
	assert.False(t, e.SingleAttack(ctx, "gob", "p1", true, false), "no off-hand weapon")
	require.NoError(t, a.w.Update("gob", func(c *combat.Combatant) { c.Budget.Reset(10000) }))
	assert.True(t, e.SingleAttack(ctx, "gob", "p1", false, true))
	assert.Equal(t, 8, a.hp(t, "p1"))
}

var _ combat.TurnRunner = (*ai.Script)(nil)
var _ combat.OpportunityDecider = (*ai.Script)(nil)
var _ scripting.Engine = (*ai.Engine)(nil)
