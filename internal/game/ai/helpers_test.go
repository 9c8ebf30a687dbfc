package ai_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/game/faction"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/game/world"
)

// maxSource rolls the top of every range: every attack is a confirmed
// critical.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

type arena struct {
	w *combat.World
	r *combat.Runner
}

func newArena(t *testing.T, opts ...combat.RunnerOption) *arena {
	t.Helper()
	reg := faction.NewRegistry()
	require.NoError(t, reg.Register(&faction.Def{ID: "player", Relationships: map[string]string{"goblins": "hostile"}}))
	require.NoError(t, reg.Register(&faction.Def{ID: "goblins"}))
	rules := combat.DefaultRules()
	rules.CombatDelay = 0
	w, err := combat.NewWorld(world.NewArea("arena", 12, 12), reg, dice.NewRoller(maxSource{}, nil), combat.WithRules(rules))
	require.NoError(t, err)
	return &arena{w: w, r: combat.NewRunner(w, async.NewCoordinator(nil), opts...)}
}

func club() *inventory.WeaponDef {
	return &inventory.WeaponDef{
		ID:                 "club",
		Name:               "Club",
		BaseWeapon:         "club",
		Type:               inventory.Melee,
		DamageType:         "bludgeoning",
		DamageMin:          6,
		DamageMax:          6,
		Threatens:          true,
		ThreatenMin:        1,
		ThreatenMax:        1,
		CriticalThreat:     100,
		CriticalMultiplier: 2,
	}
}

func (a *arena) add(t *testing.T, c *combat.Combatant, p hex.Point, setup ...func(*combat.Combatant)) {
	t.Helper()
	c.Pos = p
	c.DefaultWeapon = club()
	for _, fn := range setup {
		fn(c)
	}
	require.NoError(t, a.w.Spawn(c))
}

func (a *arena) player(t *testing.T, id string, p hex.Point, setup ...func(*combat.Combatant)) {
	t.Helper()
	a.add(t, combat.NewCombatant(id, id, combat.KindPlayer, "player", 20), p, setup...)
}

// goblin spawns an active NPC that acts first.
func (a *arena) goblin(t *testing.T, id, behavior string, p hex.Point, setup ...func(*combat.Combatant)) {
	t.Helper()
	c := combat.NewCombatant(id, id, combat.KindNPC, "goblins", 20)
	c.Encounter = "warband"
	c.AIActive = true
	c.Behavior = behavior
	c.Stats.Initiative = 50
	a.add(t, c, p, setup...)
}

func (a *arena) hp(t *testing.T, id string) int {
	t.Helper()
	v, ok := a.w.View(id)
	require.True(t, ok)
	return v.HP
}

func (a *arena) view(t *testing.T, id string) combat.View {
	t.Helper()
	v, ok := a.w.View(id)
	require.True(t, ok)
	return v
}

// playAITurn enters combat and plays the first turn, which must be an AI turn.
func (a *arena) playAITurn(t *testing.T) {
	t.Helper()
	ctx := waitCtx(t)
	require.True(t, a.r.EnterCombat())
	res, err := a.r.AdvanceTurn(ctx)
	require.NoError(t, err)
	require.Equal(t, combat.TurnAI, res.Kind)
	_, err = res.AITurn.Wait(ctx)
	require.NoError(t, err)
}

// fighting enters combat and refills the budgets of ids.
func (a *arena) fighting(t *testing.T, ids ...string) {
	t.Helper()
	require.True(t, a.r.EnterCombat())
	for _, id := range ids {
		require.NoError(t, a.w.Update(id, func(c *combat.Combatant) { c.Budget.Reset(10000) }))
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func noOpportunityAttacks(c *combat.Combatant) { c.Stats.AttacksOfOpportunity = 0 }

func withHP(n int) func(*combat.Combatant) {
	return func(c *combat.Combatant) { c.CurrentHP = n }
}
