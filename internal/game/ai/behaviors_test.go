package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/game/ai"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

func TestAggressive_AttacksUntilBudgetRunsOut(t *testing.T) {
	a := newArena(t, combat.WithBehavior(ai.BehaviorAggressive, ai.Aggressive{}))
	a.player(t, "p1", hex.Pt(5, 5))
	a.goblin(t, "gob", ai.BehaviorAggressive, hex.Pt(5, 4))

	a.playAITurn(t)

	// two confirmed criticals of 12; the third attack is unaffordable
	assert.Equal(t, -4, a.hp(t, "p1"))
	assert.Equal(t, 2000, a.view(t, "gob").AP)
}

func TestAggressive_ClosesDistanceThenAttacks(t *testing.T) {
	a := newArena(t, combat.WithBehavior(ai.BehaviorAggressive, ai.Aggressive{}))
	a.player(t, "p1", hex.Pt(5, 5), noOpportunityAttacks)
	a.goblin(t, "gob", ai.BehaviorAggressive, hex.Pt(5, 1))

	a.playAITurn(t)

	gob := a.view(t, "gob")
	assert.Equal(t, hex.Pt(5, 4), gob.Pos)
	assert.Equal(t, 8, a.hp(t, "p1"))
	assert.Equal(t, 10000-3*1000-4000, gob.AP)
}

func TestAggressive_NoHostilesPasses(t *testing.T) {
	a := newArena(t, combat.WithBehavior(ai.BehaviorAggressive, ai.Aggressive{}))
	a.player(t, "p1", hex.Pt(0, 0))
	a.goblin(t, "gob", ai.BehaviorAggressive, hex.Pt(11, 11))

	a.playAITurn(t)

	gob := a.view(t, "gob")
	assert.Equal(t, hex.Pt(11, 11), gob.Pos)
	assert.Equal(t, gob.MaxAP, gob.AP)
	assert.Equal(t, 20, a.hp(t, "p1"))
}

func TestPassive_SkipsTurn(t *testing.T) {
	a := newArena(t, combat.WithBehavior(ai.BehaviorPassive, ai.Passive{}))
	a.player(t, "p1", hex.Pt(5, 5))
	a.goblin(t, "gob", ai.BehaviorPassive, hex.Pt(5, 4))

	require.True(t, a.r.EnterCombat())
	res, err := a.r.AdvanceTurn(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, combat.TurnPlayer, res.Kind)
	assert.Equal(t, "p1", res.ActiveID)
	assert.Equal(t, 20, a.hp(t, "p1"))
}

func TestOpportunityAttacks_ByBehavior(t *testing.T) {
	cases := []struct {
		name     string
		behavior any
		wantHP   int
	}{
		{"aggressive takes it", ai.Aggressive{}, 8},
		{"passive lets it go", ai.Passive{}, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newArena(t, combat.WithBehavior("b", tc.behavior))
			a.player(t, "p1", hex.Pt(5, 5))
			a.goblin(t, "gob", "b", hex.Pt(5, 4))
			a.fighting(t, "p1")

			require.True(t, a.r.Step(waitCtx(t), "p1", hex.Pt(4, 5)))
			assert.Equal(t, tc.wantHP, a.hp(t, "p1"))
			assert.Equal(t, hex.Pt(4, 5), a.view(t, "p1").Pos)
		})
	}
}
