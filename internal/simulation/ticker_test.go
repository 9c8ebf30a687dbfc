package simulation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/config"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/simulation"
)

func repoContent() config.ContentConfig {
	return config.ContentConfig{
		AreasDir:      "../../content/areas",
		WeaponsDir:    "../../content/weapons",
		ConditionsDir: "../../content/conditions",
		FactionsFile:  "../../content/factions.yaml",
		AIDir:         "../../content/ai",
	}
}

func TestNewTicker_Preconditions(t *testing.T) {
	assert.Panics(t, func() { simulation.NewTicker(nil, time.Second, nil) })
	sim := newSim(t, "duel", map[string]string{"duel.yaml": duel}, simulation.Options{})
	assert.Panics(t, func() { simulation.NewTicker(sim.Runner, 0, nil) })
}

func TestTicker_TickStartsCombatOnce(t *testing.T) {
	sim := newSim(t, "duel", map[string]string{"duel.yaml": duel}, simulation.Options{})
	tk := simulation.NewTicker(sim.Runner, time.Millisecond, nil)
	ctx := waitCtx(t)

	rep := tk.Tick(ctx)
	assert.True(t, rep.Visible)
	assert.True(t, rep.NewHostiles)
	require.NotNil(t, rep.CombatStarting)
	_, err := rep.CombatStarting.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, sim.Runner.IsInCombat())

	again := tk.Tick(ctx)
	assert.False(t, again.NewHostiles)
	assert.Nil(t, again.CombatStarting)
}

func TestTicker_RunStopsWithContext(t *testing.T) {
	sim := newSim(t, "duel", map[string]string{"duel.yaml": duel}, simulation.Options{})
	tk := simulation.NewTicker(sim.Runner, time.Millisecond, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tk.Run(ctx), context.DeadlineExceeded)
}

type cancelOnOutcome struct {
	cancel context.CancelFunc
	got    chan combat.CombatOutcome
}

func (c *cancelOnOutcome) RecordOutcome(_ context.Context, o combat.CombatOutcome) error {
	c.got <- o
	c.cancel()
	return nil
}

func TestWatch_FightsCombatOnceItStarts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rec := &cancelOnOutcome{cancel: cancel, got: make(chan combat.CombatOutcome, 1)}
	sim := newSim(t, "duel", map[string]string{"duel.yaml": duel}, simulation.Options{Recorder: rec})

	done := make(chan error, 1)
	go func() { done <- sim.Watch(ctx, time.Millisecond) }()

	tk := simulation.NewTicker(sim.Runner, time.Millisecond, nil)
	rep := tk.Tick(ctx)
	require.NotNil(t, rep.CombatStarting)

	select {
	case o := <-rec.got:
		assert.Equal(t, combat.TerminalNoHostiles, o.Result)
	case <-time.After(10 * time.Second):
		t.Fatal("combat never finished")
	}
	assert.ErrorIs(t, <-done, context.Canceled)
}
