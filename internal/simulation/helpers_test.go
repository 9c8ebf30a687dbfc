package simulation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/config"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/simulation"
)

// maxSource rolls the top of every range: every attack is a confirmed
// critical.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

const testFactions = `
factions:
  - id: party
    relationships:
      goblins: hostile
  - id: goblins
`

const testWeapons = `
weapons:
  - id: longsword
    name: Longsword
    base_weapon: longsword
    type: melee
    damage_type: slashing
    damage_min: 1
    damage_max: 8
    threatens: true
    threaten_min: 1
    threaten_max: 1
    critical_threat: 95
    critical_multiplier: 2
  - id: shortsword
    name: Shortsword
    base_weapon: shortsword
    type: melee
    damage_type: piercing
    damage_min: 1
    damage_max: 6
    threatens: true
    threaten_min: 1
    threaten_max: 1
    critical_threat: 95
    critical_multiplier: 2
ammo:
  - id: arrows
    name: Arrows
    kind: arrow
`

const testCondition = `
id: blessed
name: Blessed
duration_type: rounds
max_stacks: 3
attack_bonus: 5
`

// duel is a hero two tiles from a goblin that acts first.
const duel = `
area:
  id: duel
  width: 10
  height: 10
combatants:
  - id: hero
    kind: player
    faction: party
    hp: 40
    x: 5
    y: 5
    main_hand: longsword
  - id: gob
    faction: goblins
    encounter: warband
    hp: 10
    x: 5
    y: 3
    main_hand: shortsword
    stats:
      initiative: 50
`

func write(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

// writeContent lays out a content tree holding the given scenario files.
func writeContent(t *testing.T, scenarios map[string]string) config.ContentConfig {
	t.Helper()
	root := t.TempDir()
	write(t, filepath.Join(root, "factions.yaml"), testFactions)
	write(t, filepath.Join(root, "weapons", "weapons.yaml"), testWeapons)
	write(t, filepath.Join(root, "conditions", "blessed.yaml"), testCondition)
	for name, data := range scenarios {
		write(t, filepath.Join(root, "areas", name), data)
	}
	return config.ContentConfig{
		AreasDir:      filepath.Join(root, "areas"),
		WeaponsDir:    filepath.Join(root, "weapons"),
		ConditionsDir: filepath.Join(root, "conditions"),
		FactionsFile:  filepath.Join(root, "factions.yaml"),
	}
}

func testRules() combat.Rules {
	r := combat.DefaultRules()
	r.CombatDelay = 0
	return r
}

// newSim loads the single scenario in scenarios and builds it with max rolls.
func newSim(t *testing.T, areaID string, scenarios map[string]string, opts simulation.Options) *simulation.Simulation {
	t.Helper()
	content, err := simulation.LoadContent(writeContent(t, scenarios), 12)
	require.NoError(t, err)
	sc, ok := content.Scenario(areaID)
	require.True(t, ok)
	if opts.Source == nil {
		opts.Source = maxSource{}
	}
	if opts.Rules == (combat.Rules{}) {
		opts.Rules = testRules()
	}
	sim, err := simulation.New(context.Background(), content, sc, opts)
	require.NoError(t, err)
	t.Cleanup(sim.Close)
	return sim
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func hp(t *testing.T, sim *simulation.Simulation, id string) int {
	t.Helper()
	v, ok := sim.World.View(id)
	require.True(t, ok)
	return v.HP
}
