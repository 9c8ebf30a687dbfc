package simulation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/simulation"
)

func TestLoadContent_Duel(t *testing.T) {
	content, err := simulation.LoadContent(writeContent(t, map[string]string{"duel.yaml": duel}), 12)
	require.NoError(t, err)

	assert.Equal(t, []string{"duel"}, content.Areas.IDs())
	sc, ok := content.Scenario("duel")
	require.True(t, ok)
	assert.Len(t, sc.Combatants, 2)
	_, ok = content.Scenario("missing")
	assert.False(t, ok)

	_, ok = content.Conditions.Get("blessed")
	assert.True(t, ok)
	assert.Empty(t, content.Domains)
}

func TestLoadContent_UnresolvedReferences(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"faction", "faction: goblins", "faction: orcs", `unknown faction "orcs"`},
		{"weapon", "main_hand: shortsword", "main_hand: halberd", `unknown weapon "halberd"`},
		{"behavior", "encounter: warband", "encounter: warband\n    behavior: berserk", `unknown behavior "berserk"`},
		{"condition", "encounter: warband", "encounter: warband\n    conditions: [{id: cursed}]", `unknown condition "cursed"`},
		{"ammo", "encounter: warband", "encounter: warband\n    quiver: {ammo: bolts, count: 5}", `unknown ammo "bolts"`},
		{"stock", "encounter: warband", "encounter: warband\n    stock: {rope: 1}", `unknown stock item "rope"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := strings.Replace(duel, tc.from, tc.to, 1)
			_, err := simulation.LoadContent(writeContent(t, map[string]string{"duel.yaml": body}), 12)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadContent_MissingSources(t *testing.T) {
	cfg := writeContent(t, map[string]string{"duel.yaml": duel})

	noFactions := cfg
	noFactions.FactionsFile = cfg.FactionsFile + ".missing"
	_, err := simulation.LoadContent(noFactions, 12)
	assert.ErrorContains(t, err, "loading factions")

	noAreas := cfg
	noAreas.AreasDir = t.TempDir()
	_, err = simulation.LoadContent(noAreas, 12)
	assert.ErrorContains(t, err, "loading areas")
}

func TestLoadContent_Repository(t *testing.T) {
	content, err := simulation.LoadContent(repoContent(), 12)
	require.NoError(t, err)
	assert.Equal(t, []string{"ambush", "crypt"}, content.Areas.IDs())
	assert.NotEmpty(t, content.Domains)
}
