package combat_test

import (
	"strings"
	"sync"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/game/faction"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/game/world"
)

// scripted returns queued values, then falls back to 0.
type scripted struct {
	mu   sync.Mutex
	vals []int
}

func (s *scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

// d100s scripts natural percentile rolls.
func d100s(rolls ...int) *scripted {
	s := &scripted{}
	for _, r := range rolls {
		s.vals = append(s.vals, r-1)
	}
	return s
}

// maxSource rolls the top of every range.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

type recordingSink struct {
	mu     sync.Mutex
	events []combat.Event
}

func (s *recordingSink) Emit(e combat.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) has(kind combat.EventKind, substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.Kind == kind && strings.Contains(e.Text, substr) {
			return true
		}
	}
	return false
}

// tb is satisfied by both *testing.T and *rapid.T.
type tb interface {
	require.TestingT
	Helper()
}

type fixture struct {
	w     *combat.World
	r     *combat.Runner
	coord *async.Coordinator
	sink  *recordingSink
}

func testFactions(t tb) *faction.Registry {
	t.Helper()
	reg := faction.NewRegistry()
	require.NoError(t, reg.Register(&faction.Def{ID: "player", Relationships: map[string]string{"goblins": "hostile"}}))
	require.NoError(t, reg.Register(&faction.Def{ID: "goblins"}))
	return reg
}

func testRules() combat.Rules {
	r := combat.DefaultRules()
	r.CombatDelay = 0
	return r
}

func newFixture(t tb, src dice.Source, opts ...combat.RunnerOption) *fixture {
	t.Helper()
	return newFixtureIn(t, world.NewArea("arena", 12, 12), testRules(), src, opts...)
}

func newFixtureIn(t tb, area *world.Area, rules combat.Rules, src dice.Source, opts ...combat.RunnerOption) *fixture {
	t.Helper()
	sink := &recordingSink{}
	w, err := combat.NewWorld(area, testFactions(t), dice.NewRoller(src, nil),
		combat.WithRules(rules), combat.WithSink(sink))
	require.NoError(t, err)
	coord := async.NewCoordinator(nil)
	return &fixture{w: w, r: combat.NewRunner(w, coord, opts...), coord: coord, sink: sink}
}

func sword() *inventory.WeaponDef {
	return &inventory.WeaponDef{
		ID:                 "sword",
		Name:               "Sword",
		BaseWeapon:         "longsword",
		Type:               inventory.Melee,
		DamageType:         "slashing",
		DamageMin:          6,
		DamageMax:          6,
		Threatens:          true,
		ThreatenMin:        1,
		ThreatenMax:        1,
		CriticalThreat:     100,
		CriticalMultiplier: 2,
	}
}

func spear() *inventory.WeaponDef {
	w := sword()
	w.ID, w.BaseWeapon, w.DamageType = "spear", "spear", "piercing"
	w.ThreatenMax = 2
	return w
}

func bow() *inventory.WeaponDef {
	return &inventory.WeaponDef{
		ID:                 "bow",
		Name:               "Short Bow",
		BaseWeapon:         "shortbow",
		Type:               inventory.Bow,
		DamageType:         "piercing",
		DamageMin:          4,
		DamageMax:          4,
		MaximumRange:       10,
		CriticalThreat:     100,
		CriticalMultiplier: 3,
		Ammo:               "arrow",
	}
}

func arrows() *inventory.AmmoDef {
	return &inventory.AmmoDef{ID: "arrows", Name: "Arrows", Kind: "arrow"}
}

func (f *fixture) spawn(t tb, id string, kind combat.Kind, factionID string, p hex.Point, setup ...func(c *combat.Combatant)) {
	t.Helper()
	c := combat.NewCombatant(id, id, kind, factionID, 20)
	c.Pos = p
	c.DefaultWeapon = sword()
	for _, fn := range setup {
		fn(c)
	}
	require.NoError(t, f.w.Spawn(c))
}

func (f *fixture) player(t tb, id string, p hex.Point, setup ...func(c *combat.Combatant)) {
	t.Helper()
	f.spawn(t, id, combat.KindPlayer, "player", p, setup...)
}

func (f *fixture) goblin(t tb, id string, p hex.Point, setup ...func(c *combat.Combatant)) {
	t.Helper()
	f.spawn(t, id, combat.KindNPC, "goblins", p, append([]func(*combat.Combatant){func(c *combat.Combatant) {
		c.Encounter = "warband"
	}}, setup...)...)
}

func (f *fixture) view(t tb, id string) combat.View {
	t.Helper()
	v, ok := f.w.View(id)
	require.True(t, ok)
	return v
}

func active(c *combat.Combatant) { c.AIActive = true }
func initiative(n int) func(*combat.Combatant) {
	return func(c *combat.Combatant) { c.Stats.Initiative = n }
}
