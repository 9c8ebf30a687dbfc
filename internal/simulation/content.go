// Package simulation assembles a playable combat from content files: it
// builds the world, installs behaviors and Lua hooks, and drives the combat
// loop with every combatant under autopilot.
package simulation

import (
	"fmt"

	"github.com/cory-johannsen/hexcombat/internal/config"
	"github.com/cory-johannsen/hexcombat/internal/game/ai"
	"github.com/cory-johannsen/hexcombat/internal/game/condition"
	"github.com/cory-johannsen/hexcombat/internal/game/faction"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/game/world"
)

// Content is the static game data shared by every scenario.
type Content struct {
	Factions   *faction.Registry
	Items      *inventory.Registry
	Conditions *condition.Registry
	Domains    []*ai.Domain
	Areas      *world.Manager
	scenarios  map[string]*Scenario
}

// LoadContent reads every content source named by cfg. Conditions and AI
// domains are optional.
//
// Postcondition: Returns fully validated Content or the first error encountered.
func LoadContent(cfg config.ContentConfig, defaultRadius int) (*Content, error) {
	factions, err := faction.LoadFile(cfg.FactionsFile)
	if err != nil {
		return nil, fmt.Errorf("loading factions: %w", err)
	}
	items, err := inventory.LoadDirectory(cfg.WeaponsDir)
	if err != nil {
		return nil, fmt.Errorf("loading weapons: %w", err)
	}
	conds := condition.NewRegistry()
	if cfg.ConditionsDir != "" {
		if conds, err = condition.LoadDirectory(cfg.ConditionsDir); err != nil {
			return nil, fmt.Errorf("loading conditions: %w", err)
		}
	}
	var domains []*ai.Domain
	if cfg.AIDir != "" {
		if domains, err = ai.LoadDomains(cfg.AIDir); err != nil {
			return nil, fmt.Errorf("loading ai domains: %w", err)
		}
	}
	scenarios, err := LoadScenarios(cfg.AreasDir, defaultRadius)
	if err != nil {
		return nil, fmt.Errorf("loading areas: %w", err)
	}
	c := &Content{
		Factions:   factions,
		Items:      items,
		Conditions: conds,
		Domains:    domains,
		scenarios:  scenarios,
	}
	for _, id := range sortedKeys(scenarios) {
		if err := c.check(scenarios[id]); err != nil {
			return nil, err
		}
	}
	areas := make([]*world.Area, 0, len(scenarios))
	for _, id := range sortedKeys(scenarios) {
		areas = append(areas, scenarios[id].Area)
	}
	if c.Areas, err = world.NewManager(areas); err != nil {
		return nil, err
	}
	return c, nil
}

// Scenario returns the scenario for areaID.
func (c *Content) Scenario(areaID string) (*Scenario, bool) {
	sc, ok := c.scenarios[areaID]
	return sc, ok
}

// check resolves every content reference a scenario makes.
func (c *Content) check(sc *Scenario) error {
	domains := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		domains[d.ID] = true
	}
	for _, s := range sc.Combatants {
		where := fmt.Sprintf("area %q combatant %q", sc.Area.ID, s.ID)
		if _, ok := c.Factions.Get(s.Faction); !ok {
			return fmt.Errorf("%s: unknown faction %q", where, s.Faction)
		}
		for _, id := range []string{s.DefaultWeapon, s.MainHand, s.OffHand} {
			if id == "" {
				continue
			}
			if _, ok := c.Items.Weapon(id); !ok {
				return fmt.Errorf("%s: unknown weapon %q", where, id)
			}
		}
		if s.Quiver != nil {
			if _, ok := c.Items.Ammo(s.Quiver.Ammo); !ok {
				return fmt.Errorf("%s: unknown ammo %q", where, s.Quiver.Ammo)
			}
		}
		for id := range s.Stock {
			_, isWeapon := c.Items.Weapon(id)
			_, isAmmo := c.Items.Ammo(id)
			if !isWeapon && !isAmmo {
				return fmt.Errorf("%s: unknown stock item %q", where, id)
			}
		}
		for _, cs := range s.Conditions {
			if _, ok := c.Conditions.Get(cs.ID); !ok {
				return fmt.Errorf("%s: unknown condition %q", where, cs.ID)
			}
		}
		switch s.Behavior {
		case "", ai.BehaviorAggressive, ai.BehaviorPassive:
		default:
			if !domains[s.Behavior] {
				return fmt.Errorf("%s: unknown behavior %q", where, s.Behavior)
			}
		}
	}
	return nil
}
