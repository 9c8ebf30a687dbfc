package simulation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/world"
)

// Scenario is an area and the creatures placed in it.
type Scenario struct {
	Area       *world.Area
	Combatants []CombatantSpec
}

// CombatantSpec describes one creature in a scenario file.
type CombatantSpec struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"` // "player" or "npc"; default npc
	Faction   string `yaml:"faction"`
	Encounter string `yaml:"encounter"`
	HP        int    `yaml:"hp"`
	X         int    `yaml:"x"`
	Y         int    `yaml:"y"`
	Summoned  bool   `yaml:"summoned"`
	// Active NPCs take turns before any player has seen them.
	Active bool `yaml:"active"`
	// Behavior names a built-in behavior or an HTN domain. Players default
	// to aggressive when autopiloted.
	Behavior string `yaml:"behavior"`
	// Script is a Lua file, relative to the scenario file, driving the
	// combatant. It excludes Behavior.
	Script      string   `yaml:"script"`
	RacialTypes []string `yaml:"racial_types"`

	DefaultWeapon string         `yaml:"default_weapon"`
	MainHand      string         `yaml:"main_hand"`
	OffHand       string         `yaml:"off_hand"`
	Quiver        *QuiverSpec    `yaml:"quiver"`
	Stock         map[string]int `yaml:"stock"`

	Conditions []ConditionSpec `yaml:"conditions"`
	// Stats is decoded over the combatant's defaults so omitted fields keep them.
	Stats yaml.Node `yaml:"stats"`
}

// QuiverSpec fills a combatant's quiver.
type QuiverSpec struct {
	Ammo  string `yaml:"ammo"`
	Count int    `yaml:"count"`
}

// ConditionSpec applies a condition at spawn.
type ConditionSpec struct {
	ID       string `yaml:"id"`
	Stacks   int    `yaml:"stacks"`
	Duration int    `yaml:"duration"`
}

// Position returns the spawn tile.
func (s CombatantSpec) Position() hex.Point { return hex.Pt(s.X, s.Y) }

// CombatantKind returns the parsed kind.
func (s CombatantSpec) CombatantKind() combat.Kind {
	if s.Kind == "player" {
		return combat.KindPlayer
	}
	return combat.KindNPC
}

// Validate checks the fields that need no content lookups.
func (s CombatantSpec) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	switch s.Kind {
	case "", "npc", "player":
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q", s.Kind))
	}
	if s.Faction == "" {
		errs = append(errs, errors.New("faction must not be empty"))
	}
	if s.HP < 1 {
		errs = append(errs, fmt.Errorf("hp %d must be >= 1", s.HP))
	}
	if s.Behavior != "" && s.Script != "" {
		errs = append(errs, errors.New("behavior and script are mutually exclusive"))
	}
	if s.Quiver != nil && (s.Quiver.Ammo == "" || s.Quiver.Count < 1) {
		errs = append(errs, errors.New("quiver needs ammo and a positive count"))
	}
	for _, c := range s.Conditions {
		if c.ID == "" {
			errs = append(errs, errors.New("condition id must not be empty"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("combatant %q: %w", s.ID, errors.Join(errs...))
	}
	return nil
}

type yamlScenarioFile struct {
	Area       world.YAMLArea  `yaml:"area"`
	Combatants []CombatantSpec `yaml:"combatants"`
}

// ParseScenario decodes a scenario. Relative area script directories and
// combatant scripts are resolved against baseDir. Areas that set no
// visibility radius get defaultRadius.
//
// Postcondition: Returns a validated Scenario or a non-nil error.
func ParseScenario(data []byte, baseDir string, defaultRadius int) (*Scenario, error) {
	var f yamlScenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if f.Area.VisibilityRadius == 0 && defaultRadius > 0 {
		f.Area.VisibilityRadius = defaultRadius
	}
	if f.Area.ScriptDir != "" {
		f.Area.ScriptDir = resolve(baseDir, f.Area.ScriptDir)
	}
	area, err := f.Area.Build()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(f.Combatants))
	for i := range f.Combatants {
		spec := &f.Combatants[i]
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("area %q: %w", area.ID, err)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("area %q: duplicate combatant %q", area.ID, spec.ID)
		}
		seen[spec.ID] = true
		if !area.InBounds(spec.Position()) {
			return nil, fmt.Errorf("area %q: combatant %q at %s is out of bounds", area.ID, spec.ID, spec.Position())
		}
		if spec.Script != "" {
			spec.Script = resolve(baseDir, spec.Script)
		}
	}
	return &Scenario{Area: area, Combatants: f.Combatants}, nil
}

// LoadScenario reads a scenario file.
func LoadScenario(path string, defaultRadius int) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := ParseScenario(data, filepath.Dir(path), defaultRadius)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// LoadScenarios reads every scenario file in dir, keyed by area ID.
//
// Postcondition: Returns at least one scenario or a non-nil error.
func LoadScenarios(dir string, defaultRadius int) (map[string]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}
	out := make(map[string]*Scenario)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		sc, err := LoadScenario(filepath.Join(dir, name), defaultRadius)
		if err != nil {
			return nil, err
		}
		if _, dup := out[sc.Area.ID]; dup {
			return nil, fmt.Errorf("duplicate area ID %q in %s", sc.Area.ID, name)
		}
		out[sc.Area.ID] = sc
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return out, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
