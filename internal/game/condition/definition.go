// Package condition tracks timed effects applied to combatants.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Duration types.
const (
	DurationRounds    = "rounds"
	DurationPermanent = "permanent"
)

// ConditionDef is the static definition of a condition, loaded from YAML.
// Bonuses are per stack and may be negative.
type ConditionDef struct {
	ID               string `yaml:"id"`
	Name             string `yaml:"name"`
	Description      string `yaml:"description"`
	DurationType     string `yaml:"duration_type"`
	MaxStacks        int    `yaml:"max_stacks"` // 0 = unstackable
	AttackBonus      int    `yaml:"attack_bonus"`
	ACBonus          int    `yaml:"ac_bonus"`
	ConcealmentBonus int    `yaml:"concealment_bonus"`
	DamageBonus      int    `yaml:"damage_bonus"` // percent
	Helpless         bool   `yaml:"helpless"`
	Hidden           bool   `yaml:"hidden"`
	Blind            bool   `yaml:"blind"`
}

// Validate checks definition invariants.
func (d *ConditionDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("condition id must not be empty")
	}
	switch d.DurationType {
	case DurationRounds, DurationPermanent:
	default:
		return fmt.Errorf("condition %q: unknown duration_type %q", d.ID, d.DurationType)
	}
	if d.MaxStacks < 0 {
		return fmt.Errorf("condition %q: max_stacks must be >= 0", d.ID)
	}
	return nil
}

// Registry holds known ConditionDefs keyed by ID.
type Registry struct {
	defs map[string]*ConditionDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ConditionDef)}
}

// Register adds def, overwriting any existing entry with the same ID.
func (r *Registry) Register(def *ConditionDef) {
	r.defs[def.ID] = def
}

// Get returns the ConditionDef for id.
func (r *Registry) Get(id string) (*ConditionDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadDirectory reads every *.yaml file in dir as one ConditionDef.
//
// Postcondition: Returns a populated Registry, or an error naming the first bad file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def ConditionDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
