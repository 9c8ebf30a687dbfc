// Package faction classifies pairs of factions as Hostile, Neutral or Friendly.
package faction

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Relationship is the classification between two factions.
type Relationship int

const (
	Neutral Relationship = iota
	Hostile
	Friendly
)

func (r Relationship) String() string {
	switch r {
	case Hostile:
		return "hostile"
	case Friendly:
		return "friendly"
	default:
		return "neutral"
	}
}

// ParseRelationship converts "hostile", "neutral" or "friendly".
func ParseRelationship(s string) (Relationship, error) {
	switch s {
	case "hostile":
		return Hostile, nil
	case "neutral":
		return Neutral, nil
	case "friendly":
		return Friendly, nil
	default:
		return Neutral, fmt.Errorf("unknown relationship %q", s)
	}
}

// Def is the static definition of one faction.
type Def struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Relationships map[string]string `yaml:"relationships"`
}

type pair struct{ a, b string }

func key(a, b string) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a: a, b: b}
}

// Registry resolves relationships from static definitions layered under
// runtime overrides. It is safe for concurrent use.
//
// Invariant: a faction is always Friendly with itself; unknown pairs are Neutral.
type Registry struct {
	mu        sync.RWMutex
	defs      map[string]*Def
	static    map[pair]Relationship
	overrides map[pair]Relationship
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:      make(map[string]*Def),
		static:    make(map[pair]Relationship),
		overrides: make(map[pair]Relationship),
	}
}

// Register adds def. Relationships declared by either side apply to both; a
// later declaration for the same pair wins.
//
// Precondition: def.ID must not be empty.
func (r *Registry) Register(def *Def) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("faction: definition must have an id")
	}
	rels := make(map[pair]Relationship, len(def.Relationships))
	for other, s := range def.Relationships {
		rel, err := ParseRelationship(s)
		if err != nil {
			return fmt.Errorf("faction %q -> %q: %w", def.ID, other, err)
		}
		rels[key(def.ID, other)] = rel
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.ID] = def
	for k, rel := range rels {
		r.static[k] = rel
	}
	return nil
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Def, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// Relationship returns the classification between factions a and b.
//
// Postcondition: Relationship(a, b) == Relationship(b, a).
func (r *Registry) Relationship(a, b string) Relationship {
	if a == b {
		return Friendly
	}
	k := key(a, b)
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rel, ok := r.overrides[k]; ok {
		return rel
	}
	if rel, ok := r.static[k]; ok {
		return rel
	}
	return Neutral
}

// IsHostile reports whether a and b are hostile.
func (r *Registry) IsHostile(a, b string) bool { return r.Relationship(a, b) == Hostile }

// IsFriendly reports whether a and b are friendly.
func (r *Registry) IsFriendly(a, b string) bool { return r.Relationship(a, b) == Friendly }

// SetOverride layers rel over the static relationship between a and b.
// Overrides between a faction and itself are ignored.
func (r *Registry) SetOverride(a, b string, rel Relationship) {
	if a == b {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key(a, b)] = rel
}

// ClearOverride restores the static relationship between a and b.
func (r *Registry) ClearOverride(a, b string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, key(a, b))
}

type yamlFactionFile struct {
	Factions []*Def `yaml:"factions"`
}

// LoadFile reads a YAML file of the form {factions: [{id, name, relationships}]}.
//
// Postcondition: Returns a populated Registry or the first error encountered.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading faction file %s: %w", path, err)
	}
	return LoadBytes(data)
}

// LoadBytes parses faction definitions from YAML bytes.
func LoadBytes(data []byte) (*Registry, error) {
	var file yamlFactionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing faction YAML: %w", err)
	}
	reg := NewRegistry()
	for _, def := range file.Factions {
		if err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
