package inventory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Registry holds weapon and ammunition definitions indexed by ID.
type Registry struct {
	weapons map[string]*WeaponDef
	ammo    map[string]*AmmoDef
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		weapons: make(map[string]*WeaponDef),
		ammo:    make(map[string]*AmmoDef),
	}
}

// RegisterWeapon validates and adds w.
//
// Postcondition: Weapon(w.ID) returns w; duplicate ids are rejected.
func (r *Registry) RegisterWeapon(w *WeaponDef) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if _, exists := r.weapons[w.ID]; exists {
		return fmt.Errorf("inventory: weapon %q already registered", w.ID)
	}
	r.weapons[w.ID] = w
	return nil
}

// RegisterAmmo validates and adds a.
func (r *Registry) RegisterAmmo(a *AmmoDef) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if _, exists := r.ammo[a.ID]; exists {
		return fmt.Errorf("inventory: ammo %q already registered", a.ID)
	}
	r.ammo[a.ID] = a
	return nil
}

// Weapon returns the WeaponDef for id.
func (r *Registry) Weapon(id string) (*WeaponDef, bool) {
	w, ok := r.weapons[id]
	return w, ok
}

// Ammo returns the AmmoDef for id.
func (r *Registry) Ammo(id string) (*AmmoDef, bool) {
	a, ok := r.ammo[id]
	return a, ok
}

// WeaponIDs returns the registered weapon ids in sorted order.
func (r *Registry) WeaponIDs() []string {
	out := make([]string, 0, len(r.weapons))
	for id := range r.weapons {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type yamlItemFile struct {
	Weapons []*WeaponDef `yaml:"weapons"`
	Ammo    []*AmmoDef   `yaml:"ammo"`
}

// LoadDirectory reads every *.yaml file in dir. Each file may hold a
// `weapons` list, an `ammo` list, or both.
//
// Postcondition: returns a populated Registry or the first error encountered.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading item dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var file yamlItemFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, w := range file.Weapons {
			if err := reg.RegisterWeapon(w); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		for _, a := range file.Ammo {
			if err := reg.RegisterAmmo(a); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return reg, nil
}
