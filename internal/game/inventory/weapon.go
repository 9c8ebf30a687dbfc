// Package inventory defines weapon and ammunition data and the per-combatant
// equipment that attack resolution reads and consumes.
package inventory

import (
	"errors"
	"fmt"
)

// WeaponType distinguishes how a weapon reaches its target.
type WeaponType string

const (
	Melee    WeaponType = "melee"
	Thrown   WeaponType = "thrown"
	Bow      WeaponType = "bow"
	Crossbow WeaponType = "crossbow"
	Sling    WeaponType = "sling"
)

// ExtraDamage is damage rolled separately from the base roll and never
// multiplied by a critical hit.
type ExtraDamage struct {
	Type string `yaml:"type"`
	Dice string `yaml:"dice"`
}

// Quality is the craftsmanship tier of an item.
type Quality struct {
	Name        string `yaml:"name"`
	AttackBonus int    `yaml:"attack_bonus"`
	DamageBonus int    `yaml:"damage_bonus"` // percent
}

// WeaponDef is the static description of a weapon.
type WeaponDef struct {
	ID                      string        `yaml:"id"`
	Name                    string        `yaml:"name"`
	BaseWeapon              string        `yaml:"base_weapon"`
	Type                    WeaponType    `yaml:"type"`
	DamageType              string        `yaml:"damage_type"`
	DamageMin               int           `yaml:"damage_min"`
	DamageMax               int           `yaml:"damage_max"`
	ExtraDamage             []ExtraDamage `yaml:"extra_damage"`
	AttackBonus             int           `yaml:"attack_bonus"` // enchantment
	DamageBonus             int           `yaml:"damage_bonus"` // enchantment percent
	Quality                 Quality       `yaml:"quality"`
	RangePenalty            int           `yaml:"range_penalty"` // per 100 feet
	MaximumRange            int           `yaml:"maximum_range"` // tiles
	Threatens               bool          `yaml:"threatens"`
	ThreatenMin             int           `yaml:"threaten_min"`
	ThreatenMax             int           `yaml:"threaten_max"`
	CriticalThreat          int           `yaml:"critical_threat"` // lowest natural roll that threatens
	CriticalMultiplier      int           `yaml:"critical_multiplier"`
	CriticalChance          int           `yaml:"critical_chance"`
	CriticalMultiplierBonus int           `yaml:"critical_multiplier_bonus"`
	Ammo                    string        `yaml:"ammo"` // ammunition kind for bows, crossbows and slings
	ProjectileIcon          string        `yaml:"projectile_icon"`
}

// Unarmed is the built-in strike used when no weapon resolves.
var Unarmed = &WeaponDef{
	ID:                 "unarmed",
	Name:               "Unarmed Strike",
	BaseWeapon:         "unarmed",
	Type:               Melee,
	DamageType:         "bludgeoning",
	DamageMin:          1,
	DamageMax:          3,
	Threatens:          true,
	ThreatenMin:        1,
	ThreatenMax:        1,
	CriticalThreat:     100,
	CriticalMultiplier: 2,
}

// IsMelee reports whether the weapon strikes adjacent targets by hand.
func (w *WeaponDef) IsMelee() bool { return w.Type == Melee }

// IsRanged reports whether the weapon is thrown or shoots ammunition.
func (w *WeaponDef) IsRanged() bool { return w.Type != Melee }

// UsesAmmo reports whether the weapon fires from a quiver.
func (w *WeaponDef) UsesAmmo() bool {
	return w.Type == Bow || w.Type == Crossbow || w.Type == Sling
}

// Validate checks that the WeaponDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (w *WeaponDef) Validate() error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	switch w.Type {
	case Melee, Thrown, Bow, Crossbow, Sling:
	default:
		errs = append(errs, fmt.Errorf("unknown type %q", w.Type))
	}
	if w.DamageMin < 0 || w.DamageMax < w.DamageMin {
		errs = append(errs, fmt.Errorf("damage range %d-%d is invalid", w.DamageMin, w.DamageMax))
	}
	if w.CriticalThreat < 1 || w.CriticalThreat > 100 {
		errs = append(errs, fmt.Errorf("critical_threat %d must be in 1..100", w.CriticalThreat))
	}
	if w.CriticalMultiplier < 1 {
		errs = append(errs, errors.New("critical_multiplier must be >= 1"))
	}
	if w.Threatens && (w.ThreatenMin < 1 || w.ThreatenMax < w.ThreatenMin) {
		errs = append(errs, fmt.Errorf("threaten range %d-%d is invalid", w.ThreatenMin, w.ThreatenMax))
	}
	if w.UsesAmmo() && w.Ammo == "" {
		errs = append(errs, errors.New("ammunition weapons must name an ammo kind"))
	}
	if w.IsRanged() && w.MaximumRange < 1 {
		errs = append(errs, errors.New("ranged weapons need maximum_range >= 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q: %w", w.ID, errors.Join(errs...))
	}
	return nil
}

// AmmoDef is the static description of a quiver item.
type AmmoDef struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Kind        string        `yaml:"kind"`
	AttackBonus int           `yaml:"attack_bonus"`
	DamageBonus int           `yaml:"damage_bonus"` // percent
	Quality     Quality       `yaml:"quality"`
	ExtraDamage []ExtraDamage `yaml:"extra_damage"`
}

// Validate checks that the AmmoDef satisfies its invariants.
func (a *AmmoDef) Validate() error {
	if a.ID == "" {
		return errors.New("ammo id must not be empty")
	}
	if a.Kind == "" {
		return fmt.Errorf("ammo %q: kind must not be empty", a.ID)
	}
	return nil
}
