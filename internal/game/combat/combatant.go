// Package combat implements hex-grid tactical combat: the shared world
// context, the turn scheduler, attack resolution, attacks of opportunity,
// and encounter activation.
package combat

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/condition"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/game/spatial"
)

// Kind distinguishes player-controlled combatants from NPCs.
type Kind int

const (
	KindPlayer Kind = iota
	KindNPC
)

func (k Kind) String() string {
	if k == KindPlayer {
		return "player"
	}
	return "npc"
}

// Stats holds the derived combat statistics of a combatant. Percentages are
// whole numbers; action point values are in hundredths.
type Stats struct {
	LevelAttackBonus          int  `yaml:"level_attack_bonus"`
	LevelDamageBonus          int  `yaml:"level_damage_bonus"` // percent
	MainHandAttackBonus       int  `yaml:"main_hand_attack_bonus"`
	MainHandDamageBonus       int  `yaml:"main_hand_damage_bonus"` // percent
	OffHandAttackBonus        int  `yaml:"off_hand_attack_bonus"`
	OffHandDamageBonus        int  `yaml:"off_hand_damage_bonus"` // percent
	TouchAttackBonus          int  `yaml:"touch_attack_bonus"`
	ArmorClass                int  `yaml:"armor_class"`
	TouchArmorClass           int  `yaml:"touch_armor_class"`
	Initiative                int  `yaml:"initiative"`
	ActionPointBonus          int  `yaml:"action_point_bonus"` // whole points
	AttackCost                int  `yaml:"attack_cost"`
	MovementCost              int  `yaml:"movement_cost"`
	RangePenaltyReduction     int  `yaml:"range_penalty_reduction"` // percent
	Concealment               int  `yaml:"concealment"`
	ConcealmentNegation       int  `yaml:"concealment_negation"`
	ConcealmentIgnoring       int  `yaml:"concealment_ignoring"`
	ConcealmentIgnoringRanged int  `yaml:"concealment_ignoring_ranged"`
	FlankingAngle             int  `yaml:"flanking_angle"`
	AttacksOfOpportunity      int  `yaml:"attacks_of_opportunity"`
	CriticalHitImmunity       bool `yaml:"critical_hit_immunity"`
	ImmuneToRangedAoO         bool `yaml:"immune_to_ranged_aoo"`
	ExtraAttack               int  `yaml:"extra_attack"`
	ExtraDamage               int  `yaml:"extra_damage"`

	// Keyed by base weapon.
	CriticalChance     map[string]int `yaml:"critical_chance"`
	CriticalMultiplier map[string]int `yaml:"critical_multiplier"`
	// Keyed by the defender's racial type.
	AttackVsRacial map[string]int `yaml:"attack_vs_racial"`
	DamageVsRacial map[string]int `yaml:"damage_vs_racial"` // percent
	// Keyed by the attacker's racial type.
	ACVsRacial map[string]int `yaml:"ac_vs_racial"`
	// Keyed by damage type of the weapon used.
	AttackForDamageType map[string]int `yaml:"attack_for_damage_type"`
	DamageForDamageType map[string]int `yaml:"damage_for_damage_type"` // percent
	// Resistance reduces incoming damage of a type by a percentage.
	Resistance map[string]int `yaml:"resistance"`
}

// Combatant is one creature taking part in an area's combat. Combatants live
// in the World arena and are referenced elsewhere by ID; all mutation happens
// while the World lock is held.
type Combatant struct {
	ID        string
	Name      string
	Kind      Kind
	Faction   string
	Encounter string
	// Summoned player-side creatures do not count toward party defeat.
	Summoned bool
	// AIActive NPCs take turns in combat; inactive ones are skipped.
	AIActive bool
	// Behavior names the registered behavior that drives this combatant.
	Behavior    string
	RacialTypes []string

	Stats     Stats
	MaxHP     int
	CurrentHP int
	Dying     bool
	Dead      bool

	Pos           hex.Point
	DefaultWeapon *inventory.WeaponDef
	Equipment     *inventory.Equipment
	Conditions    *condition.ActiveSet
	Budget        ActionBudget

	aooUsed     int
	moveAoOFrom map[string]bool
}

// NewCombatant creates a combatant at full health with empty equipment.
func NewCombatant(id, name string, kind Kind, faction string, maxHP int) *Combatant {
	return &Combatant{
		ID:          id,
		Name:        name,
		Kind:        kind,
		Faction:     faction,
		MaxHP:       maxHP,
		CurrentHP:   maxHP,
		Stats:       Stats{AttacksOfOpportunity: 1},
		Equipment:   inventory.NewEquipment(),
		Conditions:  condition.NewActiveSet(),
		moveAoOFrom: make(map[string]bool),
	}
}

func (c *Combatant) EntityID() string { return c.ID }
func (c *Combatant) EntityKind() spatial.Kind { return spatial.KindCreature }
func (c *Combatant) Position() hex.Point { return c.Pos }
func (c *Combatant) FactionID() string { return c.Faction }

// IsPlayer reports whether the combatant is player-controlled.
func (c *Combatant) IsPlayer() bool { return c.Kind == KindPlayer }

// Helpless reports whether the combatant cannot act or defend itself.
func (c *Combatant) Helpless() bool {
	return c.Dead || c.Dying || condition.IsHelpless(c.Conditions)
}

// Hidden reports whether the combatant is concealed from hostile sight.
func (c *Combatant) Hidden() bool { return condition.IsHidden(c.Conditions) }

// Blind reports whether the combatant cannot see beyond adjacent tiles.
func (c *Combatant) Blind() bool { return condition.IsBlind(c.Conditions) }

// Downed reports whether the combatant is dead or dying.
func (c *Combatant) Downed() bool { return c.Dead || c.Dying }

// ArmorClass returns armor class including condition modifiers.
func (c *Combatant) ArmorClass() int { return c.Stats.ArmorClass + condition.ACBonus(c.Conditions) }

// TouchArmorClass returns touch armor class including condition modifiers.
func (c *Combatant) TouchArmorClass() int {
	return c.Stats.TouchArmorClass + condition.ACBonus(c.Conditions)
}

// Weapon returns the weapon wielded in slot. An empty main hand falls back to
// the default weapon and then to an unarmed strike; an empty off hand is nil.
func (c *Combatant) Weapon(slot inventory.Slot, logger *zap.Logger) *inventory.WeaponDef {
	if w := c.Equipment.Weapon(slot); w != nil {
		return w
	}
	if slot == inventory.OffHand {
		return nil
	}
	if c.DefaultWeapon != nil {
		return c.DefaultWeapon
	}
	if logger != nil {
		logger.Warn("no weapon resolved; using unarmed strike", zap.String("combatant", c.ID))
	}
	return inventory.Unarmed
}

func (c *Combatant) hasOpportunityAttack() bool {
	return c.aooUsed < c.Stats.AttacksOfOpportunity
}

// ElapseRounds advances timed conditions and reports whether any
// round-limited condition remains.
func (c *Combatant) ElapseRounds(rounds int) bool {
	for i := 0; i < rounds; i++ {
		c.Conditions.Tick()
	}
	for _, ac := range c.Conditions.All() {
		if ac.DurationRemaining > 0 {
			return true
		}
	}
	return false
}

// elapseRound advances one round: conditions tick, opportunity attacks
// refresh, and a dying combatant loses one hit point.
//
// Postcondition: returns the expired condition ids and whether the combatant
// died from bleeding out.
func (c *Combatant) elapseRound() ([]string, bool) {
	expired := c.Conditions.Tick()
	c.aooUsed = 0
	clear(c.moveAoOFrom)
	if !c.Dying {
		return expired, false
	}
	c.CurrentHP--
	if c.CurrentHP <= DeathThreshold {
		c.Dying, c.Dead = false, true
		return expired, true
	}
	return expired, false
}

// takeDamage subtracts hp and updates the dying and dead flags. Players that
// are not summoned fall dying between 0 and DeathThreshold; everyone else dies at 0.
//
// Postcondition: returns true if the combatant died.
func (c *Combatant) takeDamage(hp int) bool {
	if hp <= 0 || c.Dead {
		return false
	}
	c.CurrentHP -= hp
	if c.CurrentHP > 0 {
		return false
	}
	if c.IsPlayer() && !c.Summoned && c.CurrentHP > DeathThreshold {
		c.Dying = true
		return false
	}
	c.Dying, c.Dead = false, true
	return true
}

// Heal restores hp up to MaxHP. A dying combatant brought above 0 recovers.
func (c *Combatant) Heal(hp int) {
	if c.Dead || hp <= 0 {
		return
	}
	c.CurrentHP = min(c.CurrentHP+hp, c.MaxHP)
	if c.CurrentHP > 0 {
		c.Dying = false
	}
}

// View is a read-only snapshot of a combatant, safe to hand to behaviors and
// scripts running outside the World lock.
type View struct {
	ID        string
	Name      string
	Kind      Kind
	Faction   string
	Encounter string
	Pos       hex.Point
	HP        int
	MaxHP     int
	Dying     bool
	Dead      bool
	Helpless  bool
	Hidden    bool
	AIActive  bool
	AP        int
	MaxAP     int
	WeaponID  string
}

func (c *Combatant) view() View {
	w := c.Equipment.Weapon(inventory.MainHand)
	if w == nil {
		w = c.DefaultWeapon
	}
	if w == nil {
		w = inventory.Unarmed
	}
	return View{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		Faction:   c.Faction,
		Encounter: c.Encounter,
		Pos:       c.Pos,
		HP:        c.CurrentHP,
		MaxHP:     c.MaxHP,
		Dying:     c.Dying,
		Dead:      c.Dead,
		Helpless:  c.Helpless(),
		Hidden:    c.Hidden(),
		AIActive:  c.AIActive,
		AP:        c.Budget.Remaining(),
		MaxAP:     c.Budget.Max(),
		WeaponID:  w.ID,
	}
}
