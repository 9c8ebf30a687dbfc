package combat

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/condition"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
)

// AttackKind distinguishes weapon attacks from touch attacks.
type AttackKind int

const (
	AttackWeapon AttackKind = iota
	AttackMeleeTouch
	AttackRangedTouch
)

func (k AttackKind) String() string {
	switch k {
	case AttackMeleeTouch:
		return "melee touch"
	case AttackRangedTouch:
		return "ranged touch"
	default:
		return "weapon"
	}
}

// AttackResolution is the finished, immutable record of one attack.
type AttackResolution struct {
	Kind       AttackKind
	AttackerID string
	DefenderID string
	Slot       inventory.Slot
	WeaponID   string
	Ranged     bool

	AttackRoll    int
	AttackBonus   int
	TotalAttack   int
	DefenderAC    int
	Concealment   int
	RangePenalty  int
	FlankingBonus int
	FlankerID     string

	DamageRoll    int
	DamagePercent int
	ThreatRange   int
	ThreatRoll    int
	Critical      bool
	Multiplier    int
	Hit           bool
	// Damage is keyed by damage type and is set only on a hit.
	Damage        map[string]int
	TotalDamage   int
	DamageNegated bool
}

// String renders the attack for the combat log.
func (r AttackResolution) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s attacks %s: %d + %d = %d vs AC %d", r.AttackerID, r.DefenderID,
		r.AttackRoll, r.AttackBonus, r.TotalAttack, r.DefenderAC)
	if r.FlankerID != "" {
		fmt.Fprintf(&b, " (flanking with %s)", r.FlankerID)
	}
	if !r.Hit {
		b.WriteString(". Miss.")
		return b.String()
	}
	if r.ThreatRoll > 0 {
		fmt.Fprintf(&b, ". Critical threat: %d + %d = %d", r.ThreatRoll, r.AttackBonus, r.ThreatRoll+r.AttackBonus)
		if r.Critical {
			fmt.Fprintf(&b, ". Critical hit x%d", r.Multiplier)
		} else {
			b.WriteString(". Normal hit")
		}
	}
	if r.Kind != AttackWeapon {
		b.WriteString(". Hit.")
		return b.String()
	}
	if r.DamageNegated {
		b.WriteString(". Hit, but the damage is negated.")
		return b.String()
	}
	fmt.Fprintf(&b, ". Hits for %d damage.", r.TotalDamage)
	return b.String()
}

// attack is the working state of one attack between preparation, when dice
// are rolled and ammunition spent, and finish, when the hit is decided.
type attack struct {
	kind       AttackKind
	attackerID string
	defenderID string
	slot       inventory.Slot
	weapon     *inventory.WeaponDef

	attackRoll    int
	attackBonus   int
	defenderAC    int
	concealment   int
	rangePenalty  int
	damageRoll    int
	damagePercent int
	baseDamage    int
	standalone    map[string]int

	flankingBonus int
	flankerID     string
	extraAttack   int
	extraDamage   int
	negate        bool
}

func (a *attack) ranged() bool {
	if a.kind == AttackWeapon {
		return a.weapon.IsRanged()
	}
	return a.kind == AttackRangedTouch
}

func (a *attack) info() AttackInfo {
	info := AttackInfo{
		AttackerID: a.attackerID,
		DefenderID: a.defenderID,
		Ranged:     a.ranged(),
		Touch:      a.kind != AttackWeapon,
	}
	if a.weapon != nil {
		info.WeaponID = a.weapon.ID
	}
	return info
}

// adjust applies hook adjustments. Extra attack and damage are later ignored
// against critical-hit-immune defenders.
func (a *attack) adjust(adj Adjustment) {
	a.extraAttack += adj.AttackBonus
	a.defenderAC += adj.DefenderAC
	a.extraDamage += adj.ExtraDamage
	a.negate = a.negate || adj.NegateDamage
}

// AttackResolver turns an attacker, a defender and a slot into an
// AttackResolution.
type AttackResolver struct {
	w *World
}

// NewAttackResolver creates a resolver over w.
func NewAttackResolver(w *World) *AttackResolver { return &AttackResolver{w: w} }

// Resolve performs a complete weapon attack without applying damage.
// Ammunition and thrown weapons are consumed.
//
// Precondition: both ids resolve in the arena.
func (r *AttackResolver) Resolve(attackerID, defenderID string, slot inventory.Slot) (AttackResolution, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	a, d := r.w.get(attackerID), r.w.get(defenderID)
	if a == nil || d == nil {
		return AttackResolution{}, fmt.Errorf("%w: %s or %s", ErrUnknownCombatant, attackerID, defenderID)
	}
	at, ok := r.prepareWeaponLocked(a, d, slot)
	if !ok {
		return AttackResolution{}, fmt.Errorf("combatant %s has no weapon in %s", attackerID, slot)
	}
	r.flankLocked(at, a, d)
	return r.finishLocked(at, a, d), nil
}

// ResolveTouch performs a complete touch attack.
func (r *AttackResolver) ResolveTouch(attackerID, defenderID string, ranged bool) (AttackResolution, error) {
	r.w.mu.Lock()
	defer r.w.mu.Unlock()
	a, d := r.w.get(attackerID), r.w.get(defenderID)
	if a == nil || d == nil {
		return AttackResolution{}, fmt.Errorf("%w: %s or %s", ErrUnknownCombatant, attackerID, defenderID)
	}
	return r.finishLocked(r.prepareTouchLocked(a, d, ranged), a, d), nil
}

// prepareWeaponLocked computes every modifier, consumes ammunition or the
// thrown weapon, and rolls the attack and damage dice. It reports false when
// slot is the off hand and holds no weapon.
func (r *AttackResolver) prepareWeaponLocked(a, d *Combatant, slot inventory.Slot) (*attack, bool) {
	w := r.w
	wpn := a.Weapon(slot, w.logger)
	if wpn == nil {
		return nil, false
	}
	at := &attack{
		kind:          AttackWeapon,
		attackerID:    a.ID,
		defenderID:    d.ID,
		slot:          slot,
		weapon:        wpn,
		damagePercent: 100,
		standalone:    make(map[string]int),
	}
	if slot == inventory.OffHand {
		at.attackBonus = a.Stats.OffHandAttackBonus
		at.damagePercent += a.Stats.OffHandDamageBonus
	} else {
		at.attackBonus = a.Stats.MainHandAttackBonus
		at.damagePercent += a.Stats.MainHandDamageBonus
	}

	at.concealment = w.concealmentLocked(a, d)
	if wpn.IsRanged() {
		at.concealment = max(0, at.concealment-a.Stats.ConcealmentIgnoringRanged)
	}
	at.defenderAC = d.ArmorClass() + at.concealment
	for _, rt := range a.RacialTypes {
		at.defenderAC += d.Stats.ACVsRacial[rt]
	}
	for _, rt := range d.RacialTypes {
		at.attackBonus += a.Stats.AttackVsRacial[rt]
		at.damagePercent += a.Stats.DamageVsRacial[rt]
	}

	var ammo *inventory.AmmoDef
	if wpn.IsRanged() {
		perHundredFeet := wpn.RangePenalty * (100 - a.Stats.RangePenaltyReduction) / 100
		feet := FeetPerTile * hex.Distance(a.Pos, d.Pos)
		at.rangePenalty = feet * perHundredFeet / 100
		switch {
		case wpn.Type == inventory.Thrown:
			if a.Equipment.Weapon(slot) == wpn {
				a.Equipment.ConsumeThrown(slot)
			}
		case a.Equipment.QuiverMatches(wpn):
			ammo, _ = a.Equipment.Quiver()
			a.Equipment.ConsumeAmmo()
		default:
			w.logger.Warn("no matching ammunition; attacking without ammo bonuses",
				zap.String("combatant", a.ID),
				zap.String("weapon", wpn.ID),
			)
		}
	}

	at.attackRoll = w.roller.D100()
	at.damageRoll = w.roller.Between(wpn.DamageMin, wpn.DamageMax)

	at.damagePercent += a.Stats.LevelDamageBonus + wpn.Quality.DamageBonus + wpn.DamageBonus
	at.attackBonus += a.Stats.LevelAttackBonus - at.rangePenalty + wpn.AttackBonus + wpn.Quality.AttackBonus
	if ammo != nil {
		at.damagePercent += ammo.Quality.DamageBonus + ammo.DamageBonus
		at.attackBonus += ammo.Quality.AttackBonus + ammo.AttackBonus
	}
	at.damagePercent += a.Stats.DamageForDamageType[wpn.DamageType] + condition.DamageBonus(a.Conditions)
	at.attackBonus += a.Stats.AttackForDamageType[wpn.DamageType] + condition.AttackBonus(a.Conditions)
	at.extraAttack = a.Stats.ExtraAttack
	at.extraDamage = a.Stats.ExtraDamage

	at.baseDamage = max(0, int(math.Round(float64(at.damageRoll)*float64(at.damagePercent)/100)))

	extras := slices.Clone(wpn.ExtraDamage)
	if ammo != nil {
		extras = append(extras, ammo.ExtraDamage...)
	}
	for _, ed := range extras {
		res, err := w.roller.RollExpr(ed.Dice)
		if err != nil {
			w.logger.Warn("bad extra damage expression", zap.String("weapon", wpn.ID), zap.Error(err))
			continue
		}
		at.standalone[ed.Type] += res.Total()
	}
	return at, true
}

func (r *AttackResolver) prepareTouchLocked(a, d *Combatant, ranged bool) *attack {
	at := &attack{
		kind:       AttackMeleeTouch,
		attackerID: a.ID,
		defenderID: d.ID,
	}
	if ranged {
		at.kind = AttackRangedTouch
	}
	at.concealment = r.w.concealmentLocked(a, d)
	at.defenderAC = d.TouchArmorClass() + at.concealment
	at.attackBonus = a.Stats.LevelAttackBonus + a.Stats.TouchAttackBonus + condition.AttackBonus(a.Conditions)
	for _, rt := range a.RacialTypes {
		at.defenderAC += d.Stats.ACVsRacial[rt]
	}
	for _, rt := range d.RacialTypes {
		at.attackBonus += a.Stats.AttackVsRacial[rt]
	}
	at.attackRoll = r.w.roller.D100()
	return at
}

// flankLocked grants the flanking bonus to melee weapon attacks.
func (r *AttackResolver) flankLocked(at *attack, a, d *Combatant) {
	if at.kind != AttackWeapon || !at.weapon.IsMelee() {
		return
	}
	if f, ok := r.w.flankerLocked(a, d); ok {
		at.flankingBonus = FlankingBonus
		at.flankerID = f.ID
	}
}

// finishLocked decides hit and critical and assembles the damage.
//
// Postcondition: Hit is true iff the natural roll is at least AutoHitRoll, or
// it exceeds AutoMissRoll and the total attack meets the defender's AC.
func (r *AttackResolver) finishLocked(at *attack, a, d *Combatant) AttackResolution {
	immune := d.Stats.CriticalHitImmunity
	bonus := at.attackBonus + at.flankingBonus
	if !immune {
		bonus += at.extraAttack
	}
	total := at.attackRoll + bonus
	res := AttackResolution{
		Kind:          at.kind,
		AttackerID:    at.attackerID,
		DefenderID:    at.defenderID,
		Slot:          at.slot,
		Ranged:        at.ranged(),
		AttackRoll:    at.attackRoll,
		AttackBonus:   bonus,
		TotalAttack:   total,
		DefenderAC:    at.defenderAC,
		Concealment:   at.concealment,
		RangePenalty:  at.rangePenalty,
		FlankingBonus: at.flankingBonus,
		FlankerID:     at.flankerID,
		DamageRoll:    at.damageRoll,
		DamagePercent: at.damagePercent,
		Multiplier:    1,
	}
	res.Hit = at.attackRoll >= AutoHitRoll || (at.attackRoll > AutoMissRoll && total >= at.defenderAC)
	if at.weapon != nil {
		res.WeaponID = at.weapon.ID
	}
	if !res.Hit || at.kind != AttackWeapon {
		return res
	}

	wpn := at.weapon
	res.ThreatRange = wpn.CriticalThreat - a.Stats.CriticalChance[wpn.BaseWeapon] - wpn.CriticalChance
	base := at.baseDamage
	if at.attackRoll >= res.ThreatRange && !immune {
		res.ThreatRoll = r.w.roller.D100()
		check := res.ThreatRoll + bonus
		res.Critical = check >= AutoHitRoll || check >= at.defenderAC
		if d.IsPlayer() && !r.w.rules.CriticalHitsOnPlayers {
			res.Critical = false
		}
		if res.Critical {
			res.Multiplier = wpn.CriticalMultiplier + a.Stats.CriticalMultiplier[wpn.BaseWeapon] + wpn.CriticalMultiplierBonus
			base *= res.Multiplier
		}
	}

	damage := map[string]int{wpn.DamageType: base}
	if !immune {
		damage[wpn.DamageType] += at.extraDamage
	}
	for typ, v := range at.standalone {
		damage[typ] += v
	}
	for typ, v := range damage {
		damage[typ] = max(0, v)
		res.TotalDamage += damage[typ]
	}
	res.Damage = damage
	res.DamageNegated = at.negate
	return res
}

// applyDamageLocked reduces each damage type by the defender's resistance and
// subtracts the sum from its hit points.
//
// Postcondition: returns the hit points removed and whether the defender died.
func (w *World) applyDamageLocked(d *Combatant, res AttackResolution) (int, bool) {
	if !res.Hit || res.DamageNegated || len(res.Damage) == 0 {
		return 0, false
	}
	applied := 0
	for _, typ := range slices.Sorted(maps.Keys(res.Damage)) {
		pct := min(100, d.Stats.Resistance[typ])
		applied += max(0, res.Damage[typ]*(100-pct)/100)
	}
	return applied, d.takeDamage(applied)
}
