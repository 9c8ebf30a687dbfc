package inventory

// Slot identifies a weapon-bearing equipment slot.
type Slot string

const (
	MainHand Slot = "main_hand"
	OffHand  Slot = "off_hand"
)

// Equipment is one combatant's wielded weapons, quiver, and the unequipped
// stock that thrown weapons and ammunition are replaced from.
// It is not safe for concurrent use.
type Equipment struct {
	mainHand    *WeaponDef
	offHand     *WeaponDef
	quiver      *AmmoDef
	quiverCount int
	weaponStock map[string]*stocked[WeaponDef]
	ammoStock   map[string]*stocked[AmmoDef]
}

type stocked[T any] struct {
	def *T
	qty int
}

// NewEquipment returns empty equipment.
func NewEquipment() *Equipment {
	return &Equipment{
		weaponStock: make(map[string]*stocked[WeaponDef]),
		ammoStock:   make(map[string]*stocked[AmmoDef]),
	}
}

// Weapon returns the weapon in slot, or nil.
func (e *Equipment) Weapon(slot Slot) *WeaponDef {
	if slot == OffHand {
		return e.offHand
	}
	return e.mainHand
}

// Equip places w in slot; nil empties the slot.
func (e *Equipment) Equip(slot Slot, w *WeaponDef) {
	if slot == OffHand {
		e.offHand = w
		return
	}
	e.mainHand = w
}

// Quiver returns the equipped ammunition and its count.
func (e *Equipment) Quiver() (*AmmoDef, int) {
	return e.quiver, e.quiverCount
}

// EquipQuiver places qty of a in the quiver.
func (e *Equipment) EquipQuiver(a *AmmoDef, qty int) {
	e.quiver, e.quiverCount = a, qty
	if a == nil || qty <= 0 {
		e.quiver, e.quiverCount = nil, 0
	}
}

// StockWeapon adds qty unequipped copies of w.
func (e *Equipment) StockWeapon(w *WeaponDef, qty int) {
	if s, ok := e.weaponStock[w.ID]; ok {
		s.qty += qty
		return
	}
	e.weaponStock[w.ID] = &stocked[WeaponDef]{def: w, qty: qty}
}

// StockAmmo adds qty unequipped rounds of a.
func (e *Equipment) StockAmmo(a *AmmoDef, qty int) {
	if s, ok := e.ammoStock[a.ID]; ok {
		s.qty += qty
		return
	}
	e.ammoStock[a.ID] = &stocked[AmmoDef]{def: a, qty: qty}
}

// WeaponStock returns how many unequipped copies of weapon id remain.
func (e *Equipment) WeaponStock(id string) int {
	if s, ok := e.weaponStock[id]; ok {
		return s.qty
	}
	return 0
}

// AmmoStock returns how many unequipped rounds of ammo id remain.
func (e *Equipment) AmmoStock(id string) int {
	if s, ok := e.ammoStock[id]; ok {
		return s.qty
	}
	return 0
}

// QuiverMatches reports whether the quiver holds ammunition w can fire.
func (e *Equipment) QuiverMatches(w *WeaponDef) bool {
	return w != nil && w.UsesAmmo() && e.quiver != nil && e.quiverCount > 0 && e.quiver.Kind == w.Ammo
}

// ConsumeThrown removes the thrown weapon from slot and re-equips an identical
// one from stock when available. It reports whether a replacement was equipped.
func (e *Equipment) ConsumeThrown(slot Slot) bool {
	w := e.Weapon(slot)
	if w == nil {
		return false
	}
	e.Equip(slot, nil)
	s, ok := e.weaponStock[w.ID]
	if !ok || s.qty == 0 {
		return false
	}
	s.qty--
	e.Equip(slot, s.def)
	return true
}

// ConsumeAmmo spends one round from the quiver, refilling the quiver from
// stock of the same ammunition when it empties. It reports whether the
// quiver still holds ammunition afterwards.
func (e *Equipment) ConsumeAmmo() bool {
	if e.quiver == nil {
		return false
	}
	e.quiverCount--
	if e.quiverCount > 0 {
		return true
	}
	id := e.quiver.ID
	e.quiver, e.quiverCount = nil, 0
	if s, ok := e.ammoStock[id]; ok && s.qty > 0 {
		e.quiver, e.quiverCount = s.def, s.qty
		s.qty = 0
		return true
	}
	return false
}
