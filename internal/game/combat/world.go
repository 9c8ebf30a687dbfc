package combat

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/condition"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/game/faction"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/game/spatial"
	"github.com/cory-johannsen/hexcombat/internal/game/world"
)

// World is the shared context of one area: terrain, the spatial index, the
// combatant arena, faction relationships, and the dice. A single mutex
// guards all of it; methods whose names end in Locked expect it held.
type World struct {
	mu sync.Mutex

	area     *world.Area
	index    *spatial.Index
	factions *faction.Registry
	rules    Rules
	roller   *dice.Roller
	logger   *zap.Logger
	sink     EventSink

	round          int
	combatants     map[string]*Combatant
	order          []string
	encounters     map[string]*Encounter
	encounterOrder []string
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithRules overrides DefaultRules.
func WithRules(r Rules) WorldOption { return func(w *World) { w.rules = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WorldOption { return func(w *World) { w.logger = l } }

// WithSink sets the event sink.
func WithSink(s EventSink) WorldOption { return func(w *World) { w.sink = s } }

// NewWorld creates the context for area. The area's doors are indexed.
//
// Precondition: area, factions and roller must not be nil.
func NewWorld(area *world.Area, factions *faction.Registry, roller *dice.Roller, opts ...WorldOption) (*World, error) {
	w := &World{
		area:       area,
		index:      spatial.NewIndex(area.Width, area.Height),
		factions:   factions,
		rules:      DefaultRules(),
		roller:     roller,
		logger:     zap.NewNop(),
		combatants: make(map[string]*Combatant),
		encounters: make(map[string]*Encounter),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.sink == nil {
		w.sink = NewLogSink(w.logger)
	}
	for _, d := range area.Doors() {
		if err := w.index.Add(d); err != nil {
			return nil, fmt.Errorf("indexing door: %w", err)
		}
	}
	return w, nil
}

// Area returns the terrain model.
func (w *World) Area() *world.Area { return w.area }

// Rules returns the rule set.
func (w *World) Rules() Rules { return w.rules }

// Factions returns the faction registry.
func (w *World) Factions() *faction.Registry { return w.factions }

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger { return w.logger }

// Round returns the number of combat rounds begun in this area.
func (w *World) Round() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.round
}

// Spawn adds c to the arena and the spatial index. Players without an
// encounter join PartyEncounter. A combatant naming an encounter that does
// not exist yet creates it with the combatant's faction.
func (w *World) Spawn(c *Combatant) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnLocked(c)
}

func (w *World) spawnLocked(c *Combatant) error {
	if _, ok := w.combatants[c.ID]; ok {
		return fmt.Errorf("combatant %q already spawned", c.ID)
	}
	if err := w.index.Add(c); err != nil {
		return err
	}
	w.combatants[c.ID] = c
	w.order = append(w.order, c.ID)
	if c.IsPlayer() && c.Encounter == "" {
		c.Encounter = PartyEncounter
	}
	if c.Encounter != "" {
		w.encounterLocked(c.Encounter, c.Faction).addMember(c.ID)
	}
	c.Budget.Reset(w.maxAP(c))
	return nil
}

// Despawn removes id from the arena and the index. It reports whether id was present.
func (w *World) Despawn(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.despawnLocked(id)
}

func (w *World) despawnLocked(id string) bool {
	c, ok := w.combatants[id]
	if !ok {
		return false
	}
	w.index.Remove(id)
	delete(w.combatants, id)
	for i, other := range w.order {
		if other == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	if e, ok := w.encounters[c.Encounter]; ok {
		e.removeMember(id)
	}
	return true
}

// Place moves id to p without provoking attacks of opportunity.
func (w *World) Place(id string, p hex.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.combatants[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCombatant, id)
	}
	if err := w.index.Move(id, p); err != nil {
		return err
	}
	c.Pos = p
	return nil
}

// Update runs fn on the combatant with id while holding the World lock.
func (w *World) Update(id string, fn func(c *Combatant)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.combatants[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCombatant, id)
	}
	fn(c)
	return nil
}

// ApplyCondition applies def to the combatant with id.
func (w *World) ApplyCondition(id string, def *condition.ConditionDef, stacks, duration int) error {
	var err error
	if uerr := w.Update(id, func(c *Combatant) { err = c.Conditions.Apply(def, stacks, duration) }); uerr != nil {
		return uerr
	}
	return err
}

// View returns a snapshot of the combatant with id.
func (w *World) View(id string) (View, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.combatants[id]
	if !ok {
		return View{}, false
	}
	return c.view(), true
}

// Views returns snapshots of every combatant in spawn order.
func (w *World) Views() []View {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]View, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.combatants[id].view())
	}
	return out
}

// CanSee reports whether the combatant with viewerID has line of sight to p.
func (w *World) CanSee(viewerID string, p hex.Point) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.combatants[viewerID]
	return ok && w.canSeeLocked(c, p)
}

// VisibleHostiles returns the living hostiles viewerID can see, nearest first.
func (w *World) VisibleHostiles(viewerID string) []View {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.combatants[viewerID]
	if !ok {
		return nil
	}
	hs := w.visibleHostilesLocked(c)
	out := make([]View, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.view())
	}
	return out
}

// DeceasedIDs returns removed combatants whose timed conditions are still running.
func (w *World) DeceasedIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index.Deceased().IDs()
}

func (w *World) get(id string) *Combatant { return w.combatants[id] }

func (w *World) emitLocked(kind EventKind, subject, format string, args ...any) {
	w.sink.Emit(Event{Kind: kind, Subject: subject, Round: w.round, Text: fmt.Sprintf(format, args...)})
}

func (w *World) visibilityRadius() int {
	if w.area.VisibilityRadius > 0 {
		return w.area.VisibilityRadius
	}
	return world.DefaultVisibilityRadius
}

func (w *World) maxAP(c *Combatant) int {
	return w.rules.BaseActionPoints + c.Stats.ActionPointBonus*100
}

func (w *World) attackCost(c *Combatant) int {
	if c.Stats.AttackCost > 0 {
		return c.Stats.AttackCost
	}
	return w.rules.AttackCost
}

func (w *World) movementCost(c *Combatant) int {
	if c.Stats.MovementCost > 0 {
		return c.Stats.MovementCost
	}
	return w.rules.MovementCost
}

func (w *World) hostileLocked(a, b *Combatant) bool {
	return w.factions.IsHostile(a.Faction, b.Faction)
}

// canSeeLocked reports whether c has line of sight to p: within the
// visibility radius with no opaque tile strictly between them. Blind
// combatants see only adjacent tiles.
func (w *World) canSeeLocked(c *Combatant, p hex.Point) bool {
	if c.Pos == p {
		return true
	}
	d := hex.Distance(c.Pos, p)
	if c.Blind() {
		return d <= 1
	}
	if d > w.visibilityRadius() {
		return false
	}
	line := hex.Line(c.Pos, p)
	for _, q := range line[:len(line)-1] {
		if !w.area.Transparent(q) {
			return false
		}
	}
	return true
}

// visibleLocked reports whether viewer can see target. Hidden targets are
// seen only by friends.
func (w *World) visibleLocked(viewer, target *Combatant) bool {
	if !w.canSeeLocked(viewer, target.Pos) {
		return false
	}
	return !target.Hidden() || w.factions.IsFriendly(viewer.Faction, target.Faction)
}

func (w *World) visibleHostilesLocked(c *Combatant) []*Combatant {
	var out []*Combatant
	for _, cr := range w.index.CreaturesWithinRadius(c.Pos, w.visibilityRadius()) {
		h, ok := cr.(*Combatant)
		if !ok || h == c || h.Downed() || !w.hostileLocked(c, h) {
			continue
		}
		if w.visibleLocked(c, h) {
			out = append(out, h)
		}
	}
	return out
}

// threatensLocked reports whether c could make an attack of opportunity
// against a creature at p.
func (w *World) threatensLocked(c *Combatant, p hex.Point) bool {
	if c.Helpless() {
		return false
	}
	wpn := c.Weapon(inventory.MainHand, nil)
	if !wpn.Threatens || !w.canSeeLocked(c, p) {
		return false
	}
	if wpn.IsMelee() && w.area.Elevation(c.Pos) != w.area.Elevation(p) {
		return false
	}
	d := hex.Distance(c.Pos, p)
	return d >= wpn.ThreatenMin && d <= wpn.ThreatenMax
}

// inRangeLocked reports whether c can reach p with wpn.
func (w *World) inRangeLocked(c *Combatant, wpn *inventory.WeaponDef, p hex.Point) bool {
	d := hex.Distance(c.Pos, p)
	if wpn.IsMelee() {
		lo, hi := max(wpn.ThreatenMin, 1), max(wpn.ThreatenMax, 1)
		return w.area.Elevation(c.Pos) == w.area.Elevation(p) && d >= lo && d <= hi
	}
	if d > wpn.MaximumRange {
		return false
	}
	if wpn.UsesAmmo() {
		return c.Equipment.QuiverMatches(wpn)
	}
	return true
}

// canAttackLocked reports whether attacker may attack defender with its main
// weapon, ignoring the action budget.
func (w *World) canAttackLocked(attacker, defender *Combatant) bool {
	if attacker == defender || attacker.Helpless() || defender.Dead {
		return false
	}
	if !w.visibleLocked(attacker, defender) {
		return false
	}
	return w.inRangeLocked(attacker, attacker.Weapon(inventory.MainHand, w.logger), defender.Pos)
}

// passableLocked reports whether mover may end a step on p: the tile is in
// bounds, not opaque, and passable for mover in the spatial index. A step
// ends on p, so an ally still standing there blocks it as well.
func (w *World) passableLocked(mover *Combatant, p hex.Point) bool {
	if !w.area.InBounds(p) || w.area.Terrain(p).Opaque {
		return false
	}
	if d, ok := w.area.DoorAt(p); ok && !d.IsOpen() {
		return false
	}
	if !w.index.Passable(p, mover, w.factions.IsFriendly) {
		return false
	}
	for _, e := range w.index.AtOfType(p, spatial.KindCreature) {
		if cr, ok := e.(spatial.Creature); ok && cr.EntityID() != mover.ID && !cr.Helpless() {
			return false
		}
	}
	return true
}
