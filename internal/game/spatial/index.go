// Package spatial provides a grid-bucketed index of every entity in an area.
//
// The index is not safe for concurrent use. It is owned by the combat world
// context, which serializes access.
package spatial

import (
	"fmt"

	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// Kind classifies an entity for type-filtered queries.
type Kind int

const (
	KindCreature Kind = iota
	KindDoor
	KindItem
	KindTrap
)

func (k Kind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindDoor:
		return "door"
	case KindItem:
		return "item"
	case KindTrap:
		return "trap"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is anything placed on the grid.
type Entity interface {
	EntityID() string
	EntityKind() Kind
	Position() hex.Point
}

// Creature is an entity that belongs to a faction and may block movement.
type Creature interface {
	Entity
	FactionID() string
	Helpless() bool
}

// Door is an entity that blocks movement while closed.
type Door interface {
	Entity
	IsOpen() bool
}

// Index buckets entities by grid cell and also keeps an insertion-ordered
// list of all entities.
//
// Invariant: every entity appears in exactly one bucket, the one matching the
// position recorded for it by Add or Move.
type Index struct {
	width, height int
	cells         [][]Entity
	entities      map[string]Entity
	positions     map[string]hex.Point
	order         []string
	deceased      *DeceasedTracker
}

// NewIndex creates an empty index for a width x height area.
//
// Precondition: width > 0 and height > 0.
func NewIndex(width, height int) *Index {
	return &Index{
		width:     width,
		height:    height,
		cells:     make([][]Entity, width*height),
		entities:  make(map[string]Entity),
		positions: make(map[string]hex.Point),
		deceased:  NewDeceasedTracker(),
	}
}

// Width returns the grid width.
func (ix *Index) Width() int { return ix.width }

// Height returns the grid height.
func (ix *Index) Height() int { return ix.height }

// InBounds reports whether p lies on the grid.
func (ix *Index) InBounds(p hex.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < ix.width && p.Y < ix.height
}

func (ix *Index) cell(p hex.Point) int { return p.Y*ix.width + p.X }

// Add places e in the bucket for e.Position().
//
// Postcondition: on success, At(e.Position()) contains e.
func (ix *Index) Add(e Entity) error {
	id := e.EntityID()
	if _, ok := ix.entities[id]; ok {
		return fmt.Errorf("spatial: entity %q already indexed", id)
	}
	p := e.Position()
	if !ix.InBounds(p) {
		return fmt.Errorf("spatial: entity %q at %v is out of bounds", id, p)
	}
	ix.entities[id] = e
	ix.positions[id] = p
	ix.order = append(ix.order, id)
	ix.cells[ix.cell(p)] = append(ix.cells[ix.cell(p)], e)
	return nil
}

// Remove drops the entity with id. It reports whether the entity was present.
func (ix *Index) Remove(id string) bool {
	if _, ok := ix.entities[id]; !ok {
		return false
	}
	ix.unbucket(id, ix.positions[id])
	delete(ix.entities, id)
	delete(ix.positions, id)
	for i, other := range ix.order {
		if other == id {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
	return true
}

// Move relocates the entity with id from its recorded cell to to.
//
// Postcondition: on success the entity is in the bucket for to and no other.
func (ix *Index) Move(id string, to hex.Point) error {
	from, ok := ix.positions[id]
	if !ok {
		return fmt.Errorf("spatial: entity %q not indexed", id)
	}
	if !ix.InBounds(to) {
		return fmt.Errorf("spatial: move of %q to %v is out of bounds", id, to)
	}
	e := ix.entities[id]
	ix.unbucket(id, from)
	ix.positions[id] = to
	ix.cells[ix.cell(to)] = append(ix.cells[ix.cell(to)], e)
	return nil
}

func (ix *Index) unbucket(id string, p hex.Point) {
	bucket := ix.cells[ix.cell(p)]
	for i, e := range bucket {
		if e.EntityID() == id {
			ix.cells[ix.cell(p)] = append(bucket[:i:i], bucket[i+1:]...)
			return
		}
	}
}

// Get returns the entity with id.
func (ix *Index) Get(id string) (Entity, bool) {
	e, ok := ix.entities[id]
	return e, ok
}

// PositionOf returns the recorded position of id.
func (ix *Index) PositionOf(id string) (hex.Point, bool) {
	p, ok := ix.positions[id]
	return p, ok
}

// Len returns the number of indexed entities.
func (ix *Index) Len() int { return len(ix.entities) }

// All returns every entity in insertion order.
func (ix *Index) All() []Entity {
	out := make([]Entity, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.entities[id])
	}
	return out
}

// At returns the entities in cell p. Out-of-bounds points are empty.
func (ix *Index) At(p hex.Point) []Entity {
	if !ix.InBounds(p) {
		return nil
	}
	bucket := ix.cells[ix.cell(p)]
	out := make([]Entity, len(bucket))
	copy(out, bucket)
	return out
}

// AtOfType returns the entities of kind in cell p.
func (ix *Index) AtOfType(p hex.Point, kind Kind) []Entity {
	if !ix.InBounds(p) {
		return nil
	}
	var out []Entity
	for _, e := range ix.cells[ix.cell(p)] {
		if e.EntityKind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// CreatureAt returns the first creature in cell p, if any.
func (ix *Index) CreatureAt(p hex.Point) (Creature, bool) {
	for _, e := range ix.AtOfType(p, KindCreature) {
		if c, ok := e.(Creature); ok {
			return c, true
		}
	}
	return nil, false
}

// WithinRadius returns entities no more than radius steps from center,
// nearest rings first. Only cells on the scanned rings are visited.
func (ix *Index) WithinRadius(center hex.Point, radius int) []Entity {
	var out []Entity
	for r := 0; r <= radius; r++ {
		for _, p := range hex.Ring(center, r) {
			if !ix.InBounds(p) {
				continue
			}
			out = append(out, ix.cells[ix.cell(p)]...)
		}
	}
	return out
}

// CreaturesWithinRadius is WithinRadius filtered to creatures.
func (ix *Index) CreaturesWithinRadius(center hex.Point, radius int) []Creature {
	var out []Creature
	for _, e := range ix.WithinRadius(center, radius) {
		if c, ok := e.(Creature); ok && e.EntityKind() == KindCreature {
			out = append(out, c)
		}
	}
	return out
}

// PassabilityMask returns a [x][y] grid that is true where mover may enter.
// A cell is impassable when it holds a closed door, or a creature that is
// neither friendly to mover nor helpless. The mover's own cell is passable.
func (ix *Index) PassabilityMask(mover Creature, friendly func(a, b string) bool) [][]bool {
	mask := make([][]bool, ix.width)
	for x := range mask {
		mask[x] = make([]bool, ix.height)
		for y := range mask[x] {
			mask[x][y] = ix.Passable(hex.Pt(x, y), mover, friendly)
		}
	}
	return mask
}

// Passable reports whether mover may pass through p under the rules of
// PassabilityMask. Out-of-bounds cells are never passable.
func (ix *Index) Passable(p hex.Point, mover Creature, friendly func(a, b string) bool) bool {
	if !ix.InBounds(p) {
		return false
	}
	for _, e := range ix.cells[ix.cell(p)] {
		switch v := e.(type) {
		case Door:
			if e.EntityKind() == KindDoor && !v.IsOpen() {
				return false
			}
		case Creature:
			if v.EntityKind() != KindCreature || v.Helpless() {
				continue
			}
			if mover != nil && (v.EntityID() == mover.EntityID() || friendly(mover.FactionID(), v.FactionID())) {
				continue
			}
			return false
		}
	}
	return true
}

// Deceased returns the side index of removed entities whose timed effects
// are still running.
func (ix *Index) Deceased() *DeceasedTracker { return ix.deceased }
