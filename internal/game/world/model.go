// Package world provides the terrain model of a hex-grid area: opacity, area
// concealment, elevation, and doors.
package world

import (
	"fmt"

	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/spatial"
)

// DefaultVisibilityRadius is used when an area does not set its own.
const DefaultVisibilityRadius = 12

// Terrain describes one tile.
type Terrain struct {
	// Opaque tiles block line of sight.
	Opaque bool
	// Concealment is the percentage concealment the tile grants.
	Concealment int
	// ConcealmentNegation offsets Concealment, e.g. a lit brazier in fog.
	ConcealmentNegation int
	// Elevation is the height level; melee reaches only equal elevations.
	Elevation int
}

// Door is a spatial entity that blocks movement and sight while closed.
type Door struct {
	ID   string
	At   hex.Point
	open bool
}

// NewDoor creates a door at p.
func NewDoor(id string, p hex.Point, open bool) *Door {
	return &Door{ID: id, At: p, open: open}
}

func (d *Door) EntityID() string { return d.ID }
func (d *Door) EntityKind() spatial.Kind { return spatial.KindDoor }
func (d *Door) Position() hex.Point { return d.At }
func (d *Door) IsOpen() bool { return d.open }

// SetOpen opens or closes the door.
func (d *Door) SetOpen(open bool) { d.open = open }

// Area is a rectangular hex grid with per-tile terrain.
type Area struct {
	// ID uniquely identifies the area.
	ID string
	// Name is the display name.
	Name string
	// Width and Height are the grid dimensions in tiles.
	Width, Height int
	// VisibilityRadius bounds line of sight, in tiles.
	VisibilityRadius int
	// ScriptDir holds Lua hook scripts for this area. Empty = no scripts.
	ScriptDir string
	// ScriptInstructionLimit overrides the default VM instruction limit; 0 = default.
	ScriptInstructionLimit int

	tiles []Terrain
	doors map[hex.Point]*Door
}

// NewArea creates an open area of the given size.
//
// Precondition: width > 0 and height > 0.
func NewArea(id string, width, height int) *Area {
	return &Area{
		ID:               id,
		Name:             id,
		Width:            width,
		Height:           height,
		VisibilityRadius: DefaultVisibilityRadius,
		tiles:            make([]Terrain, width*height),
		doors:            make(map[hex.Point]*Door),
	}
}

// InBounds reports whether p lies on the grid.
func (a *Area) InBounds(p hex.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < a.Width && p.Y < a.Height
}

// Terrain returns the terrain at p; out-of-bounds tiles are opaque.
func (a *Area) Terrain(p hex.Point) Terrain {
	if !a.InBounds(p) {
		return Terrain{Opaque: true}
	}
	return a.tiles[p.Y*a.Width+p.X]
}

// SetTerrain replaces the terrain at p. Out-of-bounds points are ignored.
func (a *Area) SetTerrain(p hex.Point, t Terrain) {
	if a.InBounds(p) {
		a.tiles[p.Y*a.Width+p.X] = t
	}
}

// Transparent reports whether sight passes through p.
func (a *Area) Transparent(p hex.Point) bool {
	if a.Terrain(p).Opaque {
		return false
	}
	if d, ok := a.doors[p]; ok && !d.IsOpen() {
		return false
	}
	return true
}

// Elevation returns the elevation at p.
func (a *Area) Elevation(p hex.Point) int {
	return a.Terrain(p).Elevation
}

// AddDoor registers d with the area.
func (a *Area) AddDoor(d *Door) {
	a.doors[d.At] = d
}

// Doors returns every door of the area.
func (a *Area) Doors() []*Door {
	out := make([]*Door, 0, len(a.doors))
	for _, d := range a.doors {
		out = append(out, d)
	}
	return out
}

// DoorAt returns the door at p, if any.
func (a *Area) DoorAt(p hex.Point) (*Door, bool) {
	d, ok := a.doors[p]
	return d, ok
}

// Validate checks area invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (a *Area) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("area ID must not be empty")
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("area %q: dimensions %dx%d must be positive", a.ID, a.Width, a.Height)
	}
	if a.VisibilityRadius <= 0 {
		return fmt.Errorf("area %q: visibility_radius must be positive", a.ID)
	}
	for p, d := range a.doors {
		if !a.InBounds(p) {
			return fmt.Errorf("area %q: door %q at %v is out of bounds", a.ID, d.ID, p)
		}
	}
	return nil
}
