// Package hex implements geometry on an odd-q offset hexagonal grid.
//
// Columns are vertical; every odd column is shifted down by half a tile.
// Grid coordinates are converted to cube coordinates for distance, ring and
// line computations, and to screen coordinates for angle computations.
package hex

import (
	"fmt"
	"math"
)

// Screen projection constants for one tile.
const (
	// TileWidth is the horizontal distance between adjacent column centers.
	TileWidth = 54
	// TileHeight is the vertical distance between adjacent row centers.
	TileHeight = 64
	// TileOffsetX is the screen x of the center of column 0.
	TileOffsetX = 36
	// TileOffsetY is the screen y of the center of row 0 in an even column.
	TileOffsetY = 32
)

// Point is a grid coordinate.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// ScreenPoint is a projected screen coordinate.
type ScreenPoint struct {
	X float64
	Y float64
}

type cube struct {
	q, r, s int
}

func toCube(p Point) cube {
	q := p.X
	r := p.Y - (p.X-(p.X&1))/2
	return cube{q: q, r: r, s: -q - r}
}

func (c cube) point() Point {
	return Point{X: c.q, Y: c.r + (c.q-(c.q&1))/2}
}

func (c cube) add(o cube) cube {
	return cube{q: c.q + o.q, r: c.r + o.r, s: c.s + o.s}
}

func (c cube) scale(k int) cube {
	return cube{q: c.q * k, r: c.r * k, s: c.s * k}
}

// cubeDirections is ordered so that walking them in sequence traces a ring.
var cubeDirections = [6]cube{
	{q: 1, r: 0, s: -1},
	{q: 1, r: -1, s: 0},
	{q: 0, r: -1, s: 1},
	{q: -1, r: 0, s: 1},
	{q: -1, r: 1, s: 0},
	{q: 0, r: 1, s: -1},
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Distance returns the number of tile steps between a and b.
//
// Postcondition: Distance(a, b) == Distance(b, a) and Distance(a, a) == 0.
func Distance(a, b Point) int {
	ca, cb := toCube(a), toCube(b)
	return max(abs(ca.q-cb.q), abs(ca.r-cb.r), abs(ca.s-cb.s))
}

// Neighbors returns the six adjacent points of p, without bounds checks.
func Neighbors(p Point) []Point {
	c := toCube(p)
	out := make([]Point, 0, 6)
	for _, d := range cubeDirections {
		out = append(out, c.add(d).point())
	}
	return out
}

// Adjacent reports whether a and b are neighboring tiles.
func Adjacent(a, b Point) bool {
	return Distance(a, b) == 1
}

// Ring returns the points exactly radius steps from center, walking once
// around the ring. A radius of 0 yields the center alone.
//
// Postcondition: len(Ring(c, r)) == 6*r for r > 0.
func Ring(center Point, radius int) []Point {
	if radius <= 0 {
		return []Point{center}
	}
	out := make([]Point, 0, 6*radius)
	cur := toCube(center).add(cubeDirections[4].scale(radius))
	for side := 0; side < 6; side++ {
		for step := 0; step < radius; step++ {
			out = append(out, cur.point())
			cur = cur.add(cubeDirections[side])
		}
	}
	return out
}

// Line returns the tiles crossed walking from from to to. The starting tile
// is excluded and the destination tile is included; a zero-length line is empty.
//
// Postcondition: len(Line(a, b)) == Distance(a, b).
func Line(from, to Point) []Point {
	n := Distance(from, to)
	if n == 0 {
		return nil
	}
	a, b := toCube(from), toCube(to)
	// A small nudge keeps samples off tile edges so rounding is stable.
	const eps = 1e-6
	aq, ar, as := float64(a.q)+eps, float64(a.r)+eps, float64(a.s)-2*eps
	bq, br, bs := float64(b.q)+eps, float64(b.r)+eps, float64(b.s)-2*eps
	out := make([]Point, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		out = append(out, roundCube(
			aq+(bq-aq)*t,
			ar+(br-ar)*t,
			as+(bs-as)*t,
		).point())
	}
	return out
}

func roundCube(fq, fr, fs float64) cube {
	q, r, s := math.Round(fq), math.Round(fr), math.Round(fs)
	dq, dr, ds := math.Abs(q-fq), math.Abs(r-fr), math.Abs(s-fs)
	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	default:
		s = -q - r
	}
	return cube{q: int(q), r: int(r), s: int(s)}
}

// ScreenCenter projects the center of tile p onto screen coordinates.
func ScreenCenter(p Point) ScreenPoint {
	x := float64(p.X*TileWidth + TileOffsetX)
	y := float64(p.Y*TileHeight + TileOffsetY)
	if p.X&1 == 1 {
		y += TileHeight / 2
	}
	return ScreenPoint{X: x, Y: y}
}

// VertexAngle returns the angle in degrees formed at vertex by the rays to a
// and b, computed with the law of cosines on projected screen coordinates.
// A degenerate triangle (a or b on the vertex) yields 0.
//
// Postcondition: 0 <= result <= 180.
func VertexAngle(vertex, a, b Point) float64 {
	v, pa, pb := ScreenCenter(vertex), ScreenCenter(a), ScreenCenter(b)
	distA := math.Hypot(pa.X-v.X, pa.Y-v.Y)
	distB := math.Hypot(pb.X-v.X, pb.Y-v.Y)
	if distA == 0 || distB == 0 {
		return 0
	}
	oppositeSq := (pa.X-pb.X)*(pa.X-pb.X) + (pa.Y-pb.Y)*(pa.Y-pb.Y)
	cos := (distA*distA + distB*distB - oppositeSq) / (2 * distA * distB)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
