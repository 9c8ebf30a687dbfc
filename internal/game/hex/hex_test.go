package hex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

func genPoint(label string) *rapid.Generator[hex.Point] {
	return rapid.Custom(func(t *rapid.T) hex.Point {
		return hex.Pt(
			rapid.IntRange(0, 40).Draw(t, label+".x"),
			rapid.IntRange(0, 40).Draw(t, label+".y"),
		)
	})
}

func TestNeighbors_AreAtDistanceOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := genPoint("p").Draw(rt, "p")
		ns := hex.Neighbors(p)
		require.Len(rt, ns, 6)
		for _, n := range ns {
			assert.Equal(rt, 1, hex.Distance(p, n), "%v -> %v", p, n)
		}
	})
}

func TestNeighbors_OddColumnShiftsDown(t *testing.T) {
	assert.ElementsMatch(t,
		[]hex.Point{hex.Pt(5, 4), hex.Pt(5, 6), hex.Pt(6, 5), hex.Pt(6, 6), hex.Pt(4, 5), hex.Pt(4, 6)},
		hex.Neighbors(hex.Pt(5, 5)))
	assert.ElementsMatch(t,
		[]hex.Point{hex.Pt(4, 3), hex.Pt(4, 5), hex.Pt(5, 3), hex.Pt(5, 4), hex.Pt(3, 3), hex.Pt(3, 4)},
		hex.Neighbors(hex.Pt(4, 4)))
}

func TestDistance_Symmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genPoint("a").Draw(rt, "a")
		b := genPoint("b").Draw(rt, "b")
		assert.Equal(rt, hex.Distance(a, b), hex.Distance(b, a))
		assert.Equal(rt, a == b, hex.Distance(a, b) == 0)
	})
}

func TestDistance_TriangleInequality(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genPoint("a").Draw(rt, "a")
		b := genPoint("b").Draw(rt, "b")
		c := genPoint("c").Draw(rt, "c")
		assert.LessOrEqual(rt, hex.Distance(a, c), hex.Distance(a, b)+hex.Distance(b, c))
	})
}

func TestRing_SizeAndDistance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := genPoint("c").Draw(rt, "c")
		r := rapid.IntRange(1, 6).Draw(rt, "r")
		ring := hex.Ring(c, r)
		require.Len(rt, ring, 6*r)
		seen := make(map[hex.Point]bool)
		for _, p := range ring {
			assert.Equal(rt, r, hex.Distance(c, p))
			assert.False(rt, seen[p], "duplicate %v", p)
			seen[p] = true
		}
	})
}

func TestRing_ZeroIsCenter(t *testing.T) {
	assert.Equal(t, []hex.Point{hex.Pt(3, 3)}, hex.Ring(hex.Pt(3, 3), 0))
}

func TestLine_ContiguousAndEndsAtTarget(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genPoint("a").Draw(rt, "a")
		b := genPoint("b").Draw(rt, "b")
		line := hex.Line(a, b)
		require.Len(rt, line, hex.Distance(a, b))
		if len(line) == 0 {
			return
		}
		assert.Equal(rt, b, line[len(line)-1])
		prev := a
		for _, p := range line {
			assert.Equal(rt, 1, hex.Distance(prev, p))
			prev = p
		}
	})
}

func TestScreenCenter_OddColumnOffset(t *testing.T) {
	even := hex.ScreenCenter(hex.Pt(4, 2))
	odd := hex.ScreenCenter(hex.Pt(5, 2))
	assert.Equal(t, float64(hex.TileHeight/2), odd.Y-even.Y)
	assert.Equal(t, float64(hex.TileWidth), odd.X-even.X)
}

func TestVertexAngle_OppositeNeighbors(t *testing.T) {
	v := hex.Pt(5, 5)
	assert.InDelta(t, 180.0, hex.VertexAngle(v, hex.Pt(5, 4), hex.Pt(5, 6)), 1e-9)
	assert.InDelta(t, 180.0, hex.VertexAngle(v, hex.Pt(6, 5), hex.Pt(4, 6)), 1e-9)
}

func TestVertexAngle_SecondNeighborIsAbout120(t *testing.T) {
	angle := hex.VertexAngle(hex.Pt(5, 5), hex.Pt(5, 4), hex.Pt(6, 6))
	assert.InDelta(t, 120.6, angle, 0.5)
	assert.Less(t, angle, 140.0)
}

func TestVertexAngle_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, hex.VertexAngle(hex.Pt(1, 1), hex.Pt(1, 1), hex.Pt(2, 2)))
}
