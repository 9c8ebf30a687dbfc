package combat

import (
	"math"

	"github.com/cory-johannsen/hexcombat/internal/game/condition"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// concealmentLocked returns the concealment defender enjoys against attacker.
//
// The area term averages each path tile's concealment less its negation and
// scales the average by grid distance, so a line that clips extra tiles does
// not add more. It is capped at MaxConcealment. Opaque tiles and creatures
// other than the defender on the path add ObstructionConcealment each, up to
// ObstructionConcealmentCap. The defender's own concealment (plus 100 when
// the attacker is blind) is reduced by the attacker's concealment ignoring.
// The sum of the three terms is capped at MaxConcealment.
func (w *World) concealmentLocked(attacker, defender *Combatant) int {
	if attacker.Pos == defender.Pos {
		return 0
	}
	path := hex.Line(attacker.Pos, defender.Pos)
	areaSum, obstructions := 0, 0
	for _, p := range path {
		t := w.area.Terrain(p)
		areaSum += t.Concealment - t.ConcealmentNegation
		if !w.area.Transparent(p) {
			obstructions += ObstructionConcealment
			continue
		}
		if cr, ok := w.index.CreatureAt(p); ok && cr.EntityID() != defender.ID && cr.EntityID() != attacker.ID {
			obstructions += ObstructionConcealment
		}
	}
	obstructions = min(obstructions, ObstructionConcealmentCap)

	avg := float64(areaSum) / float64(len(path))
	areaTerm := int(math.Round(avg * float64(hex.Distance(attacker.Pos, defender.Pos))))
	areaTerm = min(areaTerm, MaxConcealment)

	personal := defender.Stats.Concealment - defender.Stats.ConcealmentNegation + condition.ConcealmentBonus(defender.Conditions)
	if attacker.Blind() {
		personal += 100
	}
	personal = min(personal, MaxConcealment)
	defenderTerm := min(MaxConcealment, max(0, personal-attacker.Stats.ConcealmentIgnoring))

	return min(MaxConcealment, areaTerm+defenderTerm+obstructions)
}
