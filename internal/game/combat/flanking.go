package combat

import (
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// flankerLocked finds the first creature that flanks defender with attacker:
// a living creature hostile to defender, threatening defender's tile, whose
// angle at defender between attacker and itself exceeds FlankingAngle less
// the attacker's flanking-angle stat.
func (w *World) flankerLocked(attacker, defender *Combatant) (*Combatant, bool) {
	threshold := FlankingAngle - float64(attacker.Stats.FlankingAngle)
	for _, cr := range w.index.CreaturesWithinRadius(defender.Pos, w.visibilityRadius()) {
		f, ok := cr.(*Combatant)
		if !ok || f == attacker || f == defender || f.Downed() {
			continue
		}
		if !w.hostileLocked(f, defender) || !w.threatensLocked(f, defender.Pos) {
			continue
		}
		if hex.VertexAngle(defender.Pos, attacker.Pos, f.Pos) > threshold {
			return f, true
		}
	}
	return nil, false
}
