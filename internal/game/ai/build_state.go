package ai

import (
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
)

// BuildWorldState snapshots what the acting combatant of t knows.
//
// Postcondition: returns false when the actor has left the world.
func BuildWorldState(t *combat.Turn) (*WorldState, bool) {
	self, ok := t.Self()
	if !ok {
		return nil, false
	}
	hostiles := t.VisibleHostiles()
	attackable := make(map[string]bool, len(hostiles))
	for _, h := range hostiles {
		if t.CanAttack(h.ID) {
			attackable[h.ID] = true
		}
	}
	return &WorldState{Self: self, Round: t.Round, Hostiles: hostiles, Attackable: attackable}, true
}
