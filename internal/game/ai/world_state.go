package ai

import (
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// WorldState is the snapshot the planner reasons over for one combatant.
type WorldState struct {
	Self  combat.View
	Round int
	// Hostiles are the living hostiles Self can see, nearest first.
	Hostiles []combat.View
	// Attackable marks hostiles Self could make a standard attack on now.
	Attackable map[string]bool
}

// HPPercent returns v's hit points as a percentage of its maximum; 0 when
// the maximum is not positive.
func HPPercent(v combat.View) float64 {
	if v.MaxHP <= 0 {
		return 0
	}
	return float64(v.HP) / float64(v.MaxHP) * 100
}

// HasHostiles reports whether any hostile is visible.
func (ws *WorldState) HasHostiles() bool { return len(ws.Hostiles) > 0 }

// NearestHostile returns the closest visible hostile.
func (ws *WorldState) NearestHostile() (combat.View, bool) {
	if len(ws.Hostiles) == 0 {
		return combat.View{}, false
	}
	return ws.Hostiles[0], true
}

// WeakestHostile returns the visible hostile with the lowest HP percentage.
// Ties go to the nearer one.
func (ws *WorldState) WeakestHostile() (combat.View, bool) {
	if len(ws.Hostiles) == 0 {
		return combat.View{}, false
	}
	weakest := ws.Hostiles[0]
	for _, h := range ws.Hostiles[1:] {
		if HPPercent(h) < HPPercent(weakest) {
			weakest = h
		}
	}
	return weakest, true
}

// NearestAttackable returns the closest hostile that can be attacked now.
func (ws *WorldState) NearestAttackable() (combat.View, bool) {
	for _, h := range ws.Hostiles {
		if ws.Attackable[h.ID] {
			return h, true
		}
	}
	return combat.View{}, false
}

// Distance returns the grid distance from Self to v.
func (ws *WorldState) Distance(v combat.View) int { return hex.Distance(ws.Self.Pos, v.Pos) }

// ResolveTarget maps an operator target token to a combatant ID. Unknown
// tokens are returned unchanged; an unresolvable token yields "".
func (ws *WorldState) ResolveTarget(token string) string {
	var (
		v  combat.View
		ok bool
	)
	switch token {
	case "nearest_enemy":
		v, ok = ws.NearestHostile()
	case "weakest_enemy":
		v, ok = ws.WeakestHostile()
	case "attackable_enemy":
		v, ok = ws.NearestAttackable()
	case "self":
		return ws.Self.ID
	default:
		return token
	}
	if !ok {
		return ""
	}
	return v.ID
}
