package combat

import (
	"sort"

	"github.com/cory-johannsen/hexcombat/internal/game/dice"
)

const tiebreakRange = 1 << 30

// InitiativeRoll is one combatant's initiative result.
type InitiativeRoll struct {
	ID       string
	Modifier int
	Roll     int
	Total    int
	tiebreak int
}

// RollInitiative rolls Stats.Initiative + d100 for each combatant and returns
// the rolls in turn order: higher total first, then higher modifier, then a
// random tiebreak drawn with the roll.
//
// Postcondition: len(result) == len(cs); the order is fully determined by
// the roller's source.
func RollInitiative(roller *dice.Roller, cs []*Combatant) []InitiativeRoll {
	rolls := make([]InitiativeRoll, 0, len(cs))
	for _, c := range cs {
		roll := roller.D100()
		rolls = append(rolls, InitiativeRoll{
			ID:       c.ID,
			Modifier: c.Stats.Initiative,
			Roll:     roll,
			Total:    roll + c.Stats.Initiative,
			tiebreak: roller.Intn(tiebreakRange),
		})
	}
	sort.SliceStable(rolls, func(i, j int) bool {
		a, b := rolls[i], rolls[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.Modifier != b.Modifier {
			return a.Modifier > b.Modifier
		}
		return a.tiebreak > b.tiebreak
	})
	return rolls
}
