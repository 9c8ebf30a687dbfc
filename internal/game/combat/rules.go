package combat

import "time"

// Fixed resolution constants.
const (
	// FlankingBonus is the attack bonus granted by a qualifying flanker.
	FlankingBonus = 20
	// FlankingAngle is the attacker-defender-flanker angle, in degrees, that
	// must be exceeded before the attacker's flanking-angle stat is applied.
	FlankingAngle = 140.0
	// ObstructionConcealment is added for each opaque or occupied tile between
	// attacker and defender.
	ObstructionConcealment = 15
	// ObstructionConcealmentCap bounds the obstruction term.
	ObstructionConcealmentCap = 30
	// MaxConcealment bounds total concealment.
	MaxConcealment = 100
	// AutoHitRoll is the lowest natural roll that always hits.
	AutoHitRoll = 98
	// AutoMissRoll is the highest natural roll that always misses.
	AutoMissRoll = 2
	// FeetPerTile converts grid distance to feet for range penalties.
	FeetPerTile = 5
	// DeathThreshold is the hit point total at which a dying player dies.
	DeathThreshold = -20
)

// Rules holds the tunable combat parameters.
type Rules struct {
	// CombatDelay is the base pacing unit for animations and AI turns.
	CombatDelay time.Duration
	// AIDelayFactor scales CombatDelay into the AI pre-roll and post-attack pause.
	AIDelayFactor int
	// ActivationDelayFactor scales CombatDelay into the combat-start input lock.
	ActivationDelayFactor int
	// BaseActionPoints is the budget every combatant starts a turn with, in hundredths.
	BaseActionPoints int
	// AttackCost is used when a combatant's stats do not set one.
	AttackCost int
	// MovementCost is used when a combatant's stats do not set one.
	MovementCost int
	// CriticalHitsOnPlayers enables critical hits against player-controlled defenders.
	CriticalHitsOnPlayers bool
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		CombatDelay:           150 * time.Millisecond,
		AIDelayFactor:         3,
		ActivationDelayFactor: 6,
		BaseActionPoints:      10000,
		AttackCost:            4000,
		MovementCost:          1000,
		CriticalHitsOnPlayers: true,
	}
}

// AIDelay is the pre-roll before an AI acts and the pause after its attacks.
func (r Rules) AIDelay() time.Duration {
	return r.CombatDelay * time.Duration(r.AIDelayFactor)
}

// ActivationDelay is the input lock between a hostile sighting and combat.
func (r Rules) ActivationDelay() time.Duration {
	return r.CombatDelay * time.Duration(r.ActivationDelayFactor)
}
