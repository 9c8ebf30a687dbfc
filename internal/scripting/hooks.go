package scripting

// Global function names the game calls into scripts.
const (
	// Area hooks. Each receives an attack table and may return a table with
	// attack_bonus, defender_ac, extra_damage and negate_damage.
	HookOnAttack     = "onAttack"
	HookOnDefense    = "onDefense"
	HookOnAttackHit  = "onAttackHit"
	HookOnDefenseHit = "onDefenseHit"

	// Combatant hooks. runTurn receives the combatant's ID and plays its
	// turn through engine actions; takeAttackOfOpportunity receives the
	// combatant's and the target's IDs and returns whether to attack.
	HookRunTurn                 = "runTurn"
	HookTakeAttackOfOpportunity = "takeAttackOfOpportunity"
)
