package combat

import "errors"

var (
	// ErrNotInCombat is returned by turn operations outside combat.
	ErrNotInCombat = errors.New("combat: not in combat")
	// ErrUnknownCombatant is returned when an id does not resolve in the arena.
	ErrUnknownCombatant = errors.New("combat: unknown combatant")
	// ErrUnknownConfirmation is returned when resolving an attack of
	// opportunity that is not pending.
	ErrUnknownConfirmation = errors.New("combat: unknown confirmation")
)
