package combat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Terminal is how a combat ended.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalNoHostiles
	TerminalPartyDefeated
	TerminalExited
)

func (t Terminal) String() string {
	switch t {
	case TerminalNoHostiles:
		return "no_hostiles"
	case TerminalPartyDefeated:
		return "party_defeated"
	case TerminalExited:
		return "exited"
	default:
		return "none"
	}
}

// ParseTerminal is the inverse of Terminal.String. Unknown names parse as
// TerminalNone.
func ParseTerminal(s string) Terminal {
	for _, t := range []Terminal{TerminalNoHostiles, TerminalPartyDefeated, TerminalExited} {
		if t.String() == s {
			return t
		}
	}
	return TerminalNone
}

// CombatOutcome summarizes one finished combat.
type CombatOutcome struct {
	ID           uuid.UUID
	AreaID       string
	StartedRound int
	EndedRound   int
	Result       Terminal
	Participants []string
	Survivors    []string
	EndedAt      time.Time
}

//go:generate mockgen -destination=mock/mock_recorder.go -package=combatmock github.com/cory-johannsen/hexcombat/internal/game/combat OutcomeRecorder

// OutcomeRecorder persists combat outcomes. RecordOutcome is called outside
// the World lock once a combat has ended.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o CombatOutcome) error
}
