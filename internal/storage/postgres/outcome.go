package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
)

// OutcomeRepository records finished combats. It implements
// combat.OutcomeRecorder.
type OutcomeRepository struct {
	db *pgxpool.Pool
}

// NewOutcomeRepository creates an OutcomeRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewOutcomeRepository(db *pgxpool.Pool) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// RecordOutcome inserts o. Recording the same outcome ID twice is a no-op.
func (r *OutcomeRepository) RecordOutcome(ctx context.Context, o combat.CombatOutcome) error {
	participants := o.Participants
	if participants == nil {
		participants = []string{}
	}
	survivors := o.Survivors
	if survivors == nil {
		survivors = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO combat_outcomes
			(id, area_id, started_round, ended_round, outcome, participants, survivors, ended_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		o.ID, o.AreaID, o.StartedRound, o.EndedRound, o.Result.String(),
		participants, survivors, o.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting combat outcome: %w", err)
	}
	return nil
}

// RecentOutcomes returns up to limit outcomes for areaID, most recently
// ended first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *OutcomeRepository) RecentOutcomes(ctx context.Context, areaID string, limit int) ([]combat.CombatOutcome, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, area_id, started_round, ended_round, outcome, participants, survivors, ended_at
		FROM combat_outcomes
		WHERE area_id = $1
		ORDER BY ended_at DESC, recorded_at DESC
		LIMIT $2`,
		areaID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combat outcomes: %w", err)
	}
	defer rows.Close()

	out := []combat.CombatOutcome{}
	for rows.Next() {
		var (
			o      combat.CombatOutcome
			result string
		)
		if err := rows.Scan(&o.ID, &o.AreaID, &o.StartedRound, &o.EndedRound, &result,
			&o.Participants, &o.Survivors, &o.EndedAt); err != nil {
			return nil, fmt.Errorf("scanning combat outcome: %w", err)
		}
		o.Result = combat.ParseTerminal(result)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat outcomes: %w", err)
	}
	return out, nil
}
