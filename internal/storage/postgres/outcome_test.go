package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/storage/postgres"
	"github.com/cory-johannsen/hexcombat/internal/testutil"
)

var _ combat.OutcomeRecorder = (*postgres.OutcomeRepository)(nil)

func outcome(area string, ended time.Time, result combat.Terminal) combat.CombatOutcome {
	return combat.CombatOutcome{
		ID:           uuid.New(),
		AreaID:       area,
		StartedRound: 1,
		EndedRound:   4,
		Result:       result,
		Participants: []string{"hero", "gob"},
		Survivors:    []string{"hero"},
		EndedAt:      ended.UTC().Truncate(time.Microsecond),
	}
}

func TestOutcomeRepository_RecordAndList(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	repo := postgres.NewOutcomeRepository(pc.Pool.DB())
	ctx := context.Background()
	now := time.Now()

	first := outcome("crypt", now.Add(-time.Minute), combat.TerminalNoHostiles)
	second := outcome("crypt", now, combat.TerminalPartyDefeated)
	other := outcome("bridge", now, combat.TerminalExited)
	for _, o := range []combat.CombatOutcome{first, second, other} {
		require.NoError(t, repo.RecordOutcome(ctx, o))
	}

	got, err := repo.RecentOutcomes(ctx, "crypt", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, combat.TerminalPartyDefeated, got[0].Result)
	assert.Equal(t, []string{"hero", "gob"}, got[0].Participants)
	assert.Equal(t, []string{"hero"}, got[0].Survivors)
	assert.True(t, second.EndedAt.Equal(got[0].EndedAt))
	assert.Equal(t, first.ID, got[1].ID)

	limited, err := repo.RecentOutcomes(ctx, "crypt", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOutcomeRepository_DuplicateIsNoop(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	repo := postgres.NewOutcomeRepository(pc.Pool.DB())
	ctx := context.Background()

	o := outcome("crypt", time.Now(), combat.TerminalExited)
	require.NoError(t, repo.RecordOutcome(ctx, o))
	require.NoError(t, repo.RecordOutcome(ctx, o))

	got, err := repo.RecentOutcomes(ctx, "crypt", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOutcomeRepository_EmptyArea(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	repo := postgres.NewOutcomeRepository(pc.Pool.DB())

	got, err := repo.RecentOutcomes(context.Background(), "nowhere", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPool_Health(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	assert.NoError(t, pc.Pool.Health(context.Background(), 5*time.Second))
}
