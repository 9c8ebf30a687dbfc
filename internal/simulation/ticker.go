package simulation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
)

// Ticker re-runs encounter activation on a fixed interval so hostiles that
// come into view start combat without a player action.
type Ticker struct {
	runner   *combat.Runner
	interval time.Duration
	logger   *zap.Logger
}

// NewTicker creates a Ticker.
//
// Precondition: runner must not be nil and interval must be positive.
func NewTicker(runner *combat.Runner, interval time.Duration, logger *zap.Logger) *Ticker {
	if runner == nil {
		panic("simulation.NewTicker: runner must not be nil")
	}
	if interval <= 0 {
		panic("simulation.NewTicker: interval must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ticker{runner: runner, interval: interval, logger: logger}
}

// Tick runs one activation check.
func (t *Ticker) Tick(ctx context.Context) combat.ActivationReport {
	rep := t.runner.CheckActivation(ctx)
	if rep.NewHostiles {
		t.logger.Info("hostiles sighted", zap.Bool("combat_starting", rep.CombatStarting != nil))
	}
	return rep
}

// Run ticks until ctx is done.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.Tick(ctx)
		}
	}
}

// Watch runs combats as they start until ctx is done, polling at interval.
func (s *Simulation) Watch(ctx context.Context, interval time.Duration) error {
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
		}
		if !s.Runner.IsInCombat() {
			continue
		}
		res, err := s.Fight(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("combat finished",
			zap.Stringer("result", res.Outcome.Result),
			zap.Strings("survivors", res.Outcome.Survivors),
		)
	}
}
