package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/config"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/observability"
	"github.com/cory-johannsen/hexcombat/internal/simulation"
	"github.com/cory-johannsen/hexcombat/internal/storage/postgres"
)

// env is what every subcommand starts from.
type env struct {
	cfg     *config.Config
	logger  *zap.Logger
	content *simulation.Content
	pool    *postgres.Pool
}

func setup(ctx context.Context, component string, withDB bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, component)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	contentStart := time.Now()
	content, err := simulation.LoadContent(cfg.Content, cfg.Combat.VisibilityRadius)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	logger.Info("content loaded",
		zap.Strings("areas", content.Areas.IDs()),
		zap.Int("domains", len(content.Domains)),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	e := &env{cfg: &cfg, logger: logger, content: content}
	if withDB && cfg.Database.Enabled {
		dbStart := time.Now()
		if e.pool, err = postgres.NewPool(ctx, cfg.Database); err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
	}
	return e, nil
}

func (e *env) close() {
	if e.pool != nil {
		e.pool.Close()
	}
	_ = e.logger.Sync()
}

// recorder returns the outcome log when a database is configured.
func (e *env) recorder() combat.OutcomeRecorder {
	if e.pool == nil {
		return nil
	}
	return postgres.NewOutcomeRepository(e.pool.DB())
}

// newSimulation builds areaID. A zero seed rolls from a crypto source.
func (e *env) newSimulation(ctx context.Context, areaID string, seed uint64) (*simulation.Simulation, error) {
	sc, ok := e.content.Scenario(areaID)
	if !ok {
		return nil, fmt.Errorf("unknown area %q (have %v)", areaID, e.content.Areas.IDs())
	}
	var src dice.Source
	if seed != 0 {
		src = dice.NewSeededSource(seed)
	}
	return simulation.New(ctx, e.content, sc, simulation.Options{
		Rules:            e.cfg.Combat.Rules(),
		MaxRounds:        e.cfg.Combat.MaxRounds,
		Source:           src,
		Recorder:         e.recorder(),
		GlobalScriptDir:  e.cfg.Scripting.ScriptDir,
		InstructionLimit: e.cfg.Scripting.InstructionLimit,
		Logger:           e.logger,
	})
}
