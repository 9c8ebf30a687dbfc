package ai

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// Built-in behavior names.
const (
	BehaviorAggressive = "aggressive"
	BehaviorPassive    = "passive"
)

// maxTurnActions bounds the actions one AI turn may take.
const maxTurnActions = 32

// Aggressive attacks the nearest attackable hostile until its action points
// run out, stepping toward the nearest hostile when none is in reach. It
// always takes attacks of opportunity.
type Aggressive struct{}

// RunTurn implements combat.TurnRunner.
func (Aggressive) RunTurn(ctx context.Context, t *combat.Turn) error {
	for i := 0; i < maxTurnActions; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		ws, ok := BuildWorldState(t)
		if !ok || !ws.HasHostiles() {
			return nil
		}
		before := ws.Self.AP
		if target, ok := ws.NearestAttackable(); ok {
			t.StandardAttack(ctx, target.ID)
		} else {
			nearest, _ := ws.NearestHostile()
			if !approach(ctx, t, ws.Self, nearest) {
				return nil
			}
		}
		if t.Remaining() >= before {
			return nil
		}
	}
	return nil
}

// DecideOpportunityAttack implements combat.OpportunityDecider.
func (Aggressive) DecideOpportunityAttack(context.Context, combat.View, combat.View) bool {
	return true
}

// Passive never acts and lets every attack of opportunity go.
type Passive struct{}

// CanAct implements combat.Actor.
func (Passive) CanAct(combat.View) bool { return false }

// DecideOpportunityAttack implements combat.OpportunityDecider.
func (Passive) DecideOpportunityAttack(context.Context, combat.View, combat.View) bool {
	return false
}

// approach steps self one tile closer to target, trying the closing
// neighbors nearest the target first.
func approach(ctx context.Context, t *combat.Turn, self, target combat.View) bool {
	d := hex.Distance(self.Pos, target.Pos)
	var closer []hex.Point
	for _, n := range hex.Neighbors(self.Pos) {
		if hex.Distance(n, target.Pos) < d {
			closer = append(closer, n)
		}
	}
	sort.SliceStable(closer, func(i, j int) bool {
		return hex.Distance(closer[i], target.Pos) < hex.Distance(closer[j], target.Pos)
	})
	for _, p := range closer {
		if t.Step(ctx, p) {
			return true
		}
	}
	return false
}

// Planned runs an HTN plan each time it acts and replans while its actions
// keep spending action points.
type Planned struct {
	planner *Planner
	logger  *zap.Logger
}

// NewPlanned wraps planner as a combat behavior.
//
// Precondition: planner must not be nil.
func NewPlanned(planner *Planner, logger *zap.Logger) *Planned {
	if planner == nil {
		panic("ai.NewPlanned: planner must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planned{planner: planner, logger: logger}
}

// RunTurn implements combat.TurnRunner.
func (b *Planned) RunTurn(ctx context.Context, t *combat.Turn) error {
	for i := 0; i < maxTurnActions; i++ {
		ws, ok := BuildWorldState(t)
		if !ok {
			return nil
		}
		plan, err := b.planner.Plan(ctx, ws)
		if err != nil {
			return err
		}
		b.logger.Debug("htn plan",
			zap.String("combatant", ws.Self.ID),
			zap.String("domain", b.planner.Domain().ID),
			zap.Any("plan", plan),
		)
		progressed, done := b.execute(ctx, t, ws, plan)
		if done || !progressed {
			return nil
		}
	}
	return nil
}

// execute carries out plan and reports whether any action spent action
// points and whether the plan ended the turn with a pass.
func (b *Planned) execute(ctx context.Context, t *combat.Turn, ws *WorldState, plan []PlannedAction) (progressed, done bool) {
	for _, a := range plan {
		if err := ctx.Err(); err != nil {
			return false, true
		}
		before := t.Remaining()
		switch a.Action {
		case ActionPass:
			return progressed, true
		case ActionAttack:
			if a.Target != "" && t.CanAttack(a.Target) {
				t.StandardAttack(ctx, a.Target)
			}
		case ActionTouch:
			if a.Target != "" {
				t.TouchAttack(ctx, a.Target, false)
			}
		case ActionApproach:
			for _, h := range ws.Hostiles {
				if h.ID == a.Target {
					approach(ctx, t, ws.Self, h)
					break
				}
			}
		}
		if t.Remaining() < before {
			progressed = true
		}
	}
	return progressed, false
}
