package combat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
)

// Mover is a movement in progress. Attacks of opportunity are checked
// against NextPosition, and a pending player confirmation pauses the mover
// until it is resolved. Pause and Resume calls nest.
type Mover interface {
	NextPosition() hex.Point
	Pause()
	Resume()
}

type stepMover struct {
	next   hex.Point
	paused atomic.Int32
}

func (m *stepMover) NextPosition() hex.Point { return m.next }
func (m *stepMover) Pause() { m.paused.Add(1) }
func (m *stepMover) Resume() { m.paused.Add(-1) }

// Confirmation is an attack of opportunity offered to a player-controlled
// attacker and awaiting acceptance or refusal.
type Confirmation struct {
	ID         uuid.UUID
	AttackerID string
	TargetID   string

	mover    Mover
	pending  *async.Pending
	resolved bool
}

// ConfirmationInfo is a snapshot of a pending confirmation.
type ConfirmationInfo struct {
	ID         uuid.UUID
	AttackerID string
	TargetID   string
}

type opportunityCandidate struct {
	self     View
	behavior any
}

// ProvokeOpportunityAttacks gives every living hostile that threatens the
// target's position, or the mover's next position, one attack of
// opportunity. A mover is provoked at most once per attacker per round.
// Only combatants that take turns threaten, so nothing is provoked outside
// combat. Player attackers are asked for confirmation and the mover is
// paused; active AI attackers consult their behavior and attack at once.
// The call blocks until the AI attacks complete and every confirmation it
// requested is accepted and played out or refused. It reports whether a
// player confirmation was requested.
func (r *Runner) ProvokeOpportunityAttacks(ctx context.Context, targetID string, mover Mover) bool {
	w := r.world
	w.mu.Lock()
	t := w.get(targetID)
	if !r.inCombat || t == nil || t.Downed() {
		w.mu.Unlock()
		return false
	}
	pos := t.Pos
	if mover != nil {
		pos = mover.NextPosition()
	}
	var confirms []*async.Pending
	var candidates []opportunityCandidate
	for _, id := range w.order {
		c := w.combatants[id]
		if c == t || !r.actsLocked(c.ID) || !c.hasOpportunityAttack() || !w.hostileLocked(c, t) {
			continue
		}
		if !w.threatensLocked(c, pos) || !w.visibleLocked(c, t) {
			continue
		}
		if mover != nil {
			if t.moveAoOFrom[c.ID] {
				continue
			}
			t.moveAoOFrom[c.ID] = true
		}
		w.emitLocked(EventMessage, c.ID, "%s gets an attack of opportunity against %s.", c.Name, t.Name)
		if c.IsPlayer() {
			conf := r.newConfirmationLocked(c.ID, t.ID, mover)
			if mover != nil {
				mover.Pause()
			}
			confirms = append(confirms, conf.pending)
			continue
		}
		candidates = append(candidates, opportunityCandidate{self: c.view(), behavior: r.behaviors[c.Behavior]})
	}
	target := t.view()
	w.mu.Unlock()

	var waits []*async.Pending
	for _, cand := range candidates {
		if d, ok := cand.behavior.(OpportunityDecider); ok && !d.DecideOpportunityAttack(ctx, cand.self, target) {
			continue
		}
		waits = append(waits, r.takeOpportunityAttack(ctx, cand.self.ID, targetID))
	}
	if err := async.WaitAll(ctx, waits...); err != nil {
		w.logger.Debug("waiting for attacks of opportunity", zap.Error(err))
	} else if len(waits) > 0 {
		w.logger.Debug("attacks of opportunity resolved",
			zap.String("target", targetID),
			zap.Int("attacks", len(waits)),
			zap.Bool("hit", async.AnyHit(waits...)),
		)
	}
	if err := async.WaitAll(ctx, confirms...); err != nil {
		w.logger.Debug("waiting for opportunity confirmations", zap.Error(err))
	}
	return len(confirms) > 0
}

// takeOpportunityAttack spends attackerID's attack of opportunity on a
// main-hand attack against targetID.
func (r *Runner) takeOpportunityAttack(ctx context.Context, attackerID, targetID string) *async.Pending {
	label := fmt.Sprintf("opportunity %s->%s", attackerID, targetID)
	w := r.world
	w.mu.Lock()
	a, t := w.get(attackerID), w.get(targetID)
	if a == nil || t == nil || a.Downed() || t.Dead || !a.hasOpportunityAttack() {
		w.mu.Unlock()
		return async.Settled(label, async.Neutral)
	}
	a.aooUsed++
	at, _ := r.resolver.prepareWeaponLocked(a, t, inventory.MainHand)
	r.resolver.flankLocked(at, a, t)
	w.mu.Unlock()
	return r.coord.RunAnimated(ctx, label, w.rules.CombatDelay, func(ctx context.Context) async.Outcome {
		return async.Outcome{Hit: r.perform(ctx, at)}
	})
}

func (r *Runner) newConfirmationLocked(attackerID, targetID string, mover Mover) *Confirmation {
	conf := &Confirmation{
		ID:         uuid.New(),
		AttackerID: attackerID,
		TargetID:   targetID,
		mover:      mover,
		pending:    async.NewPending("confirm opportunity " + attackerID),
	}
	r.confirmations[conf.ID] = conf
	r.confirmOrder = append(r.confirmOrder, conf.ID)
	r.world.emitLocked(EventConfirmationRequested, attackerID, "%s", conf.ID)
	return conf
}

// PendingConfirmations returns the unresolved confirmations in request order.
func (r *Runner) PendingConfirmations() []ConfirmationInfo {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	out := make([]ConfirmationInfo, 0, len(r.confirmOrder))
	for _, id := range r.confirmOrder {
		c := r.confirmations[id]
		if c.resolved {
			continue
		}
		out = append(out, ConfirmationInfo{ID: c.ID, AttackerID: c.AttackerID, TargetID: c.TargetID})
	}
	return out
}

// ResolveOpportunityAttack accepts or refuses a pending confirmation. An
// accepted attack plays out in the background; the confirmation stays
// outstanding, and its mover paused, until the attack completes.
func (r *Runner) ResolveOpportunityAttack(ctx context.Context, id uuid.UUID, accept bool) error {
	r.world.mu.Lock()
	conf, ok := r.confirmations[id]
	if !ok || conf.resolved {
		r.world.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownConfirmation, id)
	}
	conf.resolved = true
	r.world.mu.Unlock()

	finish := func(o async.Outcome) {
		r.forgetConfirmation(id)
		if conf.mover != nil {
			conf.mover.Resume()
		}
		conf.pending.Settle(o)
	}
	if !accept {
		finish(async.Neutral)
		return nil
	}
	p := r.takeOpportunityAttack(ctx, conf.AttackerID, conf.TargetID)
	go func() {
		out, err := p.Wait(context.Background())
		if err != nil {
			out = async.Neutral
		}
		finish(out)
	}()
	return nil
}

func (r *Runner) forgetConfirmation(id uuid.UUID) {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	delete(r.confirmations, id)
	r.confirmOrder = slices.DeleteFunc(r.confirmOrder, func(other uuid.UUID) bool { return other == id })
}

// waitConfirmations blocks until no confirmation is pending.
func (r *Runner) waitConfirmations(ctx context.Context) error {
	for {
		r.world.mu.Lock()
		var p *async.Pending
		if len(r.confirmOrder) > 0 {
			p = r.confirmations[r.confirmOrder[0]].pending
		}
		r.world.mu.Unlock()
		if p == nil {
			return nil
		}
		if _, err := p.Wait(ctx); err != nil && !errors.Is(err, async.ErrInterrupted) {
			return err
		}
	}
}
