package combat

import (
	"context"

	"github.com/cory-johannsen/hexcombat/internal/game/hex"
)

// A behavior is registered on the Runner by name and drives AI-controlled
// combatants. It implements any subset of the capability interfaces below;
// a behavior with no TurnRunner passes its turns.

// Actor decides whether the combatant may act at all this turn.
type Actor interface {
	CanAct(self View) bool
}

// TurnRunner plays out one AI turn. RunTurn runs outside the World lock and
// acts through t.
type TurnRunner interface {
	RunTurn(ctx context.Context, t *Turn) error
}

// OpportunityDecider chooses whether to take an offered attack of opportunity.
// Behaviors without it always take the attack.
type OpportunityDecider interface {
	DecideOpportunityAttack(ctx context.Context, self, target View) bool
}

// AttackInfo describes an attack to script hooks.
type AttackInfo struct {
	AttackerID string
	DefenderID string
	WeaponID   string
	Ranged     bool
	Touch      bool
	Hit        bool
	Critical   bool
	Damage     int
}

// Adjustment is what hooks may change about an attack before it is finished.
type Adjustment struct {
	AttackBonus  int
	DefenderAC   int
	ExtraDamage  int
	NegateDamage bool
}

// Add merges o into a.
func (a Adjustment) Add(o Adjustment) Adjustment {
	return Adjustment{
		AttackBonus:  a.AttackBonus + o.AttackBonus,
		DefenderAC:   a.DefenderAC + o.DefenderAC,
		ExtraDamage:  a.ExtraDamage + o.ExtraDamage,
		NegateDamage: a.NegateDamage || o.NegateDamage,
	}
}

// AttackHooks lets scripts observe and adjust attacks. Both methods run
// outside the World lock.
type AttackHooks interface {
	// BeforeAttack runs once the attack is prepared and before hit is decided.
	BeforeAttack(ctx context.Context, info AttackInfo) Adjustment
	// AfterHit runs once damage from a hit has been applied.
	AfterHit(ctx context.Context, info AttackInfo)
}

// Turn is the handle an AI behavior acts through during its turn.
type Turn struct {
	ActorID string
	Round   int
	runner  *Runner
}

// Self returns a snapshot of the acting combatant.
func (t *Turn) Self() (View, bool) { return t.runner.world.View(t.ActorID) }

// VisibleHostiles returns the living hostiles the actor can see, nearest first.
func (t *Turn) VisibleHostiles() []View { return t.runner.world.VisibleHostiles(t.ActorID) }

// CanAttack reports whether the actor could attack targetID right now.
func (t *Turn) CanAttack(targetID string) bool {
	return t.runner.CanAttack(t.ActorID, targetID)
}

// StandardAttack attacks targetID with every wielded weapon.
func (t *Turn) StandardAttack(ctx context.Context, targetID string) bool {
	return t.runner.StandardAttack(ctx, t.ActorID, targetID)
}

// TouchAttack makes a touch attack on targetID. It costs no action points.
func (t *Turn) TouchAttack(ctx context.Context, targetID string, ranged bool) bool {
	return t.runner.TouchAttack(ctx, t.ActorID, targetID, ranged)
}

// Step moves the actor one tile.
func (t *Turn) Step(ctx context.Context, to hex.Point) bool {
	return t.runner.Step(ctx, t.ActorID, to)
}

// Remaining returns the actor's unspent action points.
func (t *Turn) Remaining() int {
	v, ok := t.Self()
	if !ok {
		return 0
	}
	return v.AP
}

// PlayerTurn returns a Turn for the player-controlled combatant awaiting
// input, letting a controller outside the package act for it. No Turn is
// handed out while the interface lock is held.
func (r *Runner) PlayerTurn() (*Turn, bool) {
	w := r.world
	w.mu.Lock()
	defer w.mu.Unlock()
	if !r.inCombat || r.state != StateAwaitingPlayer || r.coord.Lock().Locked() {
		return nil, false
	}
	id, ok := r.queue.Active()
	if !ok {
		return nil, false
	}
	return &Turn{ActorID: id, Round: w.round, runner: r}, true
}

// Behavior returns the behavior registered under name.
func (r *Runner) Behavior(name string) (any, bool) {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	b, ok := r.behaviors[name]
	return b, ok
}
