package combat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/hex"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
)

// State is the scheduler's current mode.
type State int

const (
	StateExploration State = iota
	StateAwaitingPlayer
	StateAITurn
)

func (s State) String() string {
	switch s {
	case StateAwaitingPlayer:
		return "awaiting_player"
	case StateAITurn:
		return "ai_turn"
	default:
		return "exploration"
	}
}

// TurnKind is what AdvanceTurn started.
type TurnKind int

const (
	// TurnNone means nothing started: not in combat, or nobody could act.
	TurnNone TurnKind = iota
	// TurnPlayer means a player-controlled combatant awaits input.
	TurnPlayer
	// TurnAI means an AI turn is playing out; wait on TurnResult.AITurn.
	TurnAI
	// TurnEnded means combat ended; see TurnResult.Terminal.
	TurnEnded
)

// TurnResult describes the turn AdvanceTurn started.
type TurnResult struct {
	Kind     TurnKind
	ActiveID string
	Round    int
	Terminal Terminal
	AITurn   *async.Pending
}

// Runner schedules combat turns over a World: initiative, the turn loop,
// attacks, attacks of opportunity, and encounter activation. Its combat
// state is guarded by the World lock.
type Runner struct {
	world    *World
	resolver *AttackResolver
	coord    *async.Coordinator
	hooks    AttackHooks
	recorder OutcomeRecorder

	behaviors     map[string]any
	inCombat      bool
	initiating    bool
	force         bool
	state         State
	queue         *TurnQueue
	combatID      uuid.UUID
	startRound    int
	participants  []string
	confirmations map[uuid.UUID]*Confirmation
	confirmOrder  []uuid.UUID
	aiTurn        *async.Pending
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithHooks installs attack hooks.
func WithHooks(h AttackHooks) RunnerOption { return func(r *Runner) { r.hooks = h } }

// WithRecorder installs an outcome recorder.
func WithRecorder(rec OutcomeRecorder) RunnerOption { return func(r *Runner) { r.recorder = rec } }

// WithBehavior registers a behavior under name.
func WithBehavior(name string, b any) RunnerOption {
	return func(r *Runner) { r.behaviors[name] = b }
}

// NewRunner creates a Runner for w.
//
// Precondition: w and coord must not be nil.
func NewRunner(w *World, coord *async.Coordinator, opts ...RunnerOption) *Runner {
	r := &Runner{
		world:         w,
		resolver:      NewAttackResolver(w),
		coord:         coord,
		behaviors:     make(map[string]any),
		confirmations: make(map[uuid.UUID]*Confirmation),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// World returns the shared world context.
func (r *Runner) World() *World { return r.world }

// Resolver returns the attack resolver.
func (r *Runner) Resolver() *AttackResolver { return r.resolver }

// Coordinator returns the async coordinator.
func (r *Runner) Coordinator() *async.Coordinator { return r.coord }

// RegisterBehavior registers b under name, replacing any previous behavior.
func (r *Runner) RegisterBehavior(name string, b any) {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	r.behaviors[name] = b
}

// IsInCombat reports whether combat is running.
func (r *Runner) IsInCombat() bool {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	return r.inCombat
}

// State returns the scheduler mode.
func (r *Runner) State() State {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	return r.state
}

// TurnOrder returns the initiative order, or nil outside combat.
func (r *Runner) TurnOrder() []string {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if r.queue == nil {
		return nil
	}
	return r.queue.IDs()
}

// ActiveCombatant returns the combatant whose turn it is.
func (r *Runner) ActiveCombatant() (View, bool) {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if !r.inCombat {
		return View{}, false
	}
	id, ok := r.queue.Active()
	if !ok {
		return View{}, false
	}
	return r.world.get(id).view(), true
}

// UpcomingCombatants returns up to n combatants that will act after the
// active one, skipping the downed and inactive.
func (r *Runner) UpcomingCombatants(n int) []View {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if !r.inCombat {
		return nil
	}
	var out []View
	for _, id := range r.queue.Upcoming(n, r.actsLocked) {
		out = append(out, r.world.get(id).view())
	}
	return out
}

// actsLocked reports whether id is a living combatant that takes turns.
func (r *Runner) actsLocked(id string) bool {
	c := r.world.get(id)
	return c != nil && !c.Downed() && (c.IsPlayer() || c.AIActive)
}

// EnterCombat rolls initiative for every living combatant in the area and
// starts round one of a new combat. It reports false if combat is running.
func (r *Runner) EnterCombat() bool {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	return r.enterLocked()
}

func (r *Runner) enterLocked() bool {
	if r.inCombat {
		return false
	}
	w := r.world
	var cs []*Combatant
	for _, id := range w.order {
		if c := w.combatants[id]; !c.Dead {
			cs = append(cs, c)
		}
	}
	rolls := RollInitiative(w.roller, cs)
	ids := make([]string, 0, len(rolls))
	for _, roll := range rolls {
		ids = append(ids, roll.ID)
		w.combatants[roll.ID].Budget.EndTurn()
	}
	r.queue = NewTurnQueue(ids)
	r.inCombat = true
	r.initiating = false
	r.state = StateExploration
	r.combatID = uuid.New()
	r.participants = ids

	w.round++
	r.startRound = w.round
	w.index.Deceased().Elapse(1)
	w.emitLocked(EventCombatStarted, "", "Combat started.")
	for _, roll := range rolls {
		w.emitLocked(EventMessage, roll.ID, "%s rolls initiative: %d + %d = %d",
			w.combatants[roll.ID].Name, roll.Roll, roll.Modifier, roll.Total)
	}
	w.logger.Info("combat started",
		zap.String("area", w.area.ID),
		zap.Int("round", w.round),
		zap.Strings("order", ids),
	)
	return true
}

// newRoundLocked advances the round counter and elapses one round on every
// queued combatant and every deceased entry.
func (r *Runner) newRoundLocked() {
	w := r.world
	w.round++
	for _, id := range r.queue.IDs() {
		c := w.get(id)
		if c == nil {
			continue
		}
		expired, died := c.elapseRound()
		for _, cid := range expired {
			w.emitLocked(EventMessage, c.ID, "%s is no longer affected by %s.", c.Name, cid)
		}
		if died {
			r.deathLocked(c)
		}
	}
	for _, id := range w.index.Deceased().Elapse(1) {
		w.logger.Debug("deceased effects expired", zap.String("combatant", id))
	}
}

// deathLocked removes a dead combatant from the turn order and the spatial
// index, keeping it in the deceased tracker while timed conditions remain.
func (r *Runner) deathLocked(c *Combatant) {
	w := r.world
	w.emitLocked(EventDeath, c.ID, "%s dies.", c.Name)
	if r.queue != nil {
		r.queue.Remove(c.ID)
	}
	w.index.Remove(c.ID)
	if c.ElapseRounds(0) {
		w.index.Deceased().Track(c)
	}
}

// hostilePairLocked reports whether two combatants that take turns are still
// hostile to each other.
func (r *Runner) hostilePairLocked() bool {
	w := r.world
	var active []*Combatant
	for _, id := range w.order {
		if r.actsLocked(id) {
			active = append(active, w.combatants[id])
		}
	}
	for i, a := range active {
		for _, b := range active[i+1:] {
			if w.hostileLocked(a, b) {
				return true
			}
		}
	}
	return false
}

// partyDefeatedLocked reports whether every non-summoned player is dead or
// dying. A world with no such player is never defeated.
func (r *Runner) partyDefeatedLocked() bool {
	found := false
	for _, id := range r.world.order {
		c := r.world.combatants[id]
		if !c.IsPlayer() || c.Summoned {
			continue
		}
		found = true
		if !c.Downed() {
			return false
		}
	}
	return found
}

// AdvanceTurn ends the active turn and starts the next one. It first waits
// for outstanding attack-of-opportunity confirmations and any running AI
// turn. Dead and dying combatants never become active.
func (r *Runner) AdvanceTurn(ctx context.Context) (TurnResult, error) {
	if err := r.waitConfirmations(ctx); err != nil {
		return TurnResult{}, err
	}
	r.world.mu.Lock()
	ai := r.aiTurn
	r.world.mu.Unlock()
	if ai != nil {
		if _, err := ai.Wait(ctx); err != nil && !errors.Is(err, async.ErrInterrupted) {
			return TurnResult{}, err
		}
	}

	r.world.mu.Lock()
	if !r.inCombat {
		r.world.mu.Unlock()
		return TurnResult{Kind: TurnNone}, ErrNotInCombat
	}
	res, out := r.advanceLocked()
	r.world.mu.Unlock()
	r.record(ctx, out)
	return res, nil
}

func (r *Runner) advanceLocked() (TurnResult, *CombatOutcome) {
	w := r.world
	r.aiTurn = nil
	if r.partyDefeatedLocked() {
		return r.endLocked(TerminalPartyDefeated)
	}
	if !r.force && !r.hostilePairLocked() {
		return r.endLocked(TerminalNoHostiles)
	}
	if id, ok := r.queue.Active(); ok {
		if c := w.get(id); c != nil {
			c.Budget.EndTurn()
		}
	}

	for guard := 0; guard <= 2*r.queue.Len(); guard++ {
		id, wrapped := r.queue.Advance()
		if id == "" {
			break
		}
		if wrapped {
			r.newRoundLocked()
		}
		c := w.get(id)
		if c == nil || c.Downed() {
			continue
		}
		c.Budget.Reset(w.maxAP(c))
		if c.IsPlayer() {
			r.state = StateAwaitingPlayer
			w.emitLocked(EventTurnStarted, c.ID, "%s's turn.", c.Name)
			w.emitLocked(EventScrollTo, c.ID, "%s", c.Pos)
			return TurnResult{Kind: TurnPlayer, ActiveID: id, Round: w.round}, nil
		}
		if !c.AIActive {
			c.Budget.EndTurn()
			continue
		}
		r.observeLocked(c)
		beh := r.behaviors[c.Behavior]
		if actor, ok := beh.(Actor); ok && !actor.CanAct(c.view()) {
			c.Budget.EndTurn()
			continue
		}
		tr, ok := beh.(TurnRunner)
		if !ok {
			w.logger.Debug("no turn runner; passing", zap.String("combatant", id), zap.String("behavior", c.Behavior))
			c.Budget.EndTurn()
			continue
		}
		r.state = StateAITurn
		w.emitLocked(EventTurnStarted, c.ID, "%s's turn.", c.Name)
		return TurnResult{Kind: TurnAI, ActiveID: id, Round: w.round, AITurn: r.startAITurnLocked(c, tr)}, nil
	}
	w.logger.Warn("no combatant could act", zap.Int("round", w.round))
	return TurnResult{Kind: TurnNone, Round: w.round}, nil
}

func (r *Runner) startAITurnLocked(c *Combatant, tr TurnRunner) *async.Pending {
	w := r.world
	turn := &Turn{ActorID: c.ID, Round: w.round, runner: r}
	id := c.ID
	p := r.coord.RunAnimated(context.Background(), "ai turn "+id, w.rules.AIDelay(), func(ctx context.Context) async.Outcome {
		if err := tr.RunTurn(ctx, turn); err != nil {
			w.logger.Warn("ai turn failed; passing", zap.String("combatant", id), zap.Error(err))
		}
		if err := r.waitConfirmations(ctx); err != nil {
			return async.Outcome{Interrupted: true}
		}
		return async.Outcome{Hit: true}
	})
	r.coord.Lock().HoldUntil("ai:"+id, p)
	r.aiTurn = p
	return p
}

// endLocked leaves combat. Dying players stabilize at 0 hit points and the
// party's known hostiles are forgotten.
func (r *Runner) endLocked(term Terminal) (TurnResult, *CombatOutcome) {
	w := r.world
	partyEncounters := make(map[string]bool)
	for _, id := range w.order {
		c := w.combatants[id]
		if c.IsPlayer() {
			partyEncounters[c.Encounter] = true
			if c.Dying {
				c.Dying = false
				c.CurrentHP = 0
				w.emitLocked(EventMessage, c.ID, "%s stabilizes.", c.Name)
			}
		}
		if !c.Dead {
			c.Budget.Reset(w.maxAP(c))
		}
	}
	for id := range partyEncounters {
		if e, ok := w.encounters[id]; ok {
			e.clearKnown()
		}
	}

	out := &CombatOutcome{
		ID:           r.combatID,
		AreaID:       w.area.ID,
		StartedRound: r.startRound,
		EndedRound:   w.round,
		Result:       term,
		Participants: r.participants,
		EndedAt:      time.Now(),
	}
	for _, id := range r.participants {
		if c := w.get(id); c != nil && !c.Dead {
			out.Survivors = append(out.Survivors, id)
		}
	}
	r.inCombat = false
	r.queue = nil
	r.state = StateExploration
	r.aiTurn = nil
	w.emitLocked(EventCombatEnded, "", "Combat ended: %s.", term)
	w.logger.Info("combat ended",
		zap.String("area", w.area.ID),
		zap.Stringer("result", term),
		zap.Int("rounds", out.EndedRound-out.StartedRound+1),
	)
	return TurnResult{Kind: TurnEnded, Round: w.round, Terminal: term}, out
}

func (r *Runner) record(ctx context.Context, out *CombatOutcome) {
	if out == nil || r.recorder == nil {
		return
	}
	if err := r.recorder.RecordOutcome(ctx, *out); err != nil {
		r.world.logger.Error("recording combat outcome", zap.String("combat", out.ID.String()), zap.Error(err))
	}
}

// ExitCombat ends combat immediately.
func (r *Runner) ExitCombat(ctx context.Context) error {
	r.world.mu.Lock()
	if !r.inCombat {
		r.world.mu.Unlock()
		return ErrNotInCombat
	}
	_, out := r.endLocked(TerminalExited)
	r.world.mu.Unlock()
	r.record(ctx, out)
	return nil
}

// SetForceCombat toggles forced combat. Forcing while exploring enters combat
// with the first player in initiative order acting first; releasing it ends
// combat if no hostile pair remains.
func (r *Runner) SetForceCombat(ctx context.Context, on bool) (TurnResult, error) {
	r.world.mu.Lock()
	r.force = on
	var res TurnResult
	var out *CombatOutcome
	switch {
	case on && !r.inCombat:
		r.enterLocked()
		for _, id := range r.queue.IDs() {
			if c := r.world.get(id); c.IsPlayer() && !c.Downed() {
				r.queue.SetNext(id)
				break
			}
		}
		res, out = r.advanceLocked()
	case !on && r.inCombat && !r.hostilePairLocked():
		res, out = r.endLocked(TerminalNoHostiles)
	default:
		res = r.currentLocked()
	}
	r.world.mu.Unlock()
	r.record(ctx, out)
	return res, nil
}

func (r *Runner) currentLocked() TurnResult {
	if !r.inCombat {
		return TurnResult{Kind: TurnNone, Round: r.world.round}
	}
	id, ok := r.queue.Active()
	if !ok {
		return TurnResult{Kind: TurnNone, Round: r.world.round}
	}
	kind := TurnAI
	if r.world.get(id).IsPlayer() {
		kind = TurnPlayer
	}
	return TurnResult{Kind: kind, ActiveID: id, Round: r.world.round, AITurn: r.aiTurn}
}

// Wait delays the active combatant by places acting combatants. The caller
// advances the turn afterwards.
func (r *Runner) Wait(id string, places int) bool {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if !r.inCombat {
		return false
	}
	if active, ok := r.queue.Active(); !ok || active != id {
		return false
	}
	if !r.queue.Delay(places, r.actsLocked) {
		return false
	}
	c := r.world.get(id)
	c.Budget.EndTurn()
	r.world.emitLocked(EventMessage, id, "%s waits.", c.Name)
	return true
}

// Insert adds c to the area, spawning it if needed, and during combat queues
// it directly after the active combatant.
func (r *Runner) Insert(c *Combatant) error {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if r.world.get(c.ID) == nil {
		if err := r.world.spawnLocked(c); err != nil {
			return err
		}
	}
	if !r.inCombat {
		return nil
	}
	c.Budget.EndTurn()
	if r.queue.InsertAfterActive(c.ID) {
		r.participants = append(r.participants, c.ID)
	}
	return nil
}

// Interrupt cancels every in-flight animated action and declines every
// pending confirmation. Combat state is left as is.
func (r *Runner) Interrupt() {
	r.world.mu.Lock()
	for _, id := range r.confirmOrder {
		conf := r.confirmations[id]
		if conf.mover != nil && !conf.resolved {
			conf.mover.Resume()
		}
		conf.pending.Interrupt()
		delete(r.confirmations, id)
	}
	r.confirmOrder = nil
	r.initiating = false
	r.world.mu.Unlock()
	r.coord.Interrupt()
}

// validateLocked reports whether a may attack d with the weapon in slot.
func (r *Runner) validateLocked(a, d *Combatant, slot inventory.Slot) bool {
	w := r.world
	if a == nil || d == nil || a == d || a.Helpless() || d.Dead {
		return false
	}
	wpn := a.Weapon(slot, w.logger)
	if wpn == nil || !w.visibleLocked(a, d) {
		return false
	}
	return w.inRangeLocked(a, wpn, d.Pos)
}

// CanAttack reports whether attackerID can make a standard attack on
// defenderID now, including the action point cost in combat.
func (r *Runner) CanAttack(attackerID, defenderID string) bool {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	a, d := r.world.get(attackerID), r.world.get(defenderID)
	if !r.validateLocked(a, d, inventory.MainHand) {
		return false
	}
	return !r.inCombat || a.Budget.CanAfford(r.world.attackCost(a))
}

// StandardAttack spends the attack cost and attacks with the main hand and,
// if wielded, the off hand. It blocks until the animated attack and any
// attacks of opportunity it provoked are resolved. Non-player attackers
// then pause so the result can be seen.
func (r *Runner) StandardAttack(ctx context.Context, attackerID, defenderID string) bool {
	w := r.world
	w.mu.Lock()
	a, d := w.get(attackerID), w.get(defenderID)
	if !r.validateLocked(a, d, inventory.MainHand) {
		w.mu.Unlock()
		return false
	}
	cost := w.attackCost(a)
	if r.inCombat && !a.Budget.Spend(cost) {
		w.mu.Unlock()
		return false
	}
	provoke := a.Weapon(inventory.MainHand, nil).IsRanged() && !a.Stats.ImmuneToRangedAoO
	isPlayer := a.IsPlayer()
	w.mu.Unlock()

	if provoke {
		r.ProvokeOpportunityAttacks(ctx, attackerID, nil)
	}

	w.mu.Lock()
	if a.Helpless() || d.Dead {
		w.mu.Unlock()
		return false
	}
	primary, _ := r.resolver.prepareWeaponLocked(a, d, inventory.MainHand)
	r.resolver.flankLocked(primary, a, d)
	off, hasOff := r.resolver.prepareWeaponLocked(a, d, inventory.OffHand)
	if hasOff {
		r.resolver.flankLocked(off, a, d)
	}
	w.mu.Unlock()

	p := r.coord.RunAnimated(ctx, fmt.Sprintf("attack %s->%s", attackerID, defenderID), w.rules.CombatDelay,
		func(ctx context.Context) async.Outcome {
			hit := r.perform(ctx, primary)
			if hasOff {
				hit = r.perform(ctx, off) || hit
			}
			return async.Outcome{Hit: hit}
		})
	out, err := p.Wait(ctx)
	if err != nil {
		return false
	}
	if !isPlayer {
		sleep(ctx, w.rules.AIDelay())
	}
	return out.Hit
}

// SingleAttack makes one immediate attack with the weapon in slot without
// spending action points.
func (r *Runner) SingleAttack(ctx context.Context, attackerID, defenderID string, slot inventory.Slot) bool {
	return r.singleAttack(ctx, attackerID, defenderID, slot, false)
}

// SingleAttackAnimated is SingleAttack played with an animation delay; it
// blocks until the attack resolves.
func (r *Runner) SingleAttackAnimated(ctx context.Context, attackerID, defenderID string, slot inventory.Slot) bool {
	return r.singleAttack(ctx, attackerID, defenderID, slot, true)
}

func (r *Runner) singleAttack(ctx context.Context, attackerID, defenderID string, slot inventory.Slot, animated bool) bool {
	w := r.world
	w.mu.Lock()
	a, d := w.get(attackerID), w.get(defenderID)
	if !r.validateLocked(a, d, slot) {
		w.mu.Unlock()
		return false
	}
	provoke := a.Weapon(slot, nil).IsRanged() && !a.Stats.ImmuneToRangedAoO
	w.mu.Unlock()

	if provoke {
		r.ProvokeOpportunityAttacks(ctx, attackerID, nil)
	}

	w.mu.Lock()
	if a.Helpless() || d.Dead {
		w.mu.Unlock()
		return false
	}
	at, _ := r.resolver.prepareWeaponLocked(a, d, slot)
	r.resolver.flankLocked(at, a, d)
	w.mu.Unlock()
	return r.run(ctx, "single attack "+attackerID, animated, at)
}

// TouchAttack makes a touch attack. Ranged touch attacks need only line of
// sight and resolve immediately; melee touch attacks need an adjacent target
// at the same elevation and are animated.
func (r *Runner) TouchAttack(ctx context.Context, attackerID, defenderID string, ranged bool) bool {
	w := r.world
	w.mu.Lock()
	a, d := w.get(attackerID), w.get(defenderID)
	if a == nil || d == nil || a == d || a.Helpless() || d.Dead || !w.visibleLocked(a, d) {
		w.mu.Unlock()
		return false
	}
	if !ranged && (!hex.Adjacent(a.Pos, d.Pos) || w.area.Elevation(a.Pos) != w.area.Elevation(d.Pos)) {
		w.mu.Unlock()
		return false
	}
	at := r.resolver.prepareTouchLocked(a, d, ranged)
	w.mu.Unlock()
	return r.run(ctx, "touch attack "+attackerID, !ranged, at)
}

func (r *Runner) run(ctx context.Context, label string, animated bool, at *attack) bool {
	task := func(ctx context.Context) async.Outcome { return async.Outcome{Hit: r.perform(ctx, at)} }
	if !animated {
		return r.coord.RunImmediate(ctx, label, task).Hit
	}
	out, err := r.coord.RunAnimated(ctx, label, r.world.rules.CombatDelay, task).Wait(ctx)
	return err == nil && out.Hit
}

// perform finishes a prepared attack: hooks adjust it, the hit is decided,
// and damage is applied. Hooks run outside the World lock.
func (r *Runner) perform(ctx context.Context, at *attack) bool {
	var adj Adjustment
	if r.hooks != nil {
		adj = r.hooks.BeforeAttack(ctx, at.info())
	}

	w := r.world
	w.mu.Lock()
	a, d := w.get(at.attackerID), w.get(at.defenderID)
	if a == nil || d == nil || d.Dead {
		w.mu.Unlock()
		return false
	}
	at.adjust(adj)
	res := r.resolver.finishLocked(at, a, d)
	w.emitLocked(EventMessage, a.ID, "%s", res)
	applied, died := w.applyDamageLocked(d, res)
	if applied > 0 {
		w.emitLocked(EventMessage, d.ID, "%s takes %d damage.", d.Name, applied)
		w.emitLocked(EventUpdateEntity, d.ID, "%d/%d", d.CurrentHP, d.MaxHP)
	}
	switch {
	case died:
		r.deathLocked(d)
	case d.Dying:
		w.emitLocked(EventMessage, d.ID, "%s is dying.", d.Name)
	}
	w.mu.Unlock()

	if res.Hit && r.hooks != nil {
		info := at.info()
		info.Hit = true
		info.Critical = res.Critical
		info.Damage = applied
		r.hooks.AfterHit(ctx, info)
	}
	return res.Hit
}

// Step moves id one tile to an adjacent free tile, spending movement points
// in combat. Hostiles threatening the destination get attacks of opportunity
// first, and the move waits until every player confirmation resolves.
func (r *Runner) Step(ctx context.Context, id string, to hex.Point) bool {
	w := r.world
	w.mu.Lock()
	c := w.get(id)
	if c == nil || c.Helpless() || !hex.Adjacent(c.Pos, to) || !w.passableLocked(c, to) {
		w.mu.Unlock()
		return false
	}
	cost := w.movementCost(c)
	if r.inCombat && !c.Budget.CanAfford(cost) {
		w.mu.Unlock()
		return false
	}
	w.mu.Unlock()

	r.ProvokeOpportunityAttacks(ctx, id, &stepMover{next: to})
	if ctx.Err() != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if c.Helpless() || !w.passableLocked(c, to) {
		return false
	}
	if r.inCombat && !c.Budget.Spend(cost) {
		return false
	}
	if err := w.index.Move(id, to); err != nil {
		return false
	}
	c.Pos = to
	return true
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
