package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/ai"
	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/combat"
	"github.com/cory-johannsen/hexcombat/internal/game/dice"
	"github.com/cory-johannsen/hexcombat/internal/game/inventory"
	"github.com/cory-johannsen/hexcombat/internal/scripting"
)

// DefaultMaxRounds bounds a fight when Options leaves MaxRounds unset.
const DefaultMaxRounds = 100

// Options tunes a Simulation.
type Options struct {
	// Rules defaults to combat.DefaultRules when zero.
	Rules combat.Rules
	// MaxRounds exits combat once the round counter passes it.
	MaxRounds int
	// Source drives every roll; nil selects a crypto source.
	Source dice.Source
	// Recorder additionally receives every finished combat.
	Recorder combat.OutcomeRecorder
	// Sink receives combat events; nil logs them.
	Sink combat.EventSink
	// GlobalScriptDir holds HTN preconditions; empty loads none.
	GlobalScriptDir string
	// InstructionLimit applies to VMs whose area sets no limit.
	InstructionLimit int
	Logger           *zap.Logger
}

// Simulation is one area with its creatures, ready to fight.
type Simulation struct {
	World   *combat.World
	Runner  *combat.Runner
	Scripts *scripting.Manager

	logger    *zap.Logger
	maxRounds int
	// controllers maps player IDs to the behavior that autopilots them.
	controllers map[string]string
	wake        chan struct{}
	outcomes    *outcomeLog
}

// Result summarizes a Run.
type Result struct {
	// Started is false when nobody saw a hostile and combat never began.
	Started bool
	Outcome combat.CombatOutcome
}

// New builds a Simulation for sc. The caller must Close it.
//
// Precondition: content and sc must not be nil, and sc must have passed
// content's reference checks.
// Postcondition: every combatant is spawned with its equipment, conditions
// and behavior.
func New(ctx context.Context, content *Content, sc *Scenario, opts Options) (*Simulation, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := opts.Source
	if src == nil {
		src = dice.NewCryptoSource()
	}
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	area := sc.Area
	limit := opts.InstructionLimit
	if area.ScriptInstructionLimit > 0 {
		limit = area.ScriptInstructionLimit
	}

	roller := dice.NewRoller(src, logger)
	scripts := scripting.NewManager(roller, logger)
	s := &Simulation{
		Scripts:     scripts,
		logger:      logger.With(zap.String("area", area.ID)),
		maxRounds:   maxRounds,
		controllers: make(map[string]string),
		wake:        make(chan struct{}, 1),
		outcomes:    &outcomeLog{next: opts.Recorder},
	}
	if err := s.build(ctx, content, sc, opts, roller, limit); err != nil {
		scripts.Close()
		return nil, err
	}
	return s, nil
}

func (s *Simulation) build(ctx context.Context, content *Content, sc *Scenario, opts Options, roller *dice.Roller, limit int) error {
	area := sc.Area
	if opts.GlobalScriptDir != "" {
		if err := s.Scripts.LoadGlobal(ctx, opts.GlobalScriptDir, limit); err != nil {
			return err
		}
	}
	if area.ScriptDir != "" {
		if err := s.Scripts.LoadArea(ctx, area.ID, area.ScriptDir, limit); err != nil {
			return err
		}
	}

	rules := opts.Rules
	if rules == (combat.Rules{}) {
		rules = combat.DefaultRules()
	}
	var sink combat.EventSink = combat.NewLogSink(s.logger)
	if opts.Sink != nil {
		sink = opts.Sink
	}
	w, err := combat.NewWorld(area, content.Factions, roller,
		combat.WithRules(rules),
		combat.WithLogger(s.logger),
		combat.WithSink(combat.MultiSink{sink, confirmationSignal(s.wake)}),
	)
	if err != nil {
		return fmt.Errorf("building world for area %q: %w", area.ID, err)
	}
	s.World = w
	s.Runner = combat.NewRunner(w, async.NewCoordinator(s.logger),
		combat.WithHooks(NewLuaHooks(s.Scripts, area.ID)),
		combat.WithRecorder(s.outcomes),
	)
	s.Scripts.Engine = ai.NewEngine(s.Runner)

	reg := ai.NewRegistry()
	for _, d := range content.Domains {
		if err := reg.Register(d, s.Scripts, scripting.GlobalKey); err != nil {
			return err
		}
	}
	reg.Install(s.Runner, s.logger)

	for _, spec := range sc.Combatants {
		if err := s.spawn(ctx, content, spec, limit); err != nil {
			return fmt.Errorf("area %q: %w", area.ID, err)
		}
	}
	return nil
}

func (s *Simulation) spawn(ctx context.Context, content *Content, spec CombatantSpec, limit int) error {
	name := spec.Name
	if name == "" {
		name = spec.ID
	}
	c := combat.NewCombatant(spec.ID, name, spec.CombatantKind(), spec.Faction, spec.HP)
	c.Encounter = spec.Encounter
	c.Summoned = spec.Summoned
	c.AIActive = spec.Active
	c.RacialTypes = spec.RacialTypes
	c.Pos = spec.Position()
	if spec.Stats.Kind != 0 {
		if err := spec.Stats.Decode(&c.Stats); err != nil {
			return fmt.Errorf("combatant %q stats: %w", spec.ID, err)
		}
	}
	if err := equip(c, content, spec); err != nil {
		return err
	}

	switch {
	case spec.Script != "":
		if err := s.Scripts.LoadCombatant(ctx, spec.ID, spec.Script, limit); err != nil {
			return err
		}
		c.Behavior = "script:" + spec.ID
		s.Runner.RegisterBehavior(c.Behavior, ai.NewScript(s.Scripts, spec.ID))
	case spec.Behavior != "":
		c.Behavior = spec.Behavior
	default:
		c.Behavior = ai.BehaviorAggressive
	}
	if c.IsPlayer() {
		s.controllers[c.ID] = c.Behavior
	}

	if err := s.World.Spawn(c); err != nil {
		return fmt.Errorf("spawning %q: %w", spec.ID, err)
	}
	for _, cs := range spec.Conditions {
		def, _ := content.Conditions.Get(cs.ID)
		stacks := cs.Stacks
		if stacks < 1 {
			stacks = 1
		}
		if err := s.World.ApplyCondition(spec.ID, def, stacks, cs.Duration); err != nil {
			return fmt.Errorf("combatant %q condition %q: %w", spec.ID, cs.ID, err)
		}
	}
	return nil
}

func equip(c *combat.Combatant, content *Content, spec CombatantSpec) error {
	items := content.Items
	if spec.DefaultWeapon != "" {
		c.DefaultWeapon, _ = items.Weapon(spec.DefaultWeapon)
	}
	if spec.MainHand != "" {
		w, _ := items.Weapon(spec.MainHand)
		c.Equipment.Equip(inventory.MainHand, w)
	}
	if spec.OffHand != "" {
		w, _ := items.Weapon(spec.OffHand)
		c.Equipment.Equip(inventory.OffHand, w)
	}
	if spec.Quiver != nil {
		a, _ := items.Ammo(spec.Quiver.Ammo)
		c.Equipment.EquipQuiver(a, spec.Quiver.Count)
	}
	for _, id := range sortedKeys(spec.Stock) {
		if w, ok := items.Weapon(id); ok {
			c.Equipment.StockWeapon(w, spec.Stock[id])
			continue
		}
		if a, ok := items.Ammo(id); ok {
			c.Equipment.StockAmmo(a, spec.Stock[id])
			continue
		}
		return fmt.Errorf("combatant %q: unknown stock item %q", spec.ID, id)
	}
	return nil
}

// Close stops in-flight actions and releases the Lua VMs.
func (s *Simulation) Close() {
	s.Runner.Interrupt()
	s.Scripts.Close()
}

// Run checks what the players can see and, if that starts combat, fights
// it to the end.
func (s *Simulation) Run(ctx context.Context) (Result, error) {
	rep := s.Runner.CheckActivation(ctx)
	if rep.CombatStarting != nil {
		if _, err := rep.CombatStarting.Wait(ctx); err != nil {
			return Result{}, err
		}
	}
	if !s.Runner.IsInCombat() {
		s.logger.Info("no hostiles in sight; combat not started")
		return Result{}, nil
	}
	return s.Fight(ctx)
}

// Fight plays the running combat to its end with every combatant under
// autopilot. Player attack-of-opportunity confirmations are answered by the
// player's behavior. Combat is exited once it runs past the round limit.
func (s *Simulation) Fight(ctx context.Context) (Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.resolveConfirmations(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if s.World.Round() > s.maxRounds {
			s.logger.Warn("round limit reached; exiting combat", zap.Int("max_rounds", s.maxRounds))
			if err := s.Runner.ExitCombat(ctx); err != nil && !errors.Is(err, combat.ErrNotInCombat) {
				return Result{}, err
			}
			return s.result(), nil
		}
		res, err := s.Runner.AdvanceTurn(ctx)
		if errors.Is(err, combat.ErrNotInCombat) {
			return s.result(), nil
		}
		if err != nil {
			return Result{}, err
		}
		switch res.Kind {
		case combat.TurnEnded:
			return s.result(), nil
		case combat.TurnPlayer:
			if err := s.playPlayer(ctx, res.ActiveID); err != nil {
				s.logger.Warn("autopilot turn failed; passing", zap.String("combatant", res.ActiveID), zap.Error(err))
			}
		case combat.TurnAI:
			if _, err := res.AITurn.Wait(ctx); err != nil && !errors.Is(err, async.ErrInterrupted) {
				return Result{}, err
			}
		case combat.TurnNone:
			if err := s.Runner.ExitCombat(ctx); err != nil && !errors.Is(err, combat.ErrNotInCombat) {
				return Result{}, err
			}
			return s.result(), nil
		}
	}
}

func (s *Simulation) playPlayer(ctx context.Context, id string) error {
	lock := s.Runner.Coordinator().Lock()
	if lock.Locked() {
		s.logger.Debug("holding player input", zap.String("combatant", id), zap.Strings("owners", lock.Owners()))
	}
	if err := lock.WaitIdle(ctx); err != nil {
		return err
	}
	turn, ok := s.Runner.PlayerTurn()
	if !ok || turn.ActorID != id {
		return nil
	}
	b, _ := s.Runner.Behavior(s.controllers[id])
	tr, ok := b.(combat.TurnRunner)
	if !ok {
		return nil
	}
	return tr.RunTurn(ctx, turn)
}

// resolveConfirmations answers player confirmations until ctx is done.
func (s *Simulation) resolveConfirmations(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for _, c := range s.Runner.PendingConfirmations() {
			accept := s.decide(ctx, c)
			if err := s.Runner.ResolveOpportunityAttack(ctx, c.ID, accept); err != nil {
				s.logger.Debug("confirmation already resolved", zap.Stringer("confirmation", c.ID), zap.Error(err))
			}
		}
	}
}

func (s *Simulation) decide(ctx context.Context, c combat.ConfirmationInfo) bool {
	self, ok := s.World.View(c.AttackerID)
	if !ok {
		return false
	}
	target, ok := s.World.View(c.TargetID)
	if !ok {
		return false
	}
	b, _ := s.Runner.Behavior(s.controllers[c.AttackerID])
	if d, ok := b.(combat.OpportunityDecider); ok {
		return d.DecideOpportunityAttack(ctx, self, target)
	}
	return true
}

func (s *Simulation) result() Result {
	out, ok := s.outcomes.last()
	return Result{Started: ok, Outcome: out}
}

// confirmationSignal wakes the confirmation resolver. It never blocks.
type confirmationSignal chan struct{}

func (c confirmationSignal) Emit(e combat.Event) {
	if e.Kind != combat.EventConfirmationRequested {
		return
	}
	select {
	case c <- struct{}{}:
	default:
	}
}

// outcomeLog keeps the latest outcome and forwards it to next.
type outcomeLog struct {
	next   combat.OutcomeRecorder
	mu     sync.Mutex
	latest *combat.CombatOutcome
}

func (l *outcomeLog) RecordOutcome(ctx context.Context, o combat.CombatOutcome) error {
	l.mu.Lock()
	l.latest = &o
	l.mu.Unlock()
	if l.next == nil {
		return nil
	}
	return l.next.RecordOutcome(ctx, o)
}

func (l *outcomeLog) last() (combat.CombatOutcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.latest == nil {
		return combat.CombatOutcome{}, false
	}
	return *l.latest, true
}
