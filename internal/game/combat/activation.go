package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/async"
	"github.com/cory-johannsen/hexcombat/internal/game/faction"
)

// PartyEncounter is the encounter players join when they name none.
const PartyEncounter = "party"

// ActivationReport is the result of an activation check.
type ActivationReport struct {
	// Visible is true when any player can see a living hostile.
	Visible bool
	// NewHostiles is true when the party learned of a hostile it had not seen.
	NewHostiles bool
	// CombatStarting settles once the scheduled combat start has run. It is
	// nil unless this check scheduled one.
	CombatStarting *async.Pending
}

// CheckActivation updates encounter awareness from what the players can see.
// Each living hostile a player sees becomes known to the party; unless the
// player is hidden, the hostile's encounter learns of the player and its
// NPCs turn AI-active. A hostile new to the party outside combat schedules
// combat to start after the activation delay, with the interface locked in
// the meantime.
func (r *Runner) CheckActivation(ctx context.Context) ActivationReport {
	w := r.world
	w.mu.Lock()
	defer w.mu.Unlock()
	var rep ActivationReport
	for _, id := range w.order {
		c := w.combatants[id]
		if !c.IsPlayer() || c.Downed() {
			continue
		}
		party := w.encounters[c.Encounter]
		for _, h := range w.visibleHostilesLocked(c) {
			rep.Visible = true
			if !c.Hidden() {
				r.alertLocked(h, c)
			}
			if party != nil && party.addKnown(h.ID) {
				rep.NewHostiles = true
				w.logger.Debug("hostile spotted", zap.String("viewer", c.ID), zap.String("hostile", h.ID))
			}
		}
	}
	if rep.NewHostiles && !r.inCombat && !r.initiating {
		r.initiating = true
		w.emitLocked(EventMessage, "", "Hostile creature spotted. Combat initiated.")
		delay := w.rules.ActivationDelay()
		r.coord.Lock().Hold("combat-start", delay)
		rep.CombatStarting = r.coord.After(ctx, "combat start", delay, func(context.Context) {
			r.beginCombat()
		})
	}
	return rep
}

// alertLocked makes h's side aware of player p and activates it.
func (r *Runner) alertLocked(h, p *Combatant) {
	e, ok := r.world.encounters[h.Encounter]
	if !ok {
		r.activateLocked(h)
		return
	}
	if e.addKnown(p.ID) {
		for _, m := range e.members {
			if c := r.world.get(m); c != nil {
				r.activateLocked(c)
			}
		}
	}
}

func (r *Runner) activateLocked(c *Combatant) {
	if c.IsPlayer() || c.AIActive || c.Dead {
		return
	}
	c.AIActive = true
	r.world.logger.Debug("ai activated", zap.String("combatant", c.ID))
}

// observeLocked lets an acting NPC's encounter learn the hostiles it sees.
func (r *Runner) observeLocked(c *Combatant) {
	e, ok := r.world.encounters[c.Encounter]
	if !ok {
		return
	}
	for _, h := range r.world.visibleHostilesLocked(c) {
		e.addKnown(h.ID)
	}
}

func (r *Runner) beginCombat() {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	if r.initiating && !r.inCombat {
		r.enterLocked()
	}
	r.initiating = false
}

// ActivateEncounter turns every NPC in encounter id AI-active.
func (r *Runner) ActivateEncounter(id string) error {
	r.world.mu.Lock()
	defer r.world.mu.Unlock()
	e, ok := r.world.encounters[id]
	if !ok {
		return fmt.Errorf("unknown encounter %q", id)
	}
	for _, m := range e.members {
		if c := r.world.get(m); c != nil {
			r.activateLocked(c)
		}
	}
	return nil
}

// SetEncounterFaction moves an encounter and its members to factionID and
// re-runs activation.
func (r *Runner) SetEncounterFaction(ctx context.Context, encounterID, factionID string) (ActivationReport, error) {
	r.world.mu.Lock()
	ok := r.world.setEncounterFactionLocked(encounterID, factionID)
	r.world.mu.Unlock()
	if !ok {
		return ActivationReport{}, fmt.Errorf("unknown encounter %q", encounterID)
	}
	return r.CheckActivation(ctx), nil
}

// SetRelationship overrides the relationship between two factions and
// re-runs activation. Combat ends at the next turn boundary if no hostile
// pair remains.
func (r *Runner) SetRelationship(ctx context.Context, a, b string, rel faction.Relationship) ActivationReport {
	r.world.factions.SetOverride(a, b, rel)
	return r.CheckActivation(ctx)
}
