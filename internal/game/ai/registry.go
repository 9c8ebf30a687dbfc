package ai

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexcombat/internal/game/combat"
)

// Registry indexes Planners by domain ID.
//
// Invariant: each domain ID is registered at most once and never shadows a
// built-in behavior name.
type Registry struct {
	planners map[string]*Planner
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{planners: make(map[string]*Planner)}
}

// Register creates and stores a Planner for domain.
//
// Precondition: domain and caller must not be nil.
// Postcondition: returns error on domain ID collision.
func (r *Registry) Register(domain *Domain, caller ScriptCaller, scriptKey string) error {
	if domain.ID == BehaviorAggressive || domain.ID == BehaviorPassive {
		return fmt.Errorf("ai.Registry: domain %q shadows a built-in behavior", domain.ID)
	}
	if _, exists := r.planners[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: domain %q already registered", domain.ID)
	}
	r.planners[domain.ID] = NewPlanner(domain, caller, scriptKey)
	return nil
}

// PlannerFor returns the Planner for domainID, or false if not registered.
func (r *Registry) PlannerFor(domainID string) (*Planner, bool) {
	p, ok := r.planners[domainID]
	return p, ok
}

// Names returns the registered domain IDs in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.planners))
	for id := range r.planners {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Install registers Aggressive, Passive and one Planned behavior per domain
// on runner. Planned behaviors are registered under their domain IDs.
func (r *Registry) Install(runner *combat.Runner, logger *zap.Logger) {
	runner.RegisterBehavior(BehaviorAggressive, Aggressive{})
	runner.RegisterBehavior(BehaviorPassive, Passive{})
	for _, id := range r.Names() {
		runner.RegisterBehavior(id, NewPlanned(r.planners[id], logger.With(zap.String("domain", id))))
	}
}
