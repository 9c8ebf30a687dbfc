package condition

import "fmt"

// ActiveCondition tracks one applied condition.
type ActiveCondition struct {
	Def               *ConditionDef
	Stacks            int
	DurationRemaining int // -1 = permanent
}

// ActiveSet tracks the conditions on one combatant in application order.
// It is not safe for concurrent use; the owning world context serializes access.
type ActiveSet struct {
	conditions map[string]*ActiveCondition
	order      []string
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*ActiveCondition)}
}

// Apply adds def or refreshes it. Re-applying adds stacks up to MaxStacks and
// keeps the longer duration. Use duration -1 for permanent.
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true.
func (s *ActiveSet) Apply(def *ConditionDef, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("condition: Apply with nil def")
	}
	if def.DurationType == DurationPermanent {
		duration = -1
	}
	if existing, ok := s.conditions[def.ID]; ok {
		if def.MaxStacks > 0 {
			existing.Stacks = min(existing.Stacks+stacks, def.MaxStacks)
		}
		if duration > existing.DurationRemaining && existing.DurationRemaining >= 0 {
			existing.DurationRemaining = duration
		}
		return nil
	}
	effective := 1
	if def.MaxStacks > 0 {
		effective = max(1, min(stacks, def.MaxStacks))
	}
	s.conditions[def.ID] = &ActiveCondition{Def: def, Stacks: effective, DurationRemaining: duration}
	s.order = append(s.order, def.ID)
	return nil
}

// Remove deletes the condition with id; absent ids are ignored.
func (s *ActiveSet) Remove(id string) {
	if _, ok := s.conditions[id]; !ok {
		return
	}
	delete(s.conditions, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Tick elapses one round on every round-limited condition and removes those
// that run out, returning their ids in application order.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for _, id := range s.order {
		ac := s.conditions[id]
		if ac.DurationRemaining < 0 {
			continue
		}
		ac.DurationRemaining--
		if ac.DurationRemaining <= 0 {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.Remove(id)
	}
	return expired
}

// Has reports whether the condition with id is active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the stack count for id, or 0.
func (s *ActiveSet) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// Len returns the number of active conditions.
func (s *ActiveSet) Len() int { return len(s.order) }

// All returns the active conditions in application order. The pointed-to
// values are shared and must not be modified.
func (s *ActiveSet) All() []*ActiveCondition {
	out := make([]*ActiveCondition, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.conditions[id])
	}
	return out
}
