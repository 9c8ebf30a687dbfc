package condition

func sum(s *ActiveSet, field func(*ConditionDef) int) int {
	if s == nil {
		return 0
	}
	total := 0
	for _, id := range s.order {
		ac := s.conditions[id]
		total += field(ac.Def) * ac.Stacks
	}
	return total
}

func hasFlag(s *ActiveSet, flag func(*ConditionDef) bool) bool {
	if s == nil {
		return false
	}
	for _, ac := range s.conditions {
		if flag(ac.Def) {
			return true
		}
	}
	return false
}

// AttackBonus returns the net attack modifier, scaled by stacks.
func AttackBonus(s *ActiveSet) int {
	return sum(s, func(d *ConditionDef) int { return d.AttackBonus })
}

// ACBonus returns the net armor class modifier, scaled by stacks.
func ACBonus(s *ActiveSet) int {
	return sum(s, func(d *ConditionDef) int { return d.ACBonus })
}

// ConcealmentBonus returns the net personal concealment, scaled by stacks.
func ConcealmentBonus(s *ActiveSet) int {
	return sum(s, func(d *ConditionDef) int { return d.ConcealmentBonus })
}

// DamageBonus returns the net percentage damage modifier, scaled by stacks.
func DamageBonus(s *ActiveSet) int {
	return sum(s, func(d *ConditionDef) int { return d.DamageBonus })
}

// IsHelpless reports whether any condition leaves the bearer unable to act.
func IsHelpless(s *ActiveSet) bool {
	return hasFlag(s, func(d *ConditionDef) bool { return d.Helpless })
}

// IsHidden reports whether any condition hides the bearer from sight.
func IsHidden(s *ActiveSet) bool {
	return hasFlag(s, func(d *ConditionDef) bool { return d.Hidden })
}

// IsBlind reports whether any condition blinds the bearer.
func IsBlind(s *ActiveSet) bool {
	return hasFlag(s, func(d *ConditionDef) bool { return d.Blind })
}
