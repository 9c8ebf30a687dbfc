package combat

// ActionBudget is a combatant's per-turn pool of action points, in hundredths.
//
// Invariant: 0 <= Remaining() <= Max().
type ActionBudget struct {
	current int
	max     int
}

// Reset refills the budget to max.
func (b *ActionBudget) Reset(max int) {
	if max < 0 {
		max = 0
	}
	b.max, b.current = max, max
}

// EndTurn forfeits whatever remains.
func (b *ActionBudget) EndTurn() { b.current = 0 }

// Remaining returns the unspent points.
func (b *ActionBudget) Remaining() int { return b.current }

// Max returns the points granted at the start of the turn.
func (b *ActionBudget) Max() int { return b.max }

// CanAfford reports whether cost can be paid.
func (b *ActionBudget) CanAfford(cost int) bool { return b.current >= cost }

// Spend deducts cost. It reports false and deducts nothing when cost exceeds
// the remaining points.
func (b *ActionBudget) Spend(cost int) bool {
	if cost < 0 || cost > b.current {
		return false
	}
	b.current -= cost
	return true
}

// Steps returns how many moves of cost the budget still covers.
func (b *ActionBudget) Steps(cost int) int {
	if cost <= 0 {
		return 0
	}
	return b.current / cost
}
