package combat

import "slices"

// TurnQueue is the initiative order of one combat with a cursor on the
// active combatant. The cursor starts at -1, before the first turn.
//
// Invariant: the cursor is -1 or a valid index. After the active combatant is
// removed the cursor rests on its predecessor, so the next Advance resumes
// with whoever followed it.
type TurnQueue struct {
	ids        []string
	cursor     int
	activeGone bool
}

// NewTurnQueue creates a queue in the given order.
func NewTurnQueue(ids []string) *TurnQueue {
	return &TurnQueue{ids: slices.Clone(ids), cursor: -1}
}

// Len returns the number of queued combatants.
func (q *TurnQueue) Len() int { return len(q.ids) }

// IDs returns the queue order.
func (q *TurnQueue) IDs() []string { return slices.Clone(q.ids) }

// Contains reports whether id is queued.
func (q *TurnQueue) Contains(id string) bool { return slices.Contains(q.ids, id) }

// Active returns the combatant whose turn it is.
func (q *TurnQueue) Active() (string, bool) {
	if q.cursor < 0 || q.activeGone || q.cursor >= len(q.ids) {
		return "", false
	}
	return q.ids[q.cursor], true
}

// Advance moves the cursor to the next combatant and reports whether it
// wrapped to the start of a new round.
func (q *TurnQueue) Advance() (string, bool) {
	if len(q.ids) == 0 {
		return "", false
	}
	q.activeGone = false
	q.cursor++
	if q.cursor >= len(q.ids) {
		q.cursor = 0
		return q.ids[0], true
	}
	return q.ids[q.cursor], false
}

// Remove drops id and reports whether it was queued.
func (q *TurnQueue) Remove(id string) bool {
	i := slices.Index(q.ids, id)
	if i < 0 {
		return false
	}
	q.ids = slices.Delete(q.ids, i, i+1)
	switch {
	case i < q.cursor:
		q.cursor--
	case i == q.cursor:
		q.cursor--
		q.activeGone = true
	}
	return true
}

// InsertAfterActive queues id directly after the active combatant, or at the
// front when no turn has begun.
func (q *TurnQueue) InsertAfterActive(id string) bool {
	if slices.Contains(q.ids, id) {
		return false
	}
	q.ids = slices.Insert(q.ids, q.cursor+1, id)
	return true
}

// Delay moves the active combatant back past places combatants for which
// counts returns true, wrapping into the next round if needed. The cursor is
// left on the active combatant's predecessor so the next Advance starts the
// following turn.
func (q *TurnQueue) Delay(places int, counts func(id string) bool) bool {
	id, ok := q.Active()
	if !ok || places <= 0 {
		return false
	}
	n := len(q.ids)
	after := ""
	seen := 0
	for step := 1; step < n; step++ {
		cand := q.ids[(q.cursor+step)%n]
		if counts(cand) {
			seen++
		}
		if seen == places {
			after = cand
			break
		}
	}
	if after == "" {
		return false
	}
	prev := ""
	if q.cursor > 0 {
		prev = q.ids[q.cursor-1]
	}
	q.ids = slices.Delete(q.ids, q.cursor, q.cursor+1)
	q.ids = slices.Insert(q.ids, slices.Index(q.ids, after)+1, id)
	q.cursor = -1
	if prev != "" {
		q.cursor = slices.Index(q.ids, prev)
	}
	return true
}

// SetNext arranges for id to be returned by the next Advance.
func (q *TurnQueue) SetNext(id string) bool {
	i := slices.Index(q.ids, id)
	if i < 0 {
		return false
	}
	q.cursor = i - 1
	q.activeGone = false
	return true
}

// Upcoming returns up to n combatants, after the active one, for which
// eligible returns true. The scan cycles through the queue and may repeat
// combatants when fewer than n are eligible.
func (q *TurnQueue) Upcoming(n int, eligible func(id string) bool) []string {
	if len(q.ids) == 0 || n <= 0 {
		return nil
	}
	var out []string
	i := q.cursor
	for scanned := 0; len(out) < n && scanned < n*len(q.ids); scanned++ {
		i = (i + 1) % len(q.ids)
		if eligible(q.ids[i]) {
			out = append(out, q.ids[i])
		}
	}
	return out
}
