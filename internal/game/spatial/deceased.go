package spatial

// Ticker is a removed entity whose timed effects keep elapsing.
type Ticker interface {
	EntityID() string
	// ElapseRounds advances effects by rounds and reports whether any remain.
	ElapseRounds(rounds int) bool
}

// DeceasedTracker holds removed entities with active timed effects until
// those effects run out.
type DeceasedTracker struct {
	entries map[string]Ticker
	order   []string
}

// NewDeceasedTracker creates an empty tracker.
func NewDeceasedTracker() *DeceasedTracker {
	return &DeceasedTracker{entries: make(map[string]Ticker)}
}

// Track adds t. Tracking an already tracked id is a no-op.
func (d *DeceasedTracker) Track(t Ticker) {
	if _, ok := d.entries[t.EntityID()]; ok {
		return
	}
	d.entries[t.EntityID()] = t
	d.order = append(d.order, t.EntityID())
}

// Untrack drops id, e.g. when the entity is revived.
func (d *DeceasedTracker) Untrack(id string) {
	if _, ok := d.entries[id]; !ok {
		return
	}
	delete(d.entries, id)
	for i, other := range d.order {
		if other == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

// Elapse advances every tracked entry and drops those with no effects left.
//
// Postcondition: returns the ids dropped during this call.
func (d *DeceasedTracker) Elapse(rounds int) []string {
	var dropped []string
	kept := d.order[:0]
	for _, id := range d.order {
		if d.entries[id].ElapseRounds(rounds) {
			kept = append(kept, id)
			continue
		}
		delete(d.entries, id)
		dropped = append(dropped, id)
	}
	d.order = kept
	return dropped
}

// IDs returns the tracked ids in tracking order.
func (d *DeceasedTracker) IDs() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of tracked entries.
func (d *DeceasedTracker) Len() int { return len(d.order) }
