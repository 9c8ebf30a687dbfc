package combat

import "slices"

// Encounter groups combatants that share a faction and a memory of the
// hostiles they have seen.
//
// Invariant: KnownHostiles holds no duplicates and lists ids in the order
// they were first seen.
type Encounter struct {
	ID      string
	Faction string

	members []string
	known   []string
}

func (e *Encounter) addMember(id string) {
	if !slices.Contains(e.members, id) {
		e.members = append(e.members, id)
	}
}

func (e *Encounter) removeMember(id string) {
	e.members = slices.DeleteFunc(e.members, func(m string) bool { return m == id })
}

// addKnown records id as a known hostile and reports whether it was new.
func (e *Encounter) addKnown(id string) bool {
	if slices.Contains(e.known, id) {
		return false
	}
	e.known = append(e.known, id)
	return true
}

func (e *Encounter) clearKnown() { e.known = nil }

// EncounterInfo is a snapshot of an encounter.
type EncounterInfo struct {
	ID            string
	Faction       string
	Members       []string
	KnownHostiles []string
}

func (e *Encounter) info() EncounterInfo {
	return EncounterInfo{
		ID:            e.ID,
		Faction:       e.Faction,
		Members:       slices.Clone(e.members),
		KnownHostiles: slices.Clone(e.known),
	}
}

// AddEncounter registers an empty encounter for factionID. Registering an
// existing id returns it unchanged.
func (w *World) AddEncounter(id, factionID string) EncounterInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encounterLocked(id, factionID).info()
}

// Encounter returns a snapshot of the encounter with id.
func (w *World) Encounter(id string) (EncounterInfo, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.encounters[id]
	if !ok {
		return EncounterInfo{}, false
	}
	return e.info(), true
}

func (w *World) encounterLocked(id, factionID string) *Encounter {
	if e, ok := w.encounters[id]; ok {
		return e
	}
	e := &Encounter{ID: id, Faction: factionID}
	w.encounters[id] = e
	w.encounterOrder = append(w.encounterOrder, id)
	return e
}

// setEncounterFactionLocked moves the encounter and all its members to factionID.
func (w *World) setEncounterFactionLocked(id, factionID string) bool {
	e, ok := w.encounters[id]
	if !ok {
		return false
	}
	e.Faction = factionID
	for _, m := range e.members {
		if c := w.combatants[m]; c != nil {
			c.Faction = factionID
		}
	}
	return true
}
