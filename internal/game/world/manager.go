package world

import (
	"fmt"
	"sort"
	"sync"
)

// Manager provides thread-safe lookup of loaded areas.
type Manager struct {
	mu    sync.RWMutex
	areas map[string]*Area
}

// NewManager indexes areas by ID.
//
// Postcondition: Returns a Manager, or an error on duplicate area IDs.
func NewManager(areas []*Area) (*Manager, error) {
	m := &Manager{areas: make(map[string]*Area, len(areas))}
	for _, a := range areas {
		if _, exists := m.areas[a.ID]; exists {
			return nil, fmt.Errorf("duplicate area ID: %q", a.ID)
		}
		m.areas[a.ID] = a
	}
	return m, nil
}

// Area returns the area with the given ID.
func (m *Manager) Area(id string) (*Area, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.areas[id]
	return a, ok
}

// IDs returns all area IDs in sorted order.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.areas))
	for id := range m.areas {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
