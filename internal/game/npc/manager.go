package npc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cory-johannsen/tactics/internal/game/combat"
	"github.com/cory-johannsen/tactics/internal/game/condition"
)

// Manager holds enemy templates and tracks the combatants spawned from them.
// All methods are safe for concurrent use.
type Manager struct {
	mu         sync.RWMutex
	catalog    *combat.Catalog
	conditions *condition.Registry
	templates  map[string]*Template
	instances  map[string]*combat.Combatant // combatant ID → combatant
	origin     map[string]string            // combatant ID → template ID
}

// NewManager creates an empty Manager resolving abilities through catalog.
//
// Precondition: catalog must not be nil; conditions may be nil.
func NewManager(catalog *combat.Catalog, conditions *condition.Registry) *Manager {
	return &Manager{
		catalog:    catalog,
		conditions: conditions,
		templates:  make(map[string]*Template),
		instances:  make(map[string]*combat.Combatant),
		origin:     make(map[string]string),
	}
}

// AddTemplate registers tmpl after checking its abilities resolve.
//
// Postcondition: Returns an error on a duplicate ID or an unknown ability.
func (m *Manager) AddTemplate(tmpl *Template) error {
	if _, err := m.catalog.Resolve(tmpl.Abilities); err != nil {
		return fmt.Errorf("npc template %q: %w", tmpl.ID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[tmpl.ID]; ok {
		return fmt.Errorf("npc template %q already registered", tmpl.ID)
	}
	m.templates[tmpl.ID] = tmpl
	return nil
}

// Template returns the template for id.
func (m *Manager) Template(id string) (*Template, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[id]
	return t, ok
}

// TemplateIDs returns every registered template ID in sorted order.
func (m *Manager) TemplateIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.templates))
	for id := range m.templates {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Spawn creates a new enemy Combatant from tmpl at pos.
//
// Precondition: tmpl must be non-nil.
// Postcondition: Returns a full-health enemy with a fresh UUID, tracked by
// the manager.
func (m *Manager) Spawn(tmpl *Template, pos combat.Vec2) (*combat.Combatant, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: tmpl must not be nil")
	}
	abilities, err := m.catalog.Resolve(tmpl.Abilities)
	if err != nil {
		return nil, fmt.Errorf("npc.Manager.Spawn %q: %w", tmpl.ID, err)
	}
	c := combat.NewCombatant(combat.Stats{
		ID:          uuid.NewString(),
		Name:        tmpl.Name,
		Kind:        combat.KindEnemy,
		Tag:         tmpl.ID,
		Level:       tmpl.Level,
		Scores:      tmpl.scores(),
		MaxHealth:   tmpl.MaxHealth(),
		AC:          tmpl.AC(),
		MaxMovement: tmpl.Movement(),
		Initiative:  tmpl.Initiative(),
		SlotMax:     [2]int{tmpl.Slots.Level1, tmpl.Slots.Level2},
		Abilities:   abilities,
		Position:    pos,
		Radius:      tmpl.Radius,
		XPReward:    tmpl.Reward(),
		Conditions:  m.conditions,
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances[c.ID] = c
	m.origin[c.ID] = tmpl.ID
	return c, nil
}

// SpawnGroup spawns one enemy per template ID, placed in a row starting at
// origin and stepping by spacing along +Y.
//
// Postcondition: Returns an error naming the first unknown template; nothing
// is spawned in that case.
func (m *Manager) SpawnGroup(ids []string, origin combat.Vec2, spacing float64) ([]*combat.Combatant, error) {
	tmpls := make([]*Template, 0, len(ids))
	for _, id := range ids {
		t, ok := m.Template(id)
		if !ok {
			return nil, fmt.Errorf("npc.Manager.SpawnGroup: unknown template %q", id)
		}
		tmpls = append(tmpls, t)
	}
	out := make([]*combat.Combatant, 0, len(tmpls))
	for i, t := range tmpls {
		c, err := m.Spawn(t, origin.Add(combat.Vec2{Y: float64(i) * spacing}))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Remove forgets an instance by ID.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[id]; !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}
	delete(m.instances, id)
	delete(m.origin, id)
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (c, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*combat.Combatant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.instances[id]
	return c, ok
}

// TemplateOf returns the template ID an instance was spawned from.
func (m *Manager) TemplateOf(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.origin[id]
	return t, ok
}

// Living returns a snapshot of all tracked instances that are still alive.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) Living() []*combat.Combatant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*combat.Combatant, 0, len(m.instances))
	for _, c := range m.instances {
		if !c.IsDead() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
