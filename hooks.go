package propsync

import (
	"sync"

	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/property"
)

// Hook function types for property events
type (
	// PropertyCreatedHook is called when a run creates a property
	PropertyCreatedHook func(p property.Property)

	// PropertyUpdatedHook is called when a run updates a property
	PropertyUpdatedHook func(old, new property.Property, changes []differ.FieldChange)

	// PropertyOrphanedHook is called when a run re-tags a property as orphaned
	PropertyOrphanedHook func(p property.Property)
)

// hooks manages event callbacks for applied changes
type hooks struct {
	mu                 sync.RWMutex
	onPropertyCreated  []PropertyCreatedHook
	onPropertyUpdated  []PropertyUpdatedHook
	onPropertyOrphaned []PropertyOrphanedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnPropertyCreated registers a callback for created properties
func (h *hooks) OnPropertyCreated(fn PropertyCreatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPropertyCreated = append(h.onPropertyCreated, fn)
}

// OnPropertyUpdated registers a callback for updated properties
func (h *hooks) OnPropertyUpdated(fn PropertyUpdatedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPropertyUpdated = append(h.onPropertyUpdated, fn)
}

// OnPropertyOrphaned registers a callback for orphaned properties
func (h *hooks) OnPropertyOrphaned(fn PropertyOrphanedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onPropertyOrphaned = append(h.onPropertyOrphaned, fn)
}

// triggerChangeset fires hooks for every applied change in order
func (h *hooks) triggerChangeset(cs *differ.Changeset) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, u := range cs.Added {
		for _, hook := range h.onPropertyCreated {
			hook(u.New)
		}
	}
	for _, u := range cs.Updated {
		for _, hook := range h.onPropertyUpdated {
			hook(u.Existing, u.New, u.Changes)
		}
	}
	for _, p := range cs.Orphaned {
		orphaned := p.Clone()
		orphaned.Phase = property.PhaseOrphaned
		for _, hook := range h.onPropertyOrphaned {
			hook(orphaned)
		}
	}
}
