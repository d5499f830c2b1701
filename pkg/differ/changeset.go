package differ

import (
	"fmt"
	"strings"

	"github.com/agentstation/propsync/pkg/property"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a property or field was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates a property or field was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeOrphan indicates a property was re-tagged as orphaned.
	ChangeTypeOrphan ChangeType = "orphan"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Field    string     // Field name, or phase/address/external_id
	OldValue string     // Previous value (string representation)
	NewValue string     // New value (string representation)
	Type     ChangeType // Type of change
}

// Update is one pending write.
type Update struct {
	ID       string            // Business key
	Existing property.Property // Stored state; zero for adds
	New      property.Property // State to write
	Changes  []FieldChange     // Material differences; empty for adds
	Type     ChangeType
}

// Changeset is the result of diffing a run against the snapshot.
type Changeset struct {
	Added     []Update
	Updated   []Update
	Orphaned  []property.Property
	Unchanged int
}

// HasChanges returns true if the changeset contains any writes.
func (c *Changeset) HasChanges() bool {
	return len(c.Added)+len(c.Updated)+len(c.Orphaned) > 0
}

// Writes returns adds followed by updates.
func (c *Changeset) Writes() []Update {
	out := make([]Update, 0, len(c.Added)+len(c.Updated))
	out = append(out, c.Added...)
	return append(out, c.Updated...)
}

// String returns a one-line summary.
func (c *Changeset) String() string {
	return fmt.Sprintf("Changeset: %d added, %d updated, %d orphaned, %d unchanged",
		len(c.Added), len(c.Updated), len(c.Orphaned), c.Unchanged)
}

// Describe renders an update as a detail line.
func (u Update) Describe() string {
	if u.Type == ChangeTypeAdd {
		return fmt.Sprintf("created %s (%s)", u.ID, u.New.Phase)
	}
	parts := make([]string, 0, len(u.Changes))
	for _, c := range u.Changes {
		if c.Type == ChangeTypeAdd {
			parts = append(parts, fmt.Sprintf("%s: +%s", c.Field, c.NewValue))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s → %s", c.Field, c.OldValue, c.NewValue))
	}
	return fmt.Sprintf("updated %s (%s)", u.ID, strings.Join(parts, ", "))
}
