// Package differ compares resolved properties against the destination
// snapshot and produces the minimal set of writes.
package differ

import (
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/agentstation/propsync/pkg/property"
)

// Differ decides whether an incoming property needs a write.
type Differ struct {
	tracked       map[property.Field]bool
	ignore        map[property.Field]bool
	protectImages bool
}

// New creates a Differ. By default every business field is tracked and
// image protection is on.
func New(opts ...Option) *Differ {
	d := &Differ{
		tracked:       make(map[property.Field]bool),
		ignore:        make(map[property.Field]bool),
		protectImages: true,
	}
	for _, f := range property.Fields() {
		d.tracked[f] = true
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff compares one incoming property with its stored state. existing is
// nil when the key is not stored yet. It returns the update to write, or nil
// when the write would be a no-op.
func (d *Differ) Diff(existing *property.Property, incoming property.Property) *Update {
	if existing == nil {
		return &Update{ID: incoming.ID, New: incoming.Clone(), Type: ChangeTypeAdd}
	}

	next := incoming.Clone()
	var changes []FieldChange

	if d.suppressImages(*existing, next) {
		delete(next.Attributes, property.FieldImageURLs)
	}

	if existing.Phase != next.Phase {
		changes = append(changes, change("phase", existing.Phase, next.Phase))
	}
	if next.Address != "" && existing.Address != next.Address {
		changes = append(changes, change("address", existing.Address, next.Address))
	}
	if existing.ExternalID != next.ExternalID {
		changes = append(changes, change("external_id", existing.ExternalID, next.ExternalID))
	}

	for _, f := range next.Attributes.Keys() {
		if !d.tracked[f] || d.ignore[f] {
			continue
		}
		newValue := next.Attributes[f]
		oldValue, ok := existing.Attributes[f]
		if ok && Equal(oldValue, newValue) {
			continue
		}
		changes = append(changes, change(string(f), oldValue, newValue))
	}

	if len(changes) == 0 {
		return nil
	}
	return &Update{
		ID:       next.ID,
		Existing: existing.Clone(),
		New:      next,
		Changes:  changes,
		Type:     ChangeTypeUpdate,
	}
}

// suppressImages reports whether the incoming image list must not replace
// the stored one. Outside the earliest phase a non-empty stored list is only
// ever filled, never overwritten.
func (d *Differ) suppressImages(existing, incoming property.Property) bool {
	if !d.protectImages || incoming.Phase.IsEarliest() {
		return false
	}
	if !incoming.Attributes.Has(property.FieldImageURLs) {
		return false
	}
	stored, _ := existing.Attributes.List(property.FieldImageURLs)
	return len(stored) > 0
}

// Properties diffs a set of incoming properties against a snapshot.
func (d *Differ) Properties(snapshot, incoming []property.Property) *Changeset {
	byID := make(map[string]*property.Property, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].ID] = &snapshot[i]
	}

	cs := &Changeset{}
	for _, p := range incoming {
		u := d.Diff(byID[p.ID], p)
		switch {
		case u == nil:
			cs.Unchanged++
		case u.Type == ChangeTypeAdd:
			cs.Added = append(cs.Added, *u)
		default:
			cs.Updated = append(cs.Updated, *u)
		}
	}
	return cs
}

// Orphans returns the snapshot rows that are externally owned, absent from
// keep, and not already orphaned. Manually created rows are never returned.
func Orphans(snapshot []property.Property, keep map[string]bool) []property.Property {
	var out []property.Property
	for _, p := range snapshot {
		if !p.IsExternallyOwned() || keep[p.ID] || p.Phase == property.PhaseOrphaned {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Equal compares two attribute values. Nil and empty lists are equal.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty(), cmpopts.EquateApprox(0, 1e-9))
}

func change(field string, oldValue, newValue any) FieldChange {
	fc := FieldChange{Field: field, Type: ChangeTypeUpdate, NewValue: format(newValue)}
	if oldValue == nil || oldValue == "" {
		fc.Type = ChangeTypeAdd
	} else {
		fc.OldValue = format(oldValue)
	}
	return fc
}

func format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%g", t)
	case []string:
		return fmt.Sprintf("%d items", len(t))
	default:
		return fmt.Sprint(v)
	}
}
