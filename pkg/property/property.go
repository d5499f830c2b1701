// Package property defines the canonical property record that propsync
// reconciles into the destination store, together with its lifecycle phases
// and the typed business fields it carries.
//
// Attributes are sparse: a field missing from the map has no value, which is
// different from an empty value. Diffing relies on that distinction so that a
// source that omits a field never blanks what the store already holds.
package property

import (
	"maps"
	"slices"
	"sort"
)

// Property is the internal representation of one real-estate record.
type Property struct {
	// ID is the stable business key shared with the external source.
	ID string `json:"id" yaml:"id"`

	// Address is the street address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Phase is the lifecycle stage.
	Phase Phase `json:"phase" yaml:"phase"`

	// ExternalID is the source record id. Empty means manually created;
	// those records are never touched by orphan cleanup.
	ExternalID string `json:"external_id,omitempty" yaml:"external_id,omitempty"`

	// Attributes holds the business fields present in the source.
	Attributes Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// IsExternallyOwned reports whether the record came from the external source.
func (p Property) IsExternallyOwned() bool {
	return p.ExternalID != ""
}

// Clone returns a deep copy of the property.
func (p Property) Clone() Property {
	p.Attributes = p.Attributes.Clone()
	return p
}

// Attributes is a sparse map of business field values.
type Attributes map[Field]any

// Has reports whether the field has a value.
func (a Attributes) Has(f Field) bool {
	_, ok := a[f]
	return ok
}

// Text returns a text or date field.
func (a Attributes) Text(f Field) (string, bool) {
	s, ok := a[f].(string)
	return s, ok
}

// Number returns a numeric field.
func (a Attributes) Number(f Field) (float64, bool) {
	n, ok := a[f].(float64)
	return n, ok
}

// List returns a URL list or list field.
func (a Attributes) List(f Field) ([]string, bool) {
	l, ok := a[f].([]string)
	return l, ok
}

// Set stores a value, deleting the field when v is nil.
func (a Attributes) Set(f Field, v any) {
	if v == nil {
		delete(a, f)
		return
	}
	a[f] = v
}

// Keys returns the present fields in sorted order.
func (a Attributes) Keys() []Field {
	keys := slices.Collect(maps.Keys(a))
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns a deep copy; list values are copied too.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		if l, ok := v.([]string); ok {
			v = slices.Clone(l)
		}
		out[k] = v
	}
	return out
}

// Merge returns a copy of a with every field present in b overlaid on it.
func (a Attributes) Merge(b Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(b))
	}
	for k, v := range b.Clone() {
		out[k] = v
	}
	return out
}
