// Package config defines the immutable reconciliation configuration: the
// partition list with its priority order, field-name synonym tables, linked
// record groups, status classification rules and the single phase override.
//
// A Config is built once (Default or Load), validated, and then passed by
// value into the components that need it. Nothing in propsync mutates a
// Config after construction.
package config

import (
	"maps"
	"slices"
	"sort"

	"github.com/agentstation/propsync/pkg/property"
)

// Config is the complete reconciliation configuration.
type Config struct {
	// Source describes where partitions live in the external source.
	Source Source `yaml:"source" json:"source"`

	// Partitions are the prioritized views, one per lifecycle phase.
	Partitions []Partition `yaml:"partitions" json:"partitions"`

	// Keys lists candidate raw field names for identity fields.
	Keys Keys `yaml:"keys" json:"keys"`

	// Synonyms maps each business field to ordered raw field name candidates.
	Synonyms map[property.Field][]string `yaml:"synonyms" json:"synonyms"`

	// Links are related record groups resolved onto primary records.
	Links []Link `yaml:"links,omitempty" json:"links,omitempty"`

	// StatusRules classify a raw status string into a phase, first match wins.
	StatusRules []StatusRule `yaml:"status_rules,omitempty" json:"status_rules,omitempty"`

	// Tracked lists the fields whose change makes an update material.
	Tracked []property.Field `yaml:"tracked" json:"tracked"`

	// Propagated maps canonical fields to source field names written back
	// to the external source. "phase" and "address" are accepted besides
	// business fields.
	Propagated map[string]string `yaml:"propagated,omitempty" json:"propagated,omitempty"`

	// Override is the single hard-coded phase exception; nil disables it.
	Override *OverrideRule `yaml:"override,omitempty" json:"override,omitempty"`

	// DetailLimit caps the detail lines on a run result.
	DetailLimit int `yaml:"detail_limit,omitempty" json:"detail_limit,omitempty"`
}

// Source locates the record table and describes list-valued raw fields.
type Source struct {
	// Table is the table (or collection) holding property records.
	Table string `yaml:"table" json:"table"`

	// ListSeparators are the characters that split a delimited list string.
	ListSeparators string `yaml:"list_separators,omitempty" json:"list_separators,omitempty"`
}

// Partition is a PartitionDescriptor: one filtered view over the source
// bound to a target phase and a globally unique priority.
type Partition struct {
	// Phase is the target lifecycle stage for records in this view.
	Phase property.Phase `yaml:"phase" json:"phase"`

	// ID is the source-side view reference. It differs per environment.
	ID string `yaml:"id" json:"id"`

	// Priority orders partitions; higher means a more advanced stage.
	Priority int `yaml:"priority" json:"priority"`
}

// Keys lists candidate raw field names for identity fields.
type Keys struct {
	// Business holds candidates for the business key, tried in order.
	Business []string `yaml:"business" json:"business"`

	// Address holds candidates for the street address.
	Address []string `yaml:"address" json:"address"`

	// Identifiers are fields that identify a record even when no business
	// key resolves. A record with none of them is counted as an error.
	Identifiers []string `yaml:"identifiers,omitempty" json:"identifiers,omitempty"`
}

// Link describes a related record group referenced from a primary record.
type Link struct {
	// Field is the raw field on the primary record holding linked ids.
	Field string `yaml:"field" json:"field"`

	// Table is the table holding the linked records.
	Table string `yaml:"table" json:"table"`

	// Attach maps related record field names to the raw field names they
	// are attached under on the primary record.
	Attach map[string]string `yaml:"attach" json:"attach"`
}

// StatusRule maps status keywords to a phase.
type StatusRule struct {
	Phase    property.Phase `yaml:"phase" json:"phase"`
	Keywords []string       `yaml:"keywords" json:"keywords"`
}

// OverrideRule re-classifies a record won by FromPhase to ToPhase when it
// already carries a value for DateField.
type OverrideRule struct {
	FromPhase property.Phase `yaml:"from_phase" json:"from_phase"`
	DateField property.Field `yaml:"date_field" json:"date_field"`
	ToPhase   property.Phase `yaml:"to_phase" json:"to_phase"`
}

// Clone returns a deep copy so callers can hold the config without sharing
// slices or maps with whoever built it.
func (c Config) Clone() Config {
	out := c
	out.Partitions = slices.Clone(c.Partitions)
	out.Keys = Keys{
		Business:    slices.Clone(c.Keys.Business),
		Address:     slices.Clone(c.Keys.Address),
		Identifiers: slices.Clone(c.Keys.Identifiers),
	}
	if c.Synonyms != nil {
		out.Synonyms = make(map[property.Field][]string, len(c.Synonyms))
		for k, v := range c.Synonyms {
			out.Synonyms[k] = slices.Clone(v)
		}
	}
	if c.Links != nil {
		out.Links = make([]Link, len(c.Links))
		for i, l := range c.Links {
			l.Attach = maps.Clone(l.Attach)
			out.Links[i] = l
		}
	}
	if c.StatusRules != nil {
		out.StatusRules = make([]StatusRule, len(c.StatusRules))
		for i, r := range c.StatusRules {
			r.Keywords = slices.Clone(r.Keywords)
			out.StatusRules[i] = r
		}
	}
	out.Tracked = slices.Clone(c.Tracked)
	out.Propagated = maps.Clone(c.Propagated)
	if c.Override != nil {
		o := *c.Override
		out.Override = &o
	}
	return out
}

// PartitionsByPriority returns the partitions sorted highest priority first.
func (c Config) PartitionsByPriority() []Partition {
	parts := slices.Clone(c.Partitions)
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].Priority > parts[j].Priority
	})
	return parts
}

// Partition returns the partition with the given source ID.
func (c Config) Partition(id string) (Partition, bool) {
	for _, p := range c.Partitions {
		if p.ID == id {
			return p, true
		}
	}
	return Partition{}, false
}

// PartitionForPhase returns the partition that targets phase.
func (c Config) PartitionForPhase(phase property.Phase) (Partition, bool) {
	for _, p := range c.Partitions {
		if p.Phase == phase {
			return p, true
		}
	}
	return Partition{}, false
}

// IsTracked reports whether a change to f is material.
func (c Config) IsTracked(f property.Field) bool {
	return slices.Contains(c.Tracked, f)
}
