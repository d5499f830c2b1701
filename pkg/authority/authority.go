// Package authority decides which partition is authoritative for each
// property when the same business key appears in several partitions.
//
// Resolution is a two-pass algorithm. Pass one builds key → best sighting by
// partition priority; pass two emits one winner per key in stable key order.
// Lower priority sightings are discarded whole, never merged field by field.
package authority

import (
	"slices"
	"sort"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/property"
)

// Sighting is one mapped record as seen through one partition.
type Sighting struct {
	Partition config.Partition
	Property  property.Property
}

// Winner is the resolved state for one business key.
type Winner struct {
	// Property carries the winning payload with Phase set to the target phase.
	Property property.Property

	// Partition is the partition whose payload won.
	Partition config.Partition

	// SeenIn lists every partition id the key appeared in, highest priority first.
	SeenIn []string

	// Overridden is true when the override rule changed the target phase.
	Overridden bool
}

// Resolver picks winners by partition priority.
type Resolver struct {
	override *config.OverrideRule
}

// New creates a resolver using the override rule from cfg.
func New(cfg config.Config) *Resolver {
	r := &Resolver{}
	if cfg.Override != nil {
		o := *cfg.Override
		r.override = &o
	}
	return r
}

type best struct {
	sighting Sighting
	seen     []config.Partition
}

// Resolve returns one winner per business key, ordered by key.
func (r *Resolver) Resolve(sightings []Sighting) []Winner {
	// Pass 1: key → best(priority, payload).
	byKey := make(map[string]*best, len(sightings))
	for _, s := range sightings {
		b, ok := byKey[s.Property.ID]
		if !ok {
			byKey[s.Property.ID] = &best{sighting: s, seen: []config.Partition{s.Partition}}
			continue
		}
		if !slices.ContainsFunc(b.seen, func(p config.Partition) bool { return p.ID == s.Partition.ID }) {
			b.seen = append(b.seen, s.Partition)
		}
		if Outranks(s.Partition, b.sighting.Partition) {
			b.sighting = s
		}
	}

	// Pass 2: consume the finalized map in stable order.
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	winners := make([]Winner, 0, len(keys))
	for _, k := range keys {
		b := byKey[k]
		w := Winner{
			Property:  b.sighting.Property.Clone(),
			Partition: b.sighting.Partition,
		}
		w.Property.Phase = b.sighting.Partition.Phase
		w.Overridden = r.applyOverride(&w.Property)

		sort.SliceStable(b.seen, func(i, j int) bool { return b.seen[i].Priority > b.seen[j].Priority })
		for _, p := range b.seen {
			w.SeenIn = append(w.SeenIn, p.ID)
		}
		winners = append(winners, w)
	}
	return winners
}

// applyOverride re-classifies a record won by the rule's source phase that
// already carries the rule's date field.
func (r *Resolver) applyOverride(p *property.Property) bool {
	o := r.override
	if o == nil || p.Phase != o.FromPhase || !p.Attributes.Has(o.DateField) {
		return false
	}
	p.Phase = o.ToPhase
	return true
}

// Outranks reports whether partition a beats partition b. Priorities are
// unique by configuration, so equal priorities never displace an earlier
// sighting.
func Outranks(a, b config.Partition) bool {
	return a.Priority > b.Priority
}
