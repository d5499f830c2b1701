package property

import (
	"slices"
	"strings"
)

// Phase is a lifecycle stage of a property.
type Phase string

// Lifecycle phases, earliest first.
const (
	PhaseAwaitingSettlement Phase = "awaiting_settlement"
	PhaseRenovation         Phase = "renovation"
	PhaseMarketing          Phase = "marketing"
	PhaseSold               Phase = "sold"

	// PhaseOrphaned is the sink for externally owned records that no longer
	// appear in any partition. It is left as soon as the record reappears.
	PhaseOrphaned Phase = "orphaned"
)

// Phases returns the lifecycle phases in order, earliest first.
// PhaseOrphaned is not part of the lifecycle and is not included.
func Phases() []Phase {
	return []Phase{
		PhaseAwaitingSettlement,
		PhaseRenovation,
		PhaseMarketing,
		PhaseSold,
	}
}

// AllPhases returns every phase including the orphaned sink.
func AllPhases() []Phase {
	return append(Phases(), PhaseOrphaned)
}

// EarliestPhase is the first lifecycle stage.
func EarliestPhase() Phase {
	return PhaseAwaitingSettlement
}

// String returns the string representation of a phase.
func (p Phase) String() string {
	return string(p)
}

// IsValid reports whether p is a known phase.
func (p Phase) IsValid() bool {
	return slices.Contains(AllPhases(), p)
}

// IsEarliest reports whether p is the first lifecycle stage.
func (p Phase) IsEarliest() bool {
	return p == EarliestPhase()
}

// Next returns the phase following p in the lifecycle, or p itself when p is
// the last stage or not a lifecycle stage.
func (p Phase) Next() Phase {
	phases := Phases()
	i := slices.Index(phases, p)
	if i < 0 || i == len(phases)-1 {
		return p
	}
	return phases[i+1]
}

// ParsePhase parses a phase name, accepting hyphens and spaces for underscores.
func ParsePhase(s string) (Phase, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	p := Phase(normalized)
	return p, p.IsValid()
}
