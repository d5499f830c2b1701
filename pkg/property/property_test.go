package property_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/propsync/pkg/property"
)

func TestPhaseOrder(t *testing.T) {
	assert.Equal(t, property.PhaseRenovation, property.PhaseAwaitingSettlement.Next())
	assert.Equal(t, property.PhaseSold, property.PhaseMarketing.Next())
	assert.Equal(t, property.PhaseSold, property.PhaseSold.Next(), "last stage has no successor")
	assert.Equal(t, property.PhaseOrphaned, property.PhaseOrphaned.Next(), "orphaned is not a lifecycle stage")

	assert.True(t, property.PhaseAwaitingSettlement.IsEarliest())
	assert.False(t, property.PhaseRenovation.IsEarliest())
	assert.NotContains(t, property.Phases(), property.PhaseOrphaned)
	assert.Contains(t, property.AllPhases(), property.PhaseOrphaned)
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		in    string
		want  property.Phase
		valid bool
	}{
		{in: "renovation", want: property.PhaseRenovation, valid: true},
		{in: "Awaiting Settlement", want: property.PhaseAwaitingSettlement, valid: true},
		{in: "awaiting-settlement", want: property.PhaseAwaitingSettlement, valid: true},
		{in: " ORPHANED ", want: property.PhaseOrphaned, valid: true},
		{in: "demolished", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := property.ParsePhase(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFieldKinds(t *testing.T) {
	assert.Equal(t, property.KindURLList, property.FieldImageURLs.Kind())
	assert.Equal(t, property.KindDate, property.FieldRenovationStart.Kind())
	assert.Equal(t, property.KindNumber, property.FieldArea.Kind())
	assert.True(t, property.FieldOwner.IsValid())
	assert.False(t, property.Field("colour").IsValid())

	for _, f := range property.Fields() {
		assert.True(t, f.IsValid(), "field %s should be registered", f)
	}
}

func TestAttributes(t *testing.T) {
	attrs := property.Attributes{}
	attrs.Set(property.FieldOwner, "Anna")
	attrs.Set(property.FieldArea, 82.5)
	attrs.Set(property.FieldImageURLs, []string{"https://img/1.jpg"})
	attrs.Set(property.FieldNotes, nil)

	owner, ok := attrs.Text(property.FieldOwner)
	assert.True(t, ok)
	assert.Equal(t, "Anna", owner)

	area, ok := attrs.Number(property.FieldArea)
	assert.True(t, ok)
	assert.Equal(t, 82.5, area)

	_, ok = attrs.Text(property.FieldArea)
	assert.False(t, ok, "wrong kind reads as absent")
	assert.False(t, attrs.Has(property.FieldNotes))

	assert.Equal(t, []property.Field{property.FieldArea, property.FieldImageURLs, property.FieldOwner}, attrs.Keys())
}

func TestAttributesCloneIsDeep(t *testing.T) {
	attrs := property.Attributes{property.FieldImageURLs: []string{"https://img/1.jpg"}}
	clone := attrs.Clone()

	list, _ := clone.List(property.FieldImageURLs)
	list[0] = "https://img/changed.jpg"

	orig, _ := attrs.List(property.FieldImageURLs)
	assert.Equal(t, "https://img/1.jpg", orig[0])
	assert.Nil(t, property.Attributes(nil).Clone())
}

func TestAttributesMerge(t *testing.T) {
	stored := property.Attributes{
		property.FieldOwner: "Anna",
		property.FieldCity:  "Oslo",
	}
	incoming := property.Attributes{
		property.FieldOwner: "Bo",
		property.FieldArea:  40.0,
	}

	merged := stored.Merge(incoming)

	assert.Equal(t, property.Attributes{
		property.FieldOwner: "Bo",
		property.FieldCity:  "Oslo",
		property.FieldArea:  40.0,
	}, merged)
	assert.Equal(t, "Anna", stored[property.FieldOwner], "merge must not mutate the receiver")
	assert.Len(t, property.Attributes(nil).Merge(incoming), 2)
}

func TestPropertyOwnership(t *testing.T) {
	assert.True(t, property.Property{ID: "X-1", ExternalID: "rec1"}.IsExternallyOwned())
	assert.False(t, property.Property{ID: "M-1"}.IsExternallyOwned())
}
