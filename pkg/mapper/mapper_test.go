package mapper_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/mapper"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
)

func newMapper() *mapper.Mapper {
	return mapper.New(config.Default())
}

func TestMapResolvesSynonyms(t *testing.T) {
	rec := sources.Record{
		ID: "recA1",
		Fields: map[string]any{
			"PropertyID":       "X-1",
			"Street Address":   "Main St 1",
			"Responsible":      "Anna",
			"Owner":            "ignored, lower in the candidate list",
			"Area (m2)":        "82,5",
			"renovation start": "2025-02-01T08:00:00.000Z",
			"Status":           "advanced",
		},
	}

	p, err := newMapper().Map(rec)
	require.NoError(t, err)

	assert.Equal(t, "X-1", p.ID)
	assert.Equal(t, "recA1", p.ExternalID)
	assert.Equal(t, "Main St 1", p.Address)
	assert.Equal(t, property.Attributes{
		property.FieldOwner:           "Anna",
		property.FieldArea:            82.5,
		property.FieldRenovationStart: "2025-02-01",
		property.FieldStatus:          "advanced",
	}, p.Attributes)
	assert.Equal(t, property.PhaseRenovation, p.Phase, "status classifies the phase")
}

func TestMapLeavesAbsentFieldsAbsent(t *testing.T) {
	p, err := newMapper().Map(sources.Record{ID: "rec1", Fields: map[string]any{
		"Property ID": "X-2",
		"Notes":       "   ",
		"Images":      "",
		"Sale Date":   "someday",
	}})
	require.NoError(t, err)

	assert.Empty(t, p.Attributes)
	assert.False(t, p.Attributes.Has(property.FieldArea))
	assert.Equal(t, property.Phase(""), p.Phase)
}

func TestMapMissingKey(t *testing.T) {
	t.Run("with identifiers", func(t *testing.T) {
		_, err := newMapper().Map(sources.Record{ID: "rec9", Fields: map[string]any{"Address": "Elm 4"}})
		require.Error(t, err)
		assert.True(t, errors.IsMappingSkipped(err))
		assert.ErrorIs(t, err, errors.ErrMissingRequiredKey)

		var me *errors.MappingError
		require.True(t, errors.As(err, &me))
		assert.True(t, me.HasIdentifiers)
		assert.Equal(t, "rec9", me.RecordID)
	})

	t.Run("without identifiers", func(t *testing.T) {
		_, err := newMapper().Map(sources.Record{ID: "rec10", Fields: map[string]any{"Notes": "orphan row"}})
		var me *errors.MappingError
		require.True(t, errors.As(err, &me))
		assert.False(t, me.HasIdentifiers)
	})
}

func TestMapSingleElementArraysUnwrap(t *testing.T) {
	p, err := newMapper().Map(sources.Record{ID: "rec1", Fields: map[string]any{
		"Property ID": []any{"X-3"},
		"Rooms":       []any{3},
		"Owner Name":  []any{map[string]any{"id": "usr1", "name": "Bo"}},
	}})
	require.NoError(t, err)

	assert.Equal(t, "X-3", p.ID)
	assert.Equal(t, 3.0, p.Attributes[property.FieldRooms])
	assert.Equal(t, "Bo", p.Attributes[property.FieldOwner])
}

func TestMapURLListShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{
			name: "delimited string",
			raw:  "https://a/1.jpg, https://a/2.jpg;https://a/1.jpg\nhttps://a/3.jpg",
			want: []string{"https://a/1.jpg", "https://a/2.jpg", "https://a/3.jpg"},
		},
		{
			name: "string list",
			raw:  []any{"https://a/1.jpg", "", "not a url", "ftp://a/2.jpg"},
			want: []string{"https://a/1.jpg"},
		},
		{
			name: "attachment objects",
			raw: []any{
				map[string]any{"url": "https://cdn/x.png", "filename": "x.png"},
				map[string]any{"filename": "broken"},
				map[string]any{"url": "https://cdn/y.png"},
			},
			want: []string{"https://cdn/x.png", "https://cdn/y.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newMapper().Map(sources.Record{ID: "rec1", Fields: map[string]any{
				"Property ID": "X-1",
				"Images":      tt.raw,
			}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Attributes[property.FieldImageURLs])
		})
	}
}

func TestURLListCommaRoundTrip(t *testing.T) {
	in := "https://img.example.com/1.jpg,https://img.example.com/2.jpg,https://img.example.com/3.jpg"

	p, err := newMapper().Map(sources.Record{ID: "rec1", Fields: map[string]any{
		"Property ID": "X-1",
		"Photos":      in,
	}})
	require.NoError(t, err)

	list, ok := p.Attributes.List(property.FieldImageURLs)
	require.True(t, ok)

	want := strings.Split(in, ",")
	got := strings.Split(strings.Join(list, ","), ",")
	sort.Strings(want)
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"2025-03-04", "2025-03-04", true},
		{"2025-03-04T23:15:00+02:00", "2025-03-04", true},
		{"2025-03-04T10:00:00.000Z", "2025-03-04", true},
		{"2025-03-04T10:00", "2025-03-04", true},
		{"04.03.2025", "2025-03-04", true},
		{"4.3.2025", "2025-03-04", true},
		{"04/03/2025", "2025-03-04", true},
		{"2025/03/04", "2025-03-04", true},
		{"03/31/2025", "", false},
		{"next week", "", false},
		{"", "", false},
		{42, "", false},
	}

	for _, tt := range tests {
		got, ok := mapper.Date(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{82.5, 82.5, true},
		{int64(3), 3, true},
		{uint64(7), 7, true},
		{"82,5", 82.5, true},
		{"1,250", 1250, true},
		{"1.250.000", 1250000, true},
		{"€ 1.250,50", 1250.5, true},
		{"1,250.50", 1250.5, true},
		{"82 m2", 82, true},
		{"-4", -4, true},
		{"n/a", 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := mapper.Number(tt.in)
		assert.Equal(t, tt.ok, ok, "input %v", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "input %v", tt.in)
	}
}

func TestClassifyStatus(t *testing.T) {
	m := newMapper()

	tests := map[string]property.Phase{
		"Sold":                   property.PhaseSold,
		"Listed for sale":        property.PhaseMarketing,
		"RENOVATION in progress": property.PhaseRenovation,
		"awaiting settlement":    property.PhaseAwaitingSettlement,
	}
	for status, want := range tests {
		got, ok := m.ClassifyStatus(status)
		assert.True(t, ok, status)
		assert.Equal(t, want, got, status)
	}

	_, ok := m.ClassifyStatus("unknown")
	assert.False(t, ok)
	_, ok = m.ClassifyStatus("  ")
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	fields := map[string]any{"Area": "", "living area": 50, "Size": 40}

	v, ok := mapper.Lookup(fields, []string{"Area", "Living Area", "Size"})
	require.True(t, ok)
	assert.Equal(t, 40, v, "exact matches are preferred over case-insensitive ones")

	v, ok = mapper.Lookup(fields, []string{"Area", "Living Area"})
	require.True(t, ok)
	assert.Equal(t, 50, v)

	_, ok = mapper.Lookup(fields, []string{"Rooms"})
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	got, ok := mapper.List("roof; windows;roof", ";,")
	require.True(t, ok)
	assert.Equal(t, []string{"roof", "windows"}, got)

	got, ok = mapper.List([]any{map[string]any{"name": "urgent"}, "urgent", "new"}, ",")
	require.True(t, ok)
	assert.Equal(t, []string{"urgent", "new"}, got)
}
