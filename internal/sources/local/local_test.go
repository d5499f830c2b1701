package local_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/internal/sources/local"
	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
)

func TestOpenAndFetch(t *testing.T) {
	src, err := local.Open(filepath.Join("testdata", "fixture.yaml"), local.WithPageSize(2))
	require.NoError(t, err)

	fetcher := sources.NewFetcher(src, config.Default())
	records, err := fetcher.Fetch(context.Background(), config.Partition{
		Phase: property.PhaseRenovation, ID: "viwRenovation", Priority: 1,
	})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Anna Berg", records[0].Fields["Owner Name"], "linked owner is attached")

	empty, err := fetcher.Fetch(context.Background(), config.Partition{
		Phase: property.PhaseAwaitingSettlement, ID: "viwAwaiting", Priority: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUnknownViewIsUnavailable(t *testing.T) {
	src := local.New(local.Fixture{})
	_, err := src.ListPage(context.Background(), "Properties", "viwMissing", "")
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestUpdateAndSave(t *testing.T) {
	src, err := local.Open(filepath.Join("testdata", "fixture.yaml"))
	require.NoError(t, err)
	ctx := context.Background()

	id, found, err := src.FindByField(ctx, "Properties", "Property ID", "X-2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "recA2", id)

	require.NoError(t, src.UpdateFields(ctx, "Properties", id, map[string]any{"Phase": "marketing"}))
	err = src.UpdateFields(ctx, "Properties", "recNope", map[string]any{"Phase": "sold"})
	assert.True(t, errors.IsNotFound(err))

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, src.Save(out))

	reloaded, err := local.Open(out)
	require.NoError(t, err)
	recs, err := reloaded.GetByIDs(ctx, "Properties", []string{"recA2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "marketing", recs[0].Fields["Phase"])
	assert.Equal(t, "X-2", recs[0].Fields["Property ID"])
}
