package phasesync_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/internal/sources/local"
	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/phasesync"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
	"github.com/agentstation/propsync/pkg/store/memory"
)

func fixture() local.Fixture {
	return local.Fixture{
		Tables: map[string][]sources.Record{
			"Properties": {
				{ID: "rec1", Fields: map[string]any{"Property ID": "X-1", "Address": "Main St 1", "Status": "listed"}},
				{ID: "rec2", Fields: map[string]any{"Property ID": "X-2", "Address": "Harbour Rd 7", "Area": "64,5"}},
				{ID: "rec3", Fields: map[string]any{"Address": "Lake View 3"}},
				{ID: "rec4", Fields: map[string]any{"Comment": "orphan scribble"}},
			},
		},
		Views: map[string][]string{
			"renovation": {"rec1", "rec2", "rec3", "rec4"},
		},
	}
}

func newSyncer(t *testing.T, st *memory.Store, opts ...phasesync.Option) (*phasesync.Syncer, config.Partition) {
	t.Helper()
	cfg := config.Default()
	fetcher := sources.NewFetcher(local.New(fixture()), cfg)
	p, ok := cfg.PartitionForPhase(property.PhaseRenovation)
	require.True(t, ok)
	return phasesync.New(fetcher, st, cfg, opts...), p
}

func TestSyncPhaseForcesPartitionPhase(t *testing.T) {
	st := memory.New()
	syncer, partition := newSyncer(t, st)

	res := syncer.SyncPhase(context.Background(), partition)

	assert.Equal(t, 4, res.Fetched)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 1, res.Skipped, "record with an address but no key is skipped")
	assert.Equal(t, 1, res.Errors, "record with no identifiers is an error")
	assert.False(t, res.Success())

	got, err := st.Get(context.Background(), "X-1")
	require.NoError(t, err)
	assert.Equal(t, property.PhaseRenovation, got.Phase, "status says listed, partition wins")
	assert.Equal(t, "rec1", got.ExternalID)

	x2, err := st.Get(context.Background(), "X-2")
	require.NoError(t, err)
	assert.Equal(t, 64.5, x2.Attributes[property.FieldArea])
}

func TestSyncPhaseIsIdempotent(t *testing.T) {
	st := memory.New()
	syncer, partition := newSyncer(t, st)

	syncer.SyncPhase(context.Background(), partition)
	res := syncer.SyncPhase(context.Background(), partition)

	assert.Zero(t, res.Created)
	assert.Zero(t, res.Updated)
	assert.Equal(t, 2, res.Unchanged)
}

func TestSyncPhaseMovesExistingRecords(t *testing.T) {
	st := memory.New(property.Property{
		ID:         "X-1",
		Phase:      property.PhaseAwaitingSettlement,
		ExternalID: "rec1",
		Address:    "Main St 1",
		Attributes: property.Attributes{property.FieldStatus: "listed", property.FieldOwner: "Anna"},
	})
	syncer, partition := newSyncer(t, st)

	res := syncer.SyncPhase(context.Background(), partition)
	assert.Equal(t, 1, res.Updated)

	got, err := st.Get(context.Background(), "X-1")
	require.NoError(t, err)
	assert.Equal(t, property.PhaseRenovation, got.Phase)
	assert.Equal(t, "Anna", got.Attributes[property.FieldOwner], "fields the source omits are kept")
}

func TestSyncPhaseDryRun(t *testing.T) {
	st := memory.New()
	syncer, partition := newSyncer(t, st, phasesync.WithDryRun(true))

	res := syncer.SyncPhase(context.Background(), partition)
	assert.True(t, res.DryRun)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, st.Len())
}

func TestSyncPhaseWriteFailure(t *testing.T) {
	st := memory.New()
	st.FailUpsert = func(p property.Property) error {
		if p.ID == "X-2" {
			return stderrors.New("constraint violated")
		}
		return nil
	}
	syncer, partition := newSyncer(t, st)

	res := syncer.SyncPhase(context.Background(), partition)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 2, res.Errors)
	assert.Equal(t, 1, st.Len())
}

func TestSyncPhaseUnknownPartition(t *testing.T) {
	st := memory.New()
	syncer, _ := newSyncer(t, st)

	res := syncer.SyncPhase(context.Background(), config.Partition{Phase: property.PhaseSold, ID: "viwMissing", Priority: 9})
	assert.Equal(t, 1, res.Errors)
	require.Len(t, res.Details, 1)
	assert.Contains(t, res.Details[0], "viwMissing")
}

func TestSyncPhaseByName(t *testing.T) {
	st := memory.New()
	syncer, _ := newSyncer(t, st)
	cfg := config.Default()

	res, err := syncer.SyncPhaseByName(context.Background(), cfg, property.PhaseRenovation)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	_, err = syncer.SyncPhaseByName(context.Background(), cfg, property.PhaseOrphaned)
	assert.Error(t, err)
}

func TestSyncPhaseWaitsForRunLock(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	release, err := st.AcquireLock(ctx, constants.RunLockName, "reconcile-run", time.Minute)
	require.NoError(t, err)

	syncer, partition := newSyncer(t, st)
	res := syncer.SyncPhase(ctx, partition)
	assert.False(t, res.Success())
	assert.Equal(t, 1, res.Errors)
	assert.Zero(t, res.Fetched)
	require.NotEmpty(t, res.Details)
	assert.Contains(t, res.Details[0], "run lock")
	assert.Zero(t, st.Len())

	dry, _ := newSyncer(t, st, phasesync.WithDryRun(true))
	assert.Equal(t, 2, dry.SyncPhase(ctx, partition).Created, "dry run ignores the lock")

	release()
	res = syncer.SyncPhase(ctx, partition)
	assert.Equal(t, 2, res.Created)

	// The sync released its own lock.
	_, err = st.AcquireLock(ctx, constants.RunLockName, "next-run", time.Minute)
	assert.NoError(t, err)
}
