// Package storetest holds the behavioural suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the full store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("UpsertInsertsAndGets", func(t *testing.T) { testUpsertInsert(t, newStore(t)) })
	t.Run("UpsertMergesSparseAttributes", func(t *testing.T) { testSparseMerge(t, newStore(t)) })
	t.Run("UpsertKeepsIdentity", func(t *testing.T) { testKeepsIdentity(t, newStore(t)) })
	t.Run("UpsertRejectsEmptyID", func(t *testing.T) { testEmptyID(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("SnapshotOrdered", func(t *testing.T) { testSnapshotOrdered(t, newStore(t)) })
	t.Run("SetPhase", func(t *testing.T) { testSetPhase(t, newStore(t)) })
	t.Run("CountByPhase", func(t *testing.T) { testCountByPhase(t, newStore(t)) })
	t.Run("Lock", func(t *testing.T) { testLock(t, newStore(t)) })
}

func sample(id string, phase property.Phase) property.Property {
	return property.Property{
		ID:         id,
		Address:    "Main St " + id,
		Phase:      phase,
		ExternalID: "rec" + id,
		Attributes: property.Attributes{
			property.FieldOwner:     "Anna Berg",
			property.FieldArea:      82.5,
			property.FieldImageURLs: []string{"https://img.example.com/1.jpg"},
		},
	}
}

func testUpsertInsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := sample("X-1", property.PhaseRenovation)
	require.NoError(t, s.Upsert(ctx, want))

	got, err := s.Get(ctx, "X-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func testSparseMerge(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("X-1", property.PhaseRenovation)))

	require.NoError(t, s.Upsert(ctx, property.Property{
		ID:         "X-1",
		Phase:      property.PhaseMarketing,
		Attributes: property.Attributes{property.FieldOwner: "Bo Lind"},
	}))

	got, err := s.Get(ctx, "X-1")
	require.NoError(t, err)
	assert.Equal(t, property.PhaseMarketing, got.Phase)
	assert.Equal(t, "Bo Lind", got.Attributes[property.FieldOwner])
	assert.Equal(t, 82.5, got.Attributes[property.FieldArea], "absent field keeps stored value")
	assert.Equal(t, []string{"https://img.example.com/1.jpg"}, got.Attributes[property.FieldImageURLs])
}

func testKeepsIdentity(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("X-1", property.PhaseRenovation)))
	require.NoError(t, s.Upsert(ctx, property.Property{ID: "X-1", Phase: property.PhaseRenovation}))

	got, err := s.Get(ctx, "X-1")
	require.NoError(t, err)
	assert.Equal(t, "Main St X-1", got.Address)
	assert.Equal(t, "recX-1", got.ExternalID)
}

func testEmptyID(t *testing.T, s store.Store) {
	err := s.Upsert(context.Background(), property.Property{Phase: property.PhaseSold})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func testSnapshotOrdered(t *testing.T, s store.Store) {
	ctx := context.Background()
	empty, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, id := range []string{"X-3", "M-1", "X-1"} {
		p := sample(id, property.PhaseSold)
		if id == "M-1" {
			p.ExternalID = ""
		}
		require.NoError(t, s.Upsert(ctx, p))
	}

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 3)
	assert.Equal(t, "M-1", snap[0].ID)
	assert.False(t, snap[0].IsExternallyOwned())
	assert.Equal(t, "X-1", snap[1].ID)
	assert.Equal(t, "X-3", snap[2].ID)
}

func testSetPhase(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("X-1", property.PhaseSold)))
	require.NoError(t, s.Upsert(ctx, sample("X-2", property.PhaseSold)))

	n, err := s.SetPhase(ctx, []string{"X-1", "X-9"}, property.PhaseOrphaned)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unknown ids are ignored")

	got, err := s.Get(ctx, "X-1")
	require.NoError(t, err)
	assert.Equal(t, property.PhaseOrphaned, got.Phase)
	assert.Equal(t, "Anna Berg", got.Attributes[property.FieldOwner], "re-tag leaves attributes alone")

	n, err = s.SetPhase(ctx, nil, property.PhaseOrphaned)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testCountByPhase(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, sample("X-1", property.PhaseSold)))
	require.NoError(t, s.Upsert(ctx, sample("X-2", property.PhaseSold)))
	require.NoError(t, s.Upsert(ctx, sample("X-3", property.PhaseRenovation)))

	counts, err := s.CountByPhase(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[property.Phase]int{
		property.PhaseSold:       2,
		property.PhaseRenovation: 1,
	}, counts)
}

func testLock(t *testing.T, s store.Store) {
	ctx := context.Background()

	release, err := s.AcquireLock(ctx, "reconcile", "run-a", time.Minute)
	require.NoError(t, err)

	_, err = s.AcquireLock(ctx, "reconcile", "run-b", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.IsLocked(err))
	var lockErr *errors.LockError
	require.True(t, errors.As(err, &lockErr))
	assert.Equal(t, "run-a", lockErr.Holder)

	again, err := s.AcquireLock(ctx, "reconcile", "run-a", time.Minute)
	require.NoError(t, err, "owner may refresh its own lock")
	again()

	release()
	releaseB, err := s.AcquireLock(ctx, "reconcile", "run-b", -time.Second)
	require.NoError(t, err, "released lock can be taken")

	releaseC, err := s.AcquireLock(ctx, "reconcile", "run-c", time.Minute)
	require.NoError(t, err, "expired lock can be taken over")
	releaseC()
	releaseB()
}
