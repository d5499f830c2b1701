package memory_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/store"
	"github.com/agentstation/propsync/pkg/store/memory"
	"github.com/agentstation/propsync/pkg/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.New()
	})
}

func TestSeedIsCopied(t *testing.T) {
	seed := property.Property{
		ID:         "X-1",
		Phase:      property.PhaseSold,
		Attributes: property.Attributes{property.FieldTags: []string{"corner"}},
	}
	s := memory.New(seed)
	seed.Attributes[property.FieldTags].([]string)[0] = "changed"

	got, err := s.Get(context.Background(), "X-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"corner"}, got.Attributes[property.FieldTags])
	assert.Equal(t, 1, s.Len())
}

func TestInjectedFailures(t *testing.T) {
	s := memory.New()
	boom := stderrors.New("disk full")
	s.FailUpsert = func(p property.Property) error {
		if p.ID == "X-5" {
			return boom
		}
		return nil
	}

	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, property.Property{ID: "X-4"}))
	err := s.Upsert(ctx, property.Property{ID: "X-5"})
	require.Error(t, err)
	assert.True(t, errors.IsWriteFailed(err))
	assert.ErrorIs(t, err, boom)

	s.FailSnapshot = boom
	_, err = s.Snapshot(ctx)
	var snapErr *errors.SnapshotError
	assert.True(t, errors.As(err, &snapErr))
}
