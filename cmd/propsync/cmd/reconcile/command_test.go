package reconcile_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync"
	"github.com/agentstation/propsync/cmd/propsync/cmd/reconcile"
	"github.com/agentstation/propsync/internal/cmd/application"
	"github.com/agentstation/propsync/internal/sources/local"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
	"github.com/agentstation/propsync/pkg/store/memory"
)

func newEngine(t *testing.T, views map[string][]string) propsync.Engine {
	t.Helper()
	src := local.New(local.Fixture{
		Tables: map[string][]sources.Record{
			"Properties": {
				{ID: "rec1", Fields: map[string]any{"Property ID": "X-1", "Address": "Main St 1"}},
			},
		},
		Views: views,
	})
	e, err := propsync.New(propsync.WithBackend(src), propsync.WithStore(memory.New()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func execute(t *testing.T, mock *application.Mock) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := reconcile.NewCommand(mock)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestReconcileTableOutput(t *testing.T) {
	e := newEngine(t, map[string][]string{
		"awaiting_settlement": {}, "renovation": {"rec1"}, "marketing": {}, "sold": {},
	})
	mock := &application.Mock{
		EngineFunc:       func() (propsync.Engine, error) { return e, nil },
		OutputFormatFunc: func() string { return "table" },
	}

	stdout, stderr, err := execute(t, mock)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Reconciliation")
	assert.Contains(t, stdout, "Created")
	assert.Contains(t, stderr, "Reconciliation successful")
}

func TestReconcileReportsFailure(t *testing.T) {
	e := newEngine(t, map[string][]string{"renovation": {"rec1"}})
	mock := &application.Mock{
		EngineFunc: func() (propsync.Engine, error) { return e, nil },
	}

	stdout, stderr, err := execute(t, mock)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrRunFailed)
	assert.Contains(t, stdout, `"errored": 3`)
	assert.Empty(t, stderr, "json output prints no alert")
}

func TestReconcileEngineError(t *testing.T) {
	mock := &application.Mock{
		EngineFunc: func() (propsync.Engine, error) { return nil, errors.New("no store") },
	}
	_, _, err := execute(t, mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no store")
}

func TestReconcilePartialRunKeepsUnseenRecords(t *testing.T) {
	src := local.New(local.Fixture{
		Tables: map[string][]sources.Record{
			"Properties": {
				{ID: "rec1", Fields: map[string]any{"Property ID": "X-1", "Address": "Main St 1"}},
			},
		},
		Views: map[string][]string{"renovation": {"rec1"}},
	})
	st := memory.New(property.Property{ID: "X-9", Phase: property.PhaseSold, ExternalID: "rec9"})
	e, err := propsync.New(propsync.WithBackend(src), propsync.WithStore(st))
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	mock := &application.Mock{
		EngineFunc: func() (propsync.Engine, error) { return e, nil },
	}
	assert.Contains(t, reconcile.NewCommand(mock).Long, "Orphan detection is skipped")

	stdout, _, err := execute(t, mock)
	require.ErrorIs(t, err, reconcile.ErrRunFailed)
	assert.Contains(t, stdout, `"orphaned": 0`)
	assert.Contains(t, stdout, `"created": 1`)

	got, err := st.Get(context.Background(), "X-9")
	require.NoError(t, err)
	assert.Equal(t, property.PhaseSold, got.Phase)
}
