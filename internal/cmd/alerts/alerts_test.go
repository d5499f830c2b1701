package alerts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/phasesync"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/reconciler"
)

func TestForResult(t *testing.T) {
	tests := []struct {
		name   string
		result reconciler.Result
		level  Level
	}{
		{name: "failed", result: reconciler.Result{Errored: 1}, level: LevelError},
		{name: "written", result: reconciler.Result{Success: true, Created: 2}, level: LevelSuccess},
		{name: "dry run", result: reconciler.Result{Success: true, Created: 2, DryRun: true}, level: LevelInfo},
		{name: "nothing to do", result: reconciler.Result{Success: true}, level: LevelInfo},
		{name: "propagation failed", result: reconciler.Result{Success: true, Updated: 1, PropagationFailed: 1}, level: LevelWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, ForResult(&tt.result).Level)
		})
	}
}

func TestForResultListsFailedPartitions(t *testing.T) {
	r := &reconciler.Result{Partitions: []reconciler.PartitionStat{
		{ID: "sold", Error: "boom"},
		{ID: "renovation"},
	}}
	a := ForResult(r)
	require.Len(t, a.Details, 1)
	assert.Contains(t, a.Details[0], "partition sold")
}

func TestForPhase(t *testing.T) {
	assert.Equal(t, LevelError, ForPhase(&phasesync.PhaseResult{Errors: 1}).Level)
	assert.Equal(t, LevelSuccess, ForPhase(&phasesync.PhaseResult{Phase: property.PhaseSold, Created: 1}).Level)
	assert.Equal(t, LevelInfo, ForPhase(&phasesync.PhaseResult{Unchanged: 3}).Level)
}

func TestWriterPlainForBuffers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)
	require.NoError(t, w.Write(&Alert{Level: LevelWarning, Message: "careful", Details: []string{"one"}}))
	assert.Equal(t, "⚠️ careful\n   one\n", buf.String())
}
