package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	parts := cfg.PartitionsByPriority()
	require.Len(t, parts, 4)
	assert.Equal(t, property.PhaseSold, parts[0].Phase)
	assert.Equal(t, property.PhaseAwaitingSettlement, parts[3].Phase)
	assert.True(t, cfg.IsTracked(property.FieldImageURLs))
	assert.False(t, cfg.IsTracked(property.FieldNotes))
}

func TestValidateRejectsDuplicatePriority(t *testing.T) {
	cfg := config.Default()
	cfg.Partitions[1].Priority = cfg.Partitions[0].Priority

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "share priority")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		errMsg string
	}{
		{
			name:   "no partitions",
			mutate: func(c *config.Config) { c.Partitions = nil },
			errMsg: "at least one partition",
		},
		{
			name:   "orphaned partition",
			mutate: func(c *config.Config) { c.Partitions[0].Phase = property.PhaseOrphaned },
			errMsg: "invalid phase",
		},
		{
			name:   "duplicate id",
			mutate: func(c *config.Config) { c.Partitions[1].ID = c.Partitions[0].ID },
			errMsg: "duplicate partition id",
		},
		{
			name:   "unknown synonym field",
			mutate: func(c *config.Config) { c.Synonyms["colour"] = []string{"Colour"} },
			errMsg: "unknown field",
		},
		{
			name: "override on non-date field",
			mutate: func(c *config.Config) {
				c.Override.DateField = property.FieldOwner
			},
			errMsg: "must be a date field",
		},
		{
			name:   "no business key",
			mutate: func(c *config.Config) { c.Keys.Business = nil },
			errMsg: "business key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := config.Default()
	clone := cfg.Clone()

	clone.Partitions[0].ID = "changed"
	clone.Synonyms[property.FieldOwner][0] = "changed"
	clone.Override.ToPhase = property.PhaseSold

	assert.Equal(t, "awaiting_settlement", cfg.Partitions[0].ID)
	assert.Equal(t, "Owner Name", cfg.Synonyms[property.FieldOwner][0])
	assert.Equal(t, property.PhaseRenovation, cfg.Override.ToPhase)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")
	data := `
source:
  table: Objects
partitions:
  - phase: awaiting_settlement
    id: viwA
    priority: 10
  - phase: sold
    id: viwS
    priority: 40
synonyms:
  owner:
    - Eier
detail_limit: 25
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Objects", cfg.Source.Table)
	require.Len(t, cfg.Partitions, 2)
	p, ok := cfg.Partition("viwS")
	require.True(t, ok)
	assert.Equal(t, property.PhaseSold, p.Phase)
	assert.Equal(t, []string{"Eier"}, cfg.Synonyms[property.FieldOwner])
	assert.NotEmpty(t, cfg.Synonyms[property.FieldArea], "untouched synonyms keep their defaults")
	assert.Equal(t, 25, cfg.DetailLimit)
}

func TestLoadErrors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Parse([]byte("partitions: [\n"))
	require.Error(t, err)
	var pe *errors.ParseError
	assert.True(t, errors.As(err, &pe))

	_, err = config.Parse([]byte("unknown_key: true\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = config.Parse([]byte(`
partitions:
  - {phase: renovation, id: a, priority: 1}
  - {phase: sold, id: b, priority: 1}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share priority")
}

func TestMarshalRoundTripValidates(t *testing.T) {
	data, err := config.Default().Marshal()
	require.NoError(t, err)

	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Partitions, cfg.Partitions)
}
