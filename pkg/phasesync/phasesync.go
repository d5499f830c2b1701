// Package phasesync mirrors a single partition into the destination store.
// Unlike the reconciler it applies no priority logic: every record in the
// partition is upserted and re-tagged with the partition's phase. It is the
// building block for the per-phase trigger entry points.
package phasesync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/mapper"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
	"github.com/agentstation/propsync/pkg/store"
)

// Fetcher returns the records of one partition.
type Fetcher interface {
	Fetch(ctx context.Context, p config.Partition) ([]sources.Record, error)
}

// PhaseResult summarises one partition sync.
type PhaseResult struct {
	Phase     property.Phase `json:"phase" yaml:"phase"`
	Partition string         `json:"partition" yaml:"partition"`
	Fetched   int            `json:"fetched" yaml:"fetched"`
	Created   int            `json:"created" yaml:"created"`
	Updated   int            `json:"updated" yaml:"updated"`
	Unchanged int            `json:"unchanged" yaml:"unchanged"`
	Skipped   int            `json:"skipped" yaml:"skipped"`
	Errors    int            `json:"errors" yaml:"errors"`
	Details   []string       `json:"details,omitempty" yaml:"details,omitempty"`
	DryRun    bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
}

// Success reports whether the sync finished without errors.
func (r *PhaseResult) Success() bool {
	return r.Errors == 0
}

func (r *PhaseResult) detail(limit int, format string, args ...any) {
	if limit > 0 && len(r.Details) >= limit {
		return
	}
	r.Details = append(r.Details, fmt.Sprintf(format, args...))
}

// Syncer syncs single partitions.
type Syncer struct {
	fetcher     Fetcher
	mapper      *mapper.Mapper
	store       store.Store
	differ      *differ.Differ
	dryRun      bool
	detailLimit int
	lockTTL     time.Duration
}

// New creates a Syncer.
func New(f Fetcher, s store.Store, cfg config.Config, opts ...Option) *Syncer {
	syncer := &Syncer{
		fetcher:     f,
		mapper:      mapper.New(cfg),
		store:       s,
		differ:      differ.FromConfig(cfg),
		detailLimit: cfg.DetailLimit,
		lockTTL:     constants.RunLockTTL,
	}
	if syncer.detailLimit == 0 {
		syncer.detailLimit = constants.MaxResultDetails
	}
	for _, opt := range opts {
		opt(syncer)
	}
	return syncer
}

// SyncPhase fetches one partition, maps every record, forces the
// partition's phase on it and upserts whatever differs from the store.
// Failures are reported on the result, never returned. Outside dry run the
// sync holds the same store lock as a reconciliation run.
func (s *Syncer) SyncPhase(ctx context.Context, partition config.Partition) *PhaseResult {
	start := time.Now()
	result := &PhaseResult{Phase: partition.Phase, Partition: partition.ID, DryRun: s.dryRun}
	defer func() { result.Duration = time.Since(start) }()

	ctx = logging.WithPhase(logging.WithPartition(ctx, partition.ID), string(partition.Phase))
	logger := logging.FromContext(ctx)

	if !s.dryRun {
		release, err := s.store.AcquireLock(ctx, constants.RunLockName, "phase-"+uuid.NewString(), s.lockTTL)
		if err != nil {
			logger.Warn().Err(err).Msg("Run lock not acquired")
			result.Errors++
			result.detail(s.detailLimit, "run lock: %v", err)
			return result
		}
		defer release()
	}

	records, err := s.fetcher.Fetch(ctx, partition)
	if err != nil {
		logger.Error().Err(err).Msg("Partition fetch failed")
		result.Errors++
		result.detail(s.detailLimit, "fetch %s failed: %v", partition.ID, err)
		return result
	}
	result.Fetched = len(records)

	snapshot, err := s.store.Snapshot(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Snapshot read failed")
		result.Errors++
		result.detail(s.detailLimit, "snapshot failed: %v", err)
		return result
	}
	stored := make(map[string]property.Property, len(snapshot))
	for _, p := range snapshot {
		stored[p.ID] = p
	}

	for _, r := range records {
		if ctx.Err() != nil {
			result.Errors++
			result.detail(s.detailLimit, "sync interrupted: %v", ctx.Err())
			break
		}

		p, err := s.mapper.Map(r)
		if err != nil {
			s.skip(ctx, result, r, err)
			continue
		}
		p.Phase = partition.Phase

		var existing *property.Property
		if cur, ok := stored[p.ID]; ok {
			existing = &cur
		}
		u := s.differ.Diff(existing, p)
		if u == nil {
			result.Unchanged++
			continue
		}

		if !s.dryRun {
			if err := s.store.Upsert(ctx, u.New); err != nil {
				logger.Error().Err(err).Str("property", p.ID).Msg("Write failed")
				result.Errors++
				result.detail(s.detailLimit, "write %s failed: %v", p.ID, err)
				continue
			}
		}
		stored[p.ID] = mergeStored(existing, u.New)

		if u.Type == differ.ChangeTypeAdd {
			result.Created++
		} else {
			result.Updated++
		}
		result.detail(s.detailLimit, "%s", u.Describe())
	}

	logger.Info().
		Int("fetched", result.Fetched).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("Phase sync complete")
	return result
}

// SyncPhaseByName syncs the partition targeting phase.
func (s *Syncer) SyncPhaseByName(ctx context.Context, cfg config.Config, phase property.Phase) (*PhaseResult, error) {
	partition, ok := cfg.PartitionForPhase(phase)
	if !ok {
		return nil, errors.NewNotFoundError("partition for phase", string(phase))
	}
	return s.SyncPhase(ctx, partition), nil
}

func (s *Syncer) skip(ctx context.Context, result *PhaseResult, r sources.Record, err error) {
	var mapErr *errors.MappingError
	if errors.As(err, &mapErr) && mapErr.HasIdentifiers {
		result.Skipped++
		logging.FromContext(ctx).Debug().Str("record_id", r.ID).Msg("Record has no business key, skipped")
		result.detail(s.detailLimit, "skipped %s: no business key", r.ID)
		return
	}
	result.Errors++
	logging.FromContext(ctx).Warn().Err(err).Str("record_id", r.ID).Msg("Record could not be mapped")
	result.detail(s.detailLimit, "unmappable record %s: %v", r.ID, err)
}

// mergeStored mirrors the store's sparse merge so duplicates later in the
// same partition diff against what was just written.
func mergeStored(existing *property.Property, written property.Property) property.Property {
	if existing == nil {
		return written.Clone()
	}
	next := existing.Clone()
	next.Phase = written.Phase
	if written.Address != "" {
		next.Address = written.Address
	}
	if written.ExternalID != "" {
		next.ExternalID = written.ExternalID
	}
	next.Attributes = next.Attributes.Merge(written.Attributes)
	return next
}
