// Package reconciler runs a full reconciliation: it fetches every partition
// of the external source concurrently, maps and resolves the records by
// partition priority, diffs the winners against the destination store,
// writes the differences, re-tags orphans and reports what happened.
//
// Run never returns an error. Per-record failures are counted and detailed on
// the Result; only a failed snapshot read or a held run lock end a run early.
package reconciler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/propsync/pkg/authority"
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

// Reconciler orchestrates reconciliation runs. It is safe to call Run
// repeatedly; overlapping runs are excluded by the store's run lock.
type Reconciler struct {
	cfg      config.Config
	fetcher  Fetcher
	store    store.Store
	mapper   *mapper.Mapper
	resolver *authority.Resolver
	differ   *differ.Differ
	opts     *options
}

// New creates a Reconciler over a validated configuration.
func New(cfg config.Config, f Fetcher, s store.Store, opts ...Option) (*Reconciler, error) {
	if f == nil {
		return nil, &errors.ValidationError{Field: "fetcher", Message: "cannot be nil"}
	}
	if s == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options, err := newOptions(cfg, opts...)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		cfg:      cfg.Clone(),
		fetcher:  f,
		store:    s,
		mapper:   mapper.New(cfg),
		resolver: authority.New(cfg),
		differ:   options.differ,
		opts:     options,
	}, nil
}

// runContext holds the state of one run.
type runContext struct {
	result *Result
	logger *zerolog.Logger
	start  time.Time
}

// Run performs one reconciliation with a step-by-step flow.
func (r *Reconciler) Run(ctx context.Context) *Result {
	// Step 1: Initialize run state
	ctx, rctx, cancel := r.initialize(ctx)
	defer cancel()
	defer r.finalize(rctx)

	// Step 2: Exclude overlapping runs
	if !r.opts.dryRun {
		release, err := r.store.AcquireLock(ctx, constants.RunLockName, rctx.result.RunID, r.opts.lockTTL)
		if err != nil {
			rctx.logger.Warn().Err(err).Msg("Run lock not acquired")
			rctx.result.fail("run lock: %v", err)
			return rctx.result
		}
		defer release()
	}

	// Step 3: Fetch all partitions concurrently
	fetched := r.collect(ctx, rctx)

	// Step 4: Map records into sightings
	sightings := r.mapAll(ctx, rctx, fetched)

	// Step 5: Resolve one winner per key
	winners := r.resolver.Resolve(sightings)
	rctx.logger.Info().
		Int("sightings", len(sightings)).
		Int("winners", len(winners)).
		Msg("Resolved records across partitions")

	// Step 6: Read the destination snapshot
	snapshot, err := r.store.Snapshot(ctx)
	if err != nil {
		rctx.logger.Error().Err(err).Msg("Snapshot read failed")
		rctx.result.fail("snapshot read failed: %v", err)
		return rctx.result
	}

	// Step 7: Diff and write
	changeset := r.changeset(rctx, snapshot, winners)
	written := r.apply(ctx, rctx, changeset)

	// Step 8: Re-tag orphans
	r.orphan(ctx, rctx, snapshot, winners, fetched)

	// Step 9: Write selected fields back to the source
	r.propagate(ctx, rctx, written)

	// Step 10: Recompute per-phase counts
	r.count(ctx, rctx)

	rctx.result.Success = rctx.result.Errored == 0
	return rctx.result
}

// initialize sets up run state and the run-scoped logger.
func (r *Reconciler) initialize(ctx context.Context) (context.Context, *runContext, context.CancelFunc) {
	runID := uuid.NewString()
	ctx = logging.WithRun(ctx, runID)

	cancel := context.CancelFunc(func() {})
	if r.opts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.opts.timeout)
	}

	result := newResult(runID, r.opts.clock(), r.opts.detailLimit)
	result.DryRun = r.opts.dryRun

	logger := logging.FromContext(ctx)
	logger.Info().
		Int("partitions", len(r.cfg.Partitions)).
		Bool("dry_run", r.opts.dryRun).
		Msg("Starting reconciliation")

	return ctx, &runContext{result: result, logger: logger, start: r.opts.clock()}, cancel
}

// finalize stamps the duration and logs the outcome.
func (r *Reconciler) finalize(rctx *runContext) {
	res := rctx.result
	res.Duration = r.opts.clock().Sub(rctx.start)

	event := rctx.logger.Info()
	if !res.Success {
		event = rctx.logger.Warn()
	}
	event.
		Int("processed", res.Processed).
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("orphaned", res.Orphaned).
		Int("errored", res.Errored).
		Int("skipped", res.Skipped).
		Bool("success", res.Success).
		Dur("duration", res.Duration).
		Msg("Reconciliation finished")
}

// changeset diffs the winners against the snapshot.
func (r *Reconciler) changeset(rctx *runContext, snapshot []property.Property, winners []authority.Winner) *differ.Changeset {
	incoming := make([]property.Property, len(winners))
	for i, w := range winners {
		incoming[i] = w.Property
		if w.Overridden {
			rctx.result.detail("reclassified %s: %s -> %s", w.Property.ID, w.Partition.Phase, w.Property.Phase)
		}
		if len(w.SeenIn) > 1 {
			rctx.result.detail("%s seen in %s", w.Property.ID, strings.Join(w.SeenIn, ", "))
		}
	}
	cs := r.differ.Properties(snapshot, incoming)
	rctx.result.Unchanged = cs.Unchanged
	rctx.result.Changeset = cs
	rctx.logger.Debug().Str("changeset", cs.String()).Msg("Computed changeset")
	return cs
}

// count refreshes the per-phase totals from the store.
func (r *Reconciler) count(ctx context.Context, rctx *runContext) {
	counts, err := r.store.CountByPhase(ctx)
	if err != nil {
		rctx.logger.Warn().Err(err).Msg("Phase counts unavailable")
		rctx.result.detail("phase counts unavailable: %v", err)
		return
	}
	rctx.result.PhaseCounts = counts
}
