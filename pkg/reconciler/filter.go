package reconciler

import (
	"context"

	"github.com/agentstation/propsync/pkg/authority"
	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/property"
)

// orphan re-tags externally owned rows that no partition returned. Orphan
// detection needs a complete view of the source, so it is skipped when any
// partition failed or the run was interrupted.
func (r *Reconciler) orphan(ctx context.Context, rctx *runContext, snapshot []property.Property, winners []authority.Winner, fetched []partitionRecords) {
	if anyFailed(fetched) {
		rctx.logger.Warn().Strs("failed", rctx.result.FailedPartitions()).Msg("Skipping orphan detection")
		rctx.result.detail("orphan detection skipped: partitions unavailable")
		return
	}
	if ctx.Err() != nil {
		rctx.result.detail("orphan detection skipped: %v", ctx.Err())
		return
	}

	keep := make(map[string]bool, len(winners))
	for _, w := range winners {
		keep[w.Property.ID] = true
	}
	orphans := differ.Orphans(snapshot, keep)
	if rctx.result.Changeset != nil {
		rctx.result.Changeset.Orphaned = orphans
	}
	if len(orphans) == 0 {
		return
	}

	ids := make([]string, len(orphans))
	for i, p := range orphans {
		ids[i] = p.ID
	}

	if !r.opts.dryRun {
		n, err := r.store.SetPhase(ctx, ids, property.PhaseOrphaned)
		if err != nil {
			rctx.logger.Error().Err(err).Int("count", len(ids)).Msg("Orphan re-tag failed")
			rctx.result.mu.Lock()
			rctx.result.Errored += len(ids)
			rctx.result.detailLocked("orphan re-tag of %d records failed: %v", len(ids), err)
			rctx.result.mu.Unlock()
			return
		}
		if n != len(ids) {
			rctx.logger.Warn().Int("expected", len(ids)).Int("changed", n).Msg("Orphan re-tag changed fewer rows than expected")
		}
		rctx.result.Applied.Orphaned = orphans
	}

	rctx.result.Orphaned += len(orphans)
	for _, p := range orphans {
		rctx.result.detail("orphaned %s (was %s)", p.ID, p.Phase)
	}
	rctx.logger.Info().Int("count", len(orphans)).Msg("Re-tagged orphans")
}

// propagate writes the configured fields of every written property back to
// the source. Failures are counted but never fail the run.
func (r *Reconciler) propagate(ctx context.Context, rctx *runContext, written []property.Property) {
	if r.opts.propagator == nil || r.opts.dryRun || len(written) == 0 {
		return
	}
	ctx = logging.WithOperation(ctx, "propagate")
	for _, out := range r.opts.propagator.PropagateAll(ctx, written) {
		if out.OK() {
			if out.Applied {
				rctx.result.Propagated++
			}
			continue
		}
		rctx.result.PropagationFailed++
		rctx.result.detail("propagate %s failed: %v", out.Key, out.Err)
	}
}
