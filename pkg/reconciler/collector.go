package reconciler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/sources"
)

// partitionRecords is the output of one partition fetch.
type partitionRecords struct {
	partition config.Partition
	records   []sources.Record
	err       error
}

// collect fetches every partition in parallel. A failed partition is logged
// and detailed and contributes no records; the others are unaffected.
// The returned slice is ordered highest priority first.
func (r *Reconciler) collect(ctx context.Context, rctx *runContext) []partitionRecords {
	parts := r.cfg.PartitionsByPriority()
	out := make([]partitionRecords, len(parts))
	stats := make([]PartitionStat, len(parts))

	// Plain Group: a failing partition never cancels its siblings.
	var g errgroup.Group
	for i, p := range parts {
		g.Go(func() error {
			pctx := logging.WithPhase(logging.WithPartition(ctx, p.ID), string(p.Phase))
			start := time.Now()
			records, err := r.fetcher.Fetch(pctx, p)

			stat := PartitionStat{
				ID:       p.ID,
				Phase:    p.Phase,
				Priority: p.Priority,
				Records:  len(records),
				Duration: time.Since(start),
			}
			if err != nil {
				stat.Records = 0
				records = nil
				stat.Error = err.Error()
				logging.FromContext(pctx).Error().Err(err).Msg("Partition fetch failed")
			} else {
				logging.FromContext(pctx).Debug().Int("records", len(records)).Msg("Fetched partition")
			}

			out[i] = partitionRecords{partition: p, records: records, err: err}
			stats[i] = stat
			return nil
		})
	}
	_ = g.Wait()

	rctx.result.Partitions = stats
	for _, pr := range out {
		if pr.err != nil {
			rctx.result.errored("partition %s (%s) unavailable: %v", pr.partition.ID, pr.partition.Phase, pr.err)
			continue
		}
		rctx.result.Processed += len(pr.records)
	}
	return out
}

// anyFailed reports whether at least one partition fetch failed.
func anyFailed(fetched []partitionRecords) bool {
	for _, pr := range fetched {
		if pr.err != nil {
			return true
		}
	}
	return false
}
