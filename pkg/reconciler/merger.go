package reconciler

import (
	"context"

	"github.com/agentstation/propsync/pkg/authority"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/sources"
)

// mapAll maps every fetched record into a sighting. Records without a
// business key are dropped: a record that still carries an identifying
// field is skipped, one with nothing identifying counts as an error.
func (r *Reconciler) mapAll(ctx context.Context, rctx *runContext, fetched []partitionRecords) []authority.Sighting {
	var sightings []authority.Sighting
	for _, pr := range fetched {
		for _, rec := range pr.records {
			p, err := r.mapper.Map(rec)
			if err != nil {
				r.unmapped(ctx, rctx, rec, err)
				continue
			}
			sightings = append(sightings, authority.Sighting{Partition: pr.partition, Property: p})
		}
	}
	return sightings
}

func (r *Reconciler) unmapped(ctx context.Context, rctx *runContext, rec sources.Record, err error) {
	logger := logging.FromContext(logging.WithPartition(ctx, rec.Partition))

	var mapErr *errors.MappingError
	if errors.As(err, &mapErr) && mapErr.HasIdentifiers {
		rctx.result.mu.Lock()
		rctx.result.Skipped++
		rctx.result.detailLocked("skipped %s in %s: no business key", rec.ID, rec.Partition)
		rctx.result.mu.Unlock()
		logger.Debug().Str("record_id", rec.ID).Msg("Record has no business key, skipped")
		return
	}

	logger.Warn().Err(err).Str("record_id", rec.ID).Msg("Record could not be mapped")
	rctx.result.errored("unmappable record %s in %s: %v", rec.ID, rec.Partition, err)
}
