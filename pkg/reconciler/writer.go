package reconciler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/propsync/pkg/differ"
	"github.com/agentstation/propsync/pkg/logging"
	"github.com/agentstation/propsync/pkg/property"
)

// apply writes every add and update as a single-row upsert. Writes run with
// bounded concurrency; a failed write is counted and the rest continue.
// It returns the properties that were written.
func (r *Reconciler) apply(ctx context.Context, rctx *runContext, cs *differ.Changeset) []property.Property {
	writes := cs.Writes()
	written := make([]property.Property, 0, len(writes))
	if r.opts.dryRun {
		for _, u := range writes {
			r.record(rctx, u)
			written = append(written, u.New)
		}
		return written
	}

	// Results are recorded in changeset order regardless of completion order.
	errs := make([]error, len(writes))
	var g errgroup.Group
	g.SetLimit(r.opts.writeConcurrency)
	for i, u := range writes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = r.store.Upsert(ctx, u.New)
			return nil
		})
	}
	_ = g.Wait()

	for i, u := range writes {
		if err := errs[i]; err != nil {
			logging.FromContext(logging.WithProperty(ctx, u.ID)).Error().
				Err(err).
				Str("type", string(u.Type)).
				Msg("Write failed")
			rctx.result.errored("write %s failed: %v", u.ID, err)
			continue
		}
		r.record(rctx, u)
		written = append(written, u.New)
		if u.Type == differ.ChangeTypeAdd {
			rctx.result.Applied.Added = append(rctx.result.Applied.Added, u)
		} else {
			rctx.result.Applied.Updated = append(rctx.result.Applied.Updated, u)
		}
	}
	return written
}

// record counts a successful (or, in a dry run, planned) write.
func (r *Reconciler) record(rctx *runContext, u differ.Update) {
	res := rctx.result
	res.mu.Lock()
	defer res.mu.Unlock()
	if u.Type == differ.ChangeTypeAdd {
		res.Created++
	} else {
		res.Updated++
	}
	res.detailLocked("%s", u.Describe())
}
