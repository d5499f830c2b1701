package sources

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/logging"
)

// Fetcher retrieves every record of a partition, resolving linked groups.
// It is safe for concurrent use; concurrent fetches share the related-record
// cache.
type Fetcher struct {
	backend   Reader
	name      string
	table     string
	links     []config.Link
	cache     *gocache.Cache
	timeout   time.Duration
	maxPages  int
	batchSize int
}

// NewFetcher creates a fetcher over backend using the source table and link
// specs from cfg.
func NewFetcher(backend Reader, cfg config.Config, opts ...Option) *Fetcher {
	f := &Fetcher{
		backend:   backend,
		name:      "source",
		table:     cfg.Source.Table,
		links:     cfg.Clone().Links,
		timeout:   constants.PartitionFetchTimeout,
		maxPages:  constants.MaxPages,
		batchSize: constants.RelatedBatchSize,
	}
	if b, ok := backend.(interface{ Name() string }); ok {
		f.name = b.Name()
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.cache == nil {
		f.cache = NewCache()
	}
	return f
}

// Fetch returns all records visible through the partition. An empty
// partition returns an empty slice. Transport failures are returned as
// *errors.SourceError.
func (f *Fetcher) Fetch(ctx context.Context, p config.Partition) ([]Record, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	logger := logging.FromContext(ctx)

	records := []Record{}
	offset := ""
	for page := 0; ; page++ {
		if page >= f.maxPages {
			return nil, errors.WrapSource(p.ID, "list",
				fmt.Errorf("partition exceeds %d pages", f.maxPages))
		}
		pg, err := f.backend.ListPage(ctx, f.table, p.ID, offset)
		if err != nil {
			return nil, errors.WrapSource(p.ID, "list", f.contextError(ctx, err))
		}
		for _, r := range pg.Records {
			r = r.Clone()
			if r.Fields == nil {
				r.Fields = map[string]any{}
			}
			r.Partition = p.ID
			records = append(records, r)
		}
		if pg.Offset == "" {
			break
		}
		offset = pg.Offset
	}

	if err := f.resolveLinks(ctx, records); err != nil {
		return nil, errors.WrapSource(p.ID, "resolve links", f.contextError(ctx, err))
	}

	logger.Debug().
		Str("partition", p.ID).
		Str("phase", p.Phase.String()).
		Int("records", len(records)).
		Msg("Fetched partition")
	return records, nil
}

func (f *Fetcher) contextError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &errors.APIError{Source: f.name, Message: "fetch timed out", Err: errors.ErrTimeout}
	}
	return err
}

// resolveLinks attaches fields of linked records onto the primary records.
// Fields already present on a primary record are never overwritten.
func (f *Fetcher) resolveLinks(ctx context.Context, records []Record) error {
	for _, link := range f.links {
		var ids []string
		seen := map[string]bool{}
		for _, r := range records {
			for _, id := range LinkedIDs(r.Fields[link.Field]) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
		if len(ids) == 0 {
			continue
		}

		related, err := f.lookup(ctx, link.Table, ids)
		if err != nil {
			return err
		}

		for _, r := range records {
			attach(r.Fields, LinkedIDs(r.Fields[link.Field]), related, link.Attach)
		}
	}
	return nil
}

// lookup returns related record fields by id, consulting the cache first and
// batching misses.
func (f *Fetcher) lookup(ctx context.Context, table string, ids []string) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any, len(ids))
	var missing []string
	for _, id := range ids {
		if v, ok := f.cache.Get(cacheKey(table, id)); ok {
			out[id] = v.(map[string]any)
			continue
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += f.batchSize {
		end := min(start+f.batchSize, len(missing))
		batch, err := f.backend.GetByIDs(ctx, table, missing[start:end])
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			fields := maps.Clone(r.Fields)
			f.cache.Set(cacheKey(table, r.ID), fields, gocache.DefaultExpiration)
			out[r.ID] = fields
		}
	}
	return out, nil
}

func cacheKey(table, id string) string {
	return table + "/" + id
}

// attach copies related fields onto primary under their attach names. A
// single linked value is attached as-is; several are attached as a list.
func attach(primary map[string]any, ids []string, related map[string]map[string]any, names map[string]string) {
	for from, to := range names {
		if v, ok := primary[to]; ok && !isEmpty(v) {
			continue
		}
		var values []any
		for _, id := range ids {
			fields, ok := related[id]
			if !ok {
				continue
			}
			v, ok := fields[from]
			if !ok || isEmpty(v) {
				continue
			}
			if list, ok := v.([]any); ok {
				values = append(values, list...)
				continue
			}
			values = append(values, v)
		}
		switch len(values) {
		case 0:
		case 1:
			primary[to] = values[0]
		default:
			primary[to] = values
		}
	}
}

// LinkedIDs extracts linked record ids from a raw link field value.
func LinkedIDs(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}
