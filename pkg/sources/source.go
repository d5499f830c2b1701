// Package sources fetches raw property records from an external record
// source. A source is organised in tables; each lifecycle phase is a
// pre-filtered view (partition) over the property table. Records may link to
// rows in other tables that hold the actual owner name or image list, and the
// Fetcher resolves those links before returning.
//
// Example usage:
//
//	fetcher := sources.NewFetcher(backend, cfg)
//	records, err := fetcher.Fetch(ctx, partition)
//	if errors.IsSourceUnavailable(err) {
//	    // partition contributes nothing to this run
//	}
package sources

import (
	"context"
	"maps"
)

// Record is one raw row from one partition of the external source.
type Record struct {
	// ID is the opaque source-assigned record id.
	ID string `json:"id" yaml:"id"`

	// Fields maps raw field names to scalar, array or linked-id values.
	Fields map[string]any `json:"fields" yaml:"fields"`

	// Partition is the partition that produced the record. Set by the Fetcher.
	Partition string `json:"-" yaml:"-"`
}

// Clone returns a copy with its own field map. Values are shared.
func (r Record) Clone() Record {
	r.Fields = maps.Clone(r.Fields)
	return r
}

// Page is one page of a partition listing.
type Page struct {
	Records []Record

	// Offset continues the listing; empty means last page.
	Offset string
}

// Reader reads records from the external source.
type Reader interface {
	// ListPage returns one page of the view partitionID over table.
	ListPage(ctx context.Context, table, partitionID, offset string) (Page, error)

	// GetByIDs returns the records of table with the given ids. Callers keep
	// len(ids) within constants.RelatedBatchSize. Unknown ids are omitted.
	GetByIDs(ctx context.Context, table string, ids []string) ([]Record, error)
}

// Writer updates records in the external source.
type Writer interface {
	// FindByField returns the id of the first record in table whose field
	// equals value.
	FindByField(ctx context.Context, table, field, value string) (id string, found bool, err error)

	// UpdateFields applies a sparse field update to one record.
	UpdateFields(ctx context.Context, table, recordID string, fields map[string]any) error
}

// Backend is a complete external record source.
type Backend interface {
	Reader
	Writer

	// Name identifies the backend in logs and errors.
	Name() string
}
