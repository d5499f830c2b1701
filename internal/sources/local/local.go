// Package local implements sources.Backend over a YAML or JSON fixture file.
// It is used for offline runs and tests. Partitions are expressed as ordered
// record id lists over the property table.
package local

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/sources"
)

// Name identifies this backend in logs and errors.
const Name = "local"

// Fixture is the on-disk layout.
type Fixture struct {
	// Tables maps table names to their records.
	Tables map[string][]sources.Record `yaml:"tables" json:"tables"`

	// Views maps partition ids to ordered record ids.
	Views map[string][]string `yaml:"views" json:"views"`
}

// Source serves a fixture from memory.
type Source struct {
	mu       sync.RWMutex
	path     string
	fixture  Fixture
	pageSize int
}

// Option configures a local source.
type Option func(*Source)

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// New creates a source serving f.
func New(f Fixture, opts ...Option) *Source {
	if f.Tables == nil {
		f.Tables = map[string][]sources.Record{}
	}
	if f.Views == nil {
		f.Views = map[string][]string{}
	}
	s := &Source{fixture: f, pageSize: constants.DefaultPageSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads a fixture file. YAML is a superset of JSON, so both work.
func Open(path string, opts ...Option) (*Source, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied fixture path
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.NewParseError("yaml", path, "invalid fixture", err)
	}
	s := New(f, opts...)
	s.path = path
	return s, nil
}

// Name implements sources.Backend.
func (s *Source) Name() string {
	return Name
}

// ListPage implements sources.Reader. Offsets are record positions.
func (s *Source) ListPage(ctx context.Context, table, partitionID, offset string) (sources.Page, error) {
	if err := ctx.Err(); err != nil {
		return sources.Page{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.fixture.Views[partitionID]
	if !ok {
		return sources.Page{}, &errors.APIError{
			Source:     Name,
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("view %s not found", partitionID),
			Err:        errors.ErrSourceUnavailable,
		}
	}

	start := 0
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 || n > len(ids) {
			return sources.Page{}, errors.NewValidationError("offset", offset, "invalid offset")
		}
		start = n
	}
	end := min(start+s.pageSize, len(ids))

	index := s.index(table)
	page := sources.Page{Records: make([]sources.Record, 0, end-start)}
	for _, id := range ids[start:end] {
		if r, ok := index[id]; ok {
			page.Records = append(page.Records, r.Clone())
		}
	}
	if end < len(ids) {
		page.Offset = strconv.Itoa(end)
	}
	return page, nil
}

// GetByIDs implements sources.Reader.
func (s *Source) GetByIDs(ctx context.Context, table string, ids []string) ([]sources.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := s.index(table)
	out := make([]sources.Record, 0, len(ids))
	for _, id := range ids {
		if r, ok := index[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// FindByField implements sources.Writer.
func (s *Source) FindByField(ctx context.Context, table, field, value string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.fixture.Tables[table] {
		if v, ok := r.Fields[field]; ok && fmt.Sprint(v) == value {
			return r.ID, true, nil
		}
	}
	return "", false, nil
}

// UpdateFields implements sources.Writer. The change lives in memory until
// Save is called.
func (s *Source) UpdateFields(ctx context.Context, table, recordID string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.fixture.Tables[table]
	for i := range recs {
		if recs[i].ID != recordID {
			continue
		}
		merged := maps.Clone(recs[i].Fields)
		if merged == nil {
			merged = map[string]any{}
		}
		maps.Copy(merged, fields)
		recs[i].Fields = merged
		return nil
	}
	return errors.NewNotFoundError("record", recordID)
}

// Save writes the fixture back to path, or to the file it was opened from
// when path is empty.
func (s *Source) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if path == "" {
		path = s.path
	}
	if path == "" {
		return errors.NewValidationError("path", path, "no fixture path")
	}
	data, err := yaml.MarshalWithOptions(s.fixture, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func (s *Source) index(table string) map[string]sources.Record {
	recs := s.fixture.Tables[table]
	out := make(map[string]sources.Record, len(recs))
	for _, r := range recs {
		out[r.ID] = r
	}
	return out
}
