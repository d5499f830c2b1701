// Package tableapi implements sources.Backend against a hosted table REST
// API: records are listed per view with offset paging, looked up by formula,
// and updated with sparse PATCH requests.
package tableapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/propsync/internal/transport"
	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/sources"
)

// Name identifies this backend in logs and errors.
const Name = "tableapi"

// Response is one page of a record listing.
type Response struct {
	Records []RecordData `json:"records"`
	Offset  string       `json:"offset,omitempty"`
}

// RecordData is a record as returned by the API.
type RecordData struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Client talks to one base of the table API.
type Client struct {
	transport *transport.Client
	baseURL   string
	pageSize  int
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the listing page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithTransport replaces the transport client.
func WithTransport(t *transport.Client) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// New creates a client for baseURL authenticating with a bearer token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		transport: transport.New(Name, &transport.BearerAuth{}, token),
		baseURL:   strings.TrimRight(baseURL, "/"),
		pageSize:  constants.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements sources.Backend.
func (c *Client) Name() string {
	return Name
}

// ListPage implements sources.Reader.
func (c *Client) ListPage(ctx context.Context, table, partitionID, offset string) (sources.Page, error) {
	q := url.Values{}
	q.Set("view", partitionID)
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if offset != "" {
		q.Set("offset", offset)
	}

	var resp Response
	if err := c.transport.Get(ctx, c.tableURL(table)+"?"+q.Encode(), &resp); err != nil {
		return sources.Page{}, err
	}
	return sources.Page{Records: convert(resp.Records), Offset: resp.Offset}, nil
}

// GetByIDs implements sources.Reader.
func (c *Client) GetByIDs(ctx context.Context, table string, ids []string) ([]sources.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > constants.RelatedBatchSize {
		return nil, errors.NewValidationError("ids", len(ids),
			fmt.Sprintf("batch exceeds %d ids", constants.RelatedBatchSize))
	}

	terms := make([]string, len(ids))
	for i, id := range ids {
		terms[i] = "RECORD_ID()=" + quote(id)
	}
	q := url.Values{}
	q.Set("filterByFormula", "OR("+strings.Join(terms, ",")+")")
	q.Set("pageSize", strconv.Itoa(constants.RelatedBatchSize))

	var resp Response
	if err := c.transport.Get(ctx, c.tableURL(table)+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return convert(resp.Records), nil
}

// FindByField implements sources.Writer.
func (c *Client) FindByField(ctx context.Context, table, field, value string) (string, bool, error) {
	q := url.Values{}
	q.Set("filterByFormula", "{"+field+"}="+quote(value))
	q.Set("maxRecords", "1")

	var resp Response
	if err := c.transport.Get(ctx, c.tableURL(table)+"?"+q.Encode(), &resp); err != nil {
		return "", false, err
	}
	if len(resp.Records) == 0 {
		return "", false, nil
	}
	return resp.Records[0].ID, true, nil
}

// UpdateFields implements sources.Writer.
func (c *Client) UpdateFields(ctx context.Context, table, recordID string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	return c.transport.Send(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(recordID), body, nil)
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(table)
}

func convert(in []RecordData) []sources.Record {
	out := make([]sources.Record, 0, len(in))
	for _, r := range in {
		out = append(out, sources.Record{ID: r.ID, Fields: r.Fields})
	}
	return out
}

// quote renders a formula string literal.
func quote(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}
