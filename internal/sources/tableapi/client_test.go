package tableapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/internal/sources/testhelper"
	"github.com/agentstation/propsync/pkg/config"
	"github.com/agentstation/propsync/pkg/errors"
	"github.com/agentstation/propsync/pkg/property"
	"github.com/agentstation/propsync/pkg/sources"
)

func TestListPageFollowsOffset(t *testing.T) {
	page1 := testhelper.LoadTestdata(t, "records_page1.json")
	page2 := testhelper.LoadTestdata(t, "records_page2.json")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Properties", r.URL.Path)
		assert.Equal(t, "viwB", r.URL.Query().Get("view"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Query().Get("offset") == "itr2/recA2" {
			_, _ = w.Write(page2)
			return
		}
		_, _ = w.Write(page1)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Links = nil
	fetcher := sources.NewFetcher(New(srv.URL, "tok"), cfg)

	records, err := fetcher.Fetch(context.Background(), config.Partition{Phase: property.PhaseRenovation, ID: "viwB", Priority: 1})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "recA1", records[0].ID)
	assert.Equal(t, "X-3", records[2].Fields["Property ID"])
	assert.Equal(t, "viwB", records[2].Partition)
}

func TestGetByIDsBuildsFormula(t *testing.T) {
	var formula string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		formula = r.URL.Query().Get("filterByFormula")
		_, _ = w.Write([]byte(`{"records":[{"id":"usr1","fields":{"Name":"Anna"}}]}`))
	}))
	defer srv.Close()

	recs, err := New(srv.URL, "tok").GetByIDs(context.Background(), "People", []string{"usr1", "usr2"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Anna", recs[0].Fields["Name"])
	assert.Equal(t, "OR(RECORD_ID()='usr1',RECORD_ID()='usr2')", formula)
}

func TestGetByIDsRejectsOversizedBatch(t *testing.T) {
	ids := make([]string, 51)
	for i := range ids {
		ids[i] = "rec"
	}
	_, err := New("http://unused", "tok").GetByIDs(context.Background(), "People", ids)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestFindByField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f := r.URL.Query().Get("filterByFormula")
		if f == "{Property ID}='X-1'" {
			_, _ = w.Write([]byte(`{"records":[{"id":"recA1","fields":{}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	id, found, err := c.FindByField(context.Background(), "Properties", "Property ID", "X-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "recA1", id)

	_, found, err = c.FindByField(context.Background(), "Properties", "Property ID", "X-9")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateFieldsSendsSparsePatch(t *testing.T) {
	var mu sync.Mutex
	var got map[string]map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/Properties/recA1", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"recA1","fields":{"Phase":"sold"}}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").UpdateFields(context.Background(), "Properties", "recA1", map[string]any{"Phase": "sold"})
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]any{"Phase": "sold"}, got["fields"])
}

func TestRateLimitSurfacesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").UpdateFields(context.Background(), "Properties", "recA1", map[string]any{"Phase": "sold"})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, quote("plain"))
	assert.Equal(t, `'O\'Brien'`, quote("O'Brien"))
	assert.True(t, strings.HasPrefix(quote(`a\b`), `'a\\b`))
}
