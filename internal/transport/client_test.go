package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/propsync/pkg/errors"
)

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestClientGetDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"records":[{"id":"rec1"}]}`))
	}))
	defer srv.Close()

	c := New("tables", &BearerAuth{}, "secret")
	var out struct {
		Records []struct {
			ID string `json:"id"`
		} `json:"records"`
	}
	require.NoError(t, c.Get(context.Background(), srv.URL, &out))
	require.Len(t, out.Records, 1)
	assert.Equal(t, "rec1", out.Records[0].ID)
}

func TestClientRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"RATE_LIMIT_REACHED"}`))
	}))
	defer srv.Close()

	c := New("tables", &BearerAuth{}, "secret")
	err := c.Get(context.Background(), srv.URL+"/v0/base/Properties", &struct{}{})
	require.Error(t, err)
	assert.True(t, errors.IsRateLimited(err))

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "tables", apiErr.Source)
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
	assert.Equal(t, "/v0/base/Properties", apiErr.Endpoint)
}

func TestClientServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New("tables", nil, "").Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestClientNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := New("tables", nil, "").Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, errors.IsSourceUnavailable(err))
}

func TestClientSendPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := New("tables", nil, "").Send(context.Background(), http.MethodPatch, srv.URL, map[string]any{"a": 1}, nil)
	assert.NoError(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), ParseRetryAfter("", now))
	assert.Equal(t, 30*time.Second, ParseRetryAfter("30", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-4", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon", now))
	assert.Equal(t, 90*time.Second, ParseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}
