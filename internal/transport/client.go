package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/propsync/pkg/constants"
	"github.com/agentstation/propsync/pkg/errors"
)

// DefaultHTTPTimeout is the default timeout for HTTP requests.
var DefaultHTTPTimeout = constants.DefaultHTTPTimeout

// Client provides HTTP client functionality with authentication.
type Client struct {
	http   *http.Client
	auth   Authenticator
	token  string
	source string
}

// New creates a new transport client. source names the remote system in
// errors; token is applied through auth on every request when non-empty.
func New(source string, auth Authenticator, token string) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	return &Client{
		http:   &http.Client{Timeout: DefaultHTTPTimeout},
		auth:   auth,
		token:  token,
		source: source,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Source returns the remote system name used in errors.
func (c *Client) Source() string {
	return c.source
}

// Do performs an HTTP request with authentication applied.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.token != "" {
		c.auth.Apply(req, c.token)
	}

	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost || req.Method == http.MethodPut || req.Method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Network failures are indistinguishable from an unavailable source.
		return nil, &errors.APIError{
			Source:   c.source,
			Message:  err.Error(),
			Endpoint: req.URL.Path,
			Err:      errors.ErrSourceUnavailable,
		}
	}
	return resp, nil
}

// Get performs a GET request and decodes the JSON response into target.
func (c *Client) Get(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WrapResource("create", "request", "GET "+url, err)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return c.decode(resp, target)
}

// Send performs a request with a JSON body and decodes the response into
// target, which may be nil.
func (c *Client) Send(ctx context.Context, method, url string, body, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.WrapParse("json", "request", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return errors.WrapResource("create", "request", method+" "+url, err)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return c.decode(resp, target)
}

func (c *Client) decode(resp *http.Response, target any) error {
	err := DecodeResponse(resp, target)
	var apiErr *errors.APIError
	if errors.As(err, &apiErr) && apiErr.Source == "" {
		apiErr.Source = c.source
	}
	return err
}
