package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// APIPrefix is the versioned path prefix shared by all registry routers.
const APIPrefix = "/api/v1"

// Client talks to one service base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the given base URL. The timeout applies to
// every request unless the per-call context expires first.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			// Redirect statuses are assertion targets, never followed.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

// BaseURL returns the base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CloseIdleConnections releases kept-alive connections. Long-lived callers
// and tests use it when they are done with a service.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

// Response captures the status and raw body of a completed request.
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// JSON returns the body decoded as a generic object, or nil when the body
// is empty or not an object.
func (r *Response) JSON() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return nil
	}
	return m
}

// Field returns a top-level field of the JSON body.
func (r *Response) Field(name string) (any, bool) {
	m := r.JSON()
	if m == nil {
		return nil, false
	}
	v, ok := m[name]
	return v, ok
}

// HasFields reports whether every named top-level field is present.
func (r *Response) HasFields(names ...string) bool {
	m := r.JSON()
	if m == nil {
		return false
	}
	for _, n := range names {
		if _, ok := m[n]; !ok {
			return false
		}
	}
	return true
}

// Detail returns the platform's error detail string, if any.
func (r *Response) Detail() string {
	if v, ok := r.Field("detail"); ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// Request describes one HTTP call.
type Request struct {
	Method string
	Path   string // joined to the base URL verbatim
	Query  url.Values
	Header http.Header
	JSON   any        // marshalled as the JSON body when set
	Form   url.Values // form-encoded body when set; wins over JSON
}

// Option mutates a Request before it is sent.
type Option func(*Request)

// WithBearer sets an Authorization: Bearer header.
func WithBearer(token string) Option {
	return func(r *Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// WithAPIKey sets the X-Api-Key header.
func WithAPIKey(key string) Option {
	return func(r *Request) { r.Header.Set("X-Api-Key", key) }
}

// WithBootstrapToken sets the one-time Bootstrap-Token header used by the
// onboarding router.
func WithBootstrapToken(token string) Option {
	return func(r *Request) { r.Header.Set("Bootstrap-Token", token) }
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) Option {
	return func(r *Request) { r.Query.Set(key, value) }
}

// WithJSON sets a JSON body.
func WithJSON(body any) Option {
	return func(r *Request) { r.JSON = body }
}

// WithForm sets a form-encoded body. The auth router's OAuth2 endpoints
// require this instead of JSON.
func WithForm(values url.Values) Option {
	return func(r *Request) { r.Form = values }
}

// Do sends one request. A non-nil error means the request never completed
// (connection refused, timeout, cancelled context); HTTP error statuses are
// returned in the Response for the caller to judge.
func (c *Client) Do(ctx context.Context, method, path string, opts ...Option) (*Response, error) {
	req := &Request{
		Method: method,
		Path:   path,
		Query:  url.Values{},
		Header: http.Header{},
	}
	for _, opt := range opts {
		opt(req)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		req.Header.Set("Content-Type", "application/json")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Set(k, v)
		}
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

// Get is shorthand for Do with GET.
func (c *Client) Get(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Post is shorthand for Do with POST.
func (c *Client) Post(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

// Put is shorthand for Do with PUT.
func (c *Client) Put(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

// Delete is shorthand for Do with DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

// Healthy reports whether the service answers its health endpoint with 200.
// A 404 on the base URL still counts as reachable, matching how operators
// probe half-configured services.
func (c *Client) Healthy(ctx context.Context, healthPath string) (bool, string) {
	resp, err := c.Get(ctx, healthPath)
	if err != nil {
		return false, "OFFLINE - " + err.Error()
	}
	if resp.StatusCode == http.StatusOK {
		return true, "ONLINE - health check passed"
	}

	base, err := c.Get(ctx, "/")
	if err == nil && (base.StatusCode == http.StatusOK || base.StatusCode == http.StatusNotFound) {
		return true, fmt.Sprintf("ONLINE - responding (status: %d)", base.StatusCode)
	}
	return false, fmt.Sprintf("UNHEALTHY - status code: %d", resp.StatusCode)
}

// expectStatus converts an unexpected status into an error carrying the
// platform's detail message when present.
func expectStatus(resp *Response, want int, what string) error {
	if resp.StatusCode == want {
		return nil
	}
	if detail := resp.Detail(); detail != "" {
		return fmt.Errorf("%s: status %d (want %d): %s", what, resp.StatusCode, want, detail)
	}
	return fmt.Errorf("%s: status %d (want %d)", what, resp.StatusCode, want)
}
