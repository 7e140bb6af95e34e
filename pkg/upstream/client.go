package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/shareit/shareit-backend/pkg/errors"
)

const (
	defaultTimeout             = 10 * time.Second
	responseBodyLimit    int64 = 4 << 20
	errorBodyPreviewSize int64 = 1024
	userHeader                 = "X-Sharer-User-Id"
	livenessPath               = "/health/live"
)

var errBaseURLRequired = errors.New("upstream base url is required")

// passthroughHeaders are copied from the inbound request when present.
var passthroughHeaders = []string{"X-Request-Id", "Idempotency-Key"}

// Client forwards validated gateway calls to the ShareIt server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a forwarding client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("invalid upstream base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Request is one call relayed to the server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	UserID *int64
	Body   any
	Header http.Header
}

// Response is the server's reply, relayed verbatim by the gateway.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forward sends req to the server. Any HTTP status is a successful relay;
// only transport failures return an error.
func (c *Client) Forward(ctx context.Context, req Request) (*Response, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "upstream client not configured")
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal upstream request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.buildURL(req.Path, req.Query), body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.UserID != nil {
		httpReq.Header.Set(userHeader, strconv.FormatInt(*req.UserID, 10))
	}
	for _, name := range passthroughHeaders {
		if v := req.Header.Get(name); v != "" {
			httpReq.Header.Set(name, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "server unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "read upstream response")
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

// Ping checks the server liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeUpstream, "upstream client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(livenessPath, nil), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build ping request")
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "server unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPreviewSize))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "server not live")
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	path = "/" + strings.TrimLeft(path, "/")
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}
