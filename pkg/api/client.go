package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmoreno/shopfront/pkg/config"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/dmoreno/shopfront/pkg/metrics"
	"github.com/google/uuid"
)

const errorBodyReadLimit int64 = 2048

var (
	errBaseURLRequired = errors.New("api base url is required")
	errLoggerRequired  = errors.New("api logger is required")
)

// TokenSource yields the bearer token attached to authenticated calls.
// An empty token means the call goes out anonymous.
type TokenSource interface {
	Token() string
}

// Client is the single HTTP entry point for the remote storefront API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokens      TokenSource
	adminPrefix string
	onAdminAuth func(context.Context)
	metrics     *metrics.RequestMetrics
	logger      *logger.Logger
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

// WithTokenSource attaches a bearer token provider.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithAdminGuard arms the response interceptor: a 401 on any path under
// prefix invokes onUnauthorized (credential clear + redirect). Shopper-scope
// 401s are untouched; they belong to the auth health monitor.
func WithAdminGuard(prefix string, onUnauthorized func(context.Context)) Option {
	return func(c *Client) {
		c.adminPrefix = strings.TrimSpace(prefix)
		c.onAdminAuth = onUnauthorized
	}
}

// WithMetrics records per-call outcomes on the provided collector.
func WithMetrics(m *metrics.RequestMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the storefront API client.
func NewClient(cfg config.APIConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "api client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, "transport_error", time.Since(start))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("execute %s %s", method, path))
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.ObserveRequest(method, outcomeFor(resp.StatusCode), time.Since(start))

	if resp.StatusCode >= 400 {
		return c.interceptError(ctx, path, resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", path))
		}
	}
	return nil
}

// interceptError maps an upstream failure onto the error taxonomy. The one
// response it acts on itself is an admin-scoped 401: the admin credential
// namespace has no reactive session indicator, so the clear-and-redirect
// happens here rather than in a store.
func (c *Client) interceptError(ctx context.Context, path string, resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized && c.adminScoped(path) {
		ctx = c.logger.WithField(ctx, "path", path)
		c.logger.Warn(ctx, "admin credential rejected, redirecting to admin login")
		if c.onAdminAuth != nil {
			c.onAdminAuth(ctx)
		}
	}

	message := upstreamMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("upstream status %d on %s", resp.StatusCode, path)
	}
	return pkgerrors.New(pkgerrors.CodeForStatus(resp.StatusCode), message)
}

func (c *Client) adminScoped(path string) bool {
	return c.adminPrefix != "" && strings.HasPrefix(path, c.adminPrefix)
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// upstreamMessage pulls a human-readable message out of an error body,
// tolerating both bare and enveloped shapes.
func upstreamMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, errorBodyReadLimit))
	if err != nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error.Message != "" {
			return payload.Error.Message
		}
	}
	return ""
}

func outcomeFor(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status < 500:
		return "client_error"
	default:
		return "upstream_error"
	}
}
