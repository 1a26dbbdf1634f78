// Package httpds implements the remote side of a file table: an HTTP client
// with retry/backoff used to stream remote sources, and a Cache that copies
// remote archives to local disk before they are read.
//
// Design goals:
//
//   - Keep a tiny, explicit API (Fetch, FetchFirstBytes, Get, Do).
//   - Handle transient failures with exponential backoff.
//   - Send a default User-Agent plus per-domain extra headers, since some
//     hosts refuse anonymous clients.
//   - Respect context cancellation during requests and backoff waits.
//   - Be easy to test by injecting a custom RoundTripper and wait function.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultUserAgent is sent when no User-Agent header is configured.
const DefaultUserAgent = "Mozilla/4.0 (compatible; MSIE 5.5; Windows NT)"

// Config configures the HTTP datasource client.
//
// Zero values are given sensible defaults:
//   - Timeout:        0 (none; a stream may take arbitrarily long to drain)
//   - MaxRetries:     0 (negative values also mean no retry)
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
//   - UserAgent:      DefaultUserAgent
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	// It includes reading the body, so leave it zero for large downloads.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the base backoff duration for the first retry.
	// Each subsequent retry doubles the previous backoff up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// UserAgent overrides DefaultUserAgent.
	UserAgent string

	// BaseHeaders are added to every request.
	BaseHeaders http.Header

	// DomainHeaders are added to requests whose host equals the key or is a
	// subdomain of it. Per-request headers take precedence over both.
	DomainHeaders map[string]http.Header

	// Transport is an optional custom RoundTripper.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	baseHeaders    http.Header
	domainHeaders  map[string]http.Header

	// wait is injectable to make tests fast and deterministic.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
			// Compression is detected and undone by the file table itself.
			DisableCompression: true,
		}
	}

	hdr := cloneHeader(cfg.BaseHeaders)
	if hdr.Get("User-Agent") == "" {
		hdr.Set("User-Agent", cfg.UserAgent)
	}
	domains := make(map[string]http.Header, len(cfg.DomainHeaders))
	for d, h := range cfg.DomainHeaders {
		domains[strings.ToLower(d)] = cloneHeader(h)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		baseHeaders:    hdr,
		domainHeaders:  domains,
		wait:           waitWithContext,
	}
}

// Do sends a bodiless request, applying retry and backoff on transport
// errors and retryable statuses. The returned *http.Response has a non-nil
// Body which the caller must close.
func (c *Client) Do(ctx context.Context, method, rawURL string, headers http.Header) (*http.Response, error) {
	if method == "" {
		return nil, fmt.Errorf("httpds: method must not be empty")
	}
	if rawURL == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		c.applyHeaders(req, headers)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: retryable status %d from %s %s", resp.StatusCode, method, rawURL)
		}

		if attempt+1 >= attempts {
			return nil, lastErr
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Get is a convenience wrapper over Do for HTTP GET.
func (c *Client) Get(ctx context.Context, rawURL string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, headers)
}

// Fetch implements datasource.Fetcher. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, rawURL string, headers http.Header) (http.Header, io.ReadCloser, error) {
	resp, err := c.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("httpds: GET %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp.Header, resp.Body, nil
}

// applyHeaders sets base headers, then matching domain headers, then the
// per-request headers, each layer overriding the previous one.
func (c *Client) applyHeaders(req *http.Request, headers http.Header) {
	for k, vs := range c.baseHeaders {
		req.Header[k] = append([]string(nil), vs...)
	}
	host := strings.ToLower(req.URL.Hostname())
	for d, h := range c.domainHeaders {
		if host == d || strings.HasSuffix(host, "."+d) {
			for k, vs := range h {
				req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
			}
		}
	}
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
}

// IsGzipped reports whether response headers announce a gzip body, either
// as Content-Encoding or as the Content-Type.
func IsGzipped(h http.Header) bool {
	for _, k := range []string{"Content-Encoding", "Content-Type"} {
		for _, v := range h.Values(k) {
			if strings.Contains(strings.ToLower(v), "gzip") {
				return true
			}
		}
	}
	return false
}

// URLPath returns the path component of rawURL, or rawURL itself when it
// does not parse.
func URLPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func cloneHeader(h http.Header) http.Header {
	out := http.Header{}
	for k, vs := range h {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}

// isRetryableStatus treats 5xx and 429 as transient; everything else is
// final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff duration for the given
// attempt number (0-based retry index), clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// waitWithContext sleeps for d but aborts early if ctx is canceled.
func waitWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
