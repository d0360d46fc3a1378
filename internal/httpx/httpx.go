package httpx

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"

	"streamfinder/internal/services"
)

const (
	defaultTimeout = 8 * time.Second
	// maxBodyBytes bounds how much of a catalog response is read.
	maxBodyBytes = 16 << 20
)

// Options configures a Client.
type Options struct {
	// Timeout bounds every single call, including time spent waiting on the
	// pacing limiter.
	Timeout time.Duration
	// RequestsPerSecond paces outgoing calls; zero or negative disables pacing.
	RequestsPerSecond float64
	UserAgent         string
	// HTTPClient overrides the underlying client (tests, proxies).
	HTTPClient *http.Client
}

// Client performs bounded JSON GET requests against catalog endpoints. It never
// retries: a failed call is final.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
}

// New builds a Client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          32,
				MaxIdleConnsPerHost:   8,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &Client{
		http:      httpClient,
		timeout:   timeout,
		limiter:   limiter,
		userAgent: strings.TrimSpace(opts.UserAgent),
	}
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// GetJSON issues a GET for rawURL with query merged in and decodes the body
// into dst. Non-2xx responses return *StatusError; decode failures are tagged
// with services.ErrSchema; deadline hits with services.ErrTimeout.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, dst any) error {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "httpx", "parse url", rawURL, err)
	}
	if len(query) > 0 {
		merged := endpoint.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		endpoint.RawQuery = merged.Encode()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(callCtx); err != nil {
		return services.Wrap(services.ErrTimeout, "httpx", "pace", endpoint.Host, err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.http.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "httpx", "get", fmt.Sprintf("%s (latency=%v)", endpoint.Host, latency), err)
		}
		return services.Wrap(services.ErrTransient, "httpx", "get", fmt.Sprintf("%s (latency=%v)", endpoint.Host, latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &StatusError{URL: redactedURL(endpoint), StatusCode: resp.StatusCode}
	}

	body, err := decodedBody(resp)
	if err != nil {
		return services.Wrap(services.ErrSchema, "httpx", "decompress", endpoint.Host, err)
	}
	defer body.Close()

	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(dst); err != nil {
		if callCtx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "httpx", "read body", endpoint.Host, err)
		}
		return services.Wrap(services.ErrSchema, "httpx", "decode", endpoint.Host, err)
	}
	return nil
}

// decodedBody unwraps the Content-Encoding the server applied. Setting
// Accept-Encoding manually disables net/http's transparent gzip handling, so
// both encodings are handled here.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

// redactedURL drops query values such as api keys from error messages.
func redactedURL(u *url.URL) string {
	clone := *u
	clone.RawQuery = ""
	return clone.String()
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Is lets errors.Is classify status failures with the service markers.
func (e *StatusError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case services.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case services.ErrTransient:
		return e.StatusCode != http.StatusNotFound
	}
	return false
}
