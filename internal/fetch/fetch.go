// Package fetch wraps outbound HTTP calls with rate limit admission. Every
// request is keyed by its URL origin, so all calls to one host share a budget.
// Denied requests fail locally with a RateLimitExceededError and never reach
// the network.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"pokedex/internal/ratelimit"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrRateLimitExceeded matches every RateLimitExceededError via errors.Is.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Admitter is the part of a limiter the wrapper needs. Admit must decide and
// report the wait time atomically.
type Admitter interface {
	Admit(key string) (bool, ratelimit.Status)
}

// RateLimitExceededError is returned when the limiter denies a request.
type RateLimitExceededError struct {
	Key        string        // origin the request was keyed by
	RetryAfter time.Duration // time until the key's window resets
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: please wait %d seconds before retrying", e.Seconds())
}

func (e *RateLimitExceededError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// Seconds is RetryAfter rounded up to whole seconds, never less than one.
func (e *RateLimitExceededError) Seconds() int {
	return max(1, ratelimit.RetryAfterSeconds(e.RetryAfter))
}

// Origin returns scheme://host[:port] for rawURL, lower-cased, with the
// scheme's default port dropped.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	return originOf(u)
}

func originOf(u *url.URL) (string, error) {
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %q is not absolute", u.Redacted())
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port), nil
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

// Client performs admitted HTTP requests.
type Client struct {
	httpClient *http.Client
	limiter    Admitter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for admitted requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTracing wraps the client's transport with OpenTelemetry instrumentation.
// Apply it after WithHTTPClient.
func WithTracing() Option {
	return func(c *Client) {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.httpClient
		hc.Transport = otelhttp.NewTransport(base)
		c.httpClient = &hc
	}
}

// NewClient returns a Client that consults limiter before every request.
func NewClient(limiter Admitter, opts ...Option) (*Client, error) {
	if limiter == nil {
		return nil, errors.New("fetch: limiter is required")
	}

	c := &Client{
		httpClient: http.DefaultClient,
		limiter:    limiter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Do admits req against its origin and, if allowed, sends it. The response is
// returned unchanged; non-2xx statuses are not errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := admit(c.limiter, req.URL); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

// Get issues an admitted GET for rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Fetch is the one-shot form of Client.Do using http.DefaultClient.
func Fetch(ctx context.Context, limiter Admitter, method, rawURL string, body io.Reader) (*http.Response, error) {
	c, err := NewClient(limiter)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func admit(limiter Admitter, u *url.URL) error {
	key, err := originOf(u)
	if err != nil {
		return err
	}

	allowed, status := limiter.Admit(key)
	if allowed {
		return nil
	}
	return &RateLimitExceededError{
		Key:        key,
		RetryAfter: status.ResetIn,
	}
}
