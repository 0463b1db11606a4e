// Package httpds fetches extract input over HTTP with retry and backoff.
//
// Transient failures (transport errors, 429 and 5xx) are retried with
// exponential backoff; any other status is final. Context cancellation is
// honoured before each attempt and during backoff waits.
package httpds

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the HTTP client.
//
// Zero values are given defaults:
//   - Timeout:        30s
//   - MaxRetries:     0 (single attempt)
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Each later retry
	// doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// BaseHeaders are sent with every request; per-request headers win.
	BaseHeaders http.Header

	// Transport replaces the default *http.Transport when set.
	Transport http.RoundTripper

	// Logger receives one line per retry. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	baseHeaders    http.Header
	log            zerolog.Logger

	// wait blocks for a backoff period; tests replace it.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	c := &Client{
		maxRetries:     max(cfg.MaxRetries, 0),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		baseHeaders:    cfg.BaseHeaders.Clone(),
		log:            zerolog.Nop(),
		wait:           waitContext,
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 200 * time.Millisecond
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = 5 * time.Second
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	}
	c.log = c.log.With().Str("component", "httpds").Logger()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rt := cfg.Transport
	if rt == nil {
		rt = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in
		}
	}
	c.httpClient = &http.Client{Timeout: timeout, Transport: rt}
	return c
}

// Do sends a request, retrying transient failures. body is a byte slice so it
// can be re-sent. On success the caller must close the response body.
func (c *Client) Do(ctx context.Context, method, url string, body []byte, headers http.Header) (*http.Response, error) {
	switch {
	case method == "":
		return nil, fmt.Errorf("httpds: method must not be empty")
	case url == "":
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := c.send(ctx, method, url, body, headers)
		if err == nil {
			return resp, nil
		}
		var final *finalError
		if errors.As(err, &final) {
			return nil, final.err
		}
		lastErr = err
		if attempt >= c.maxRetries {
			return nil, lastErr
		}

		d := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
		c.log.Warn().Err(err).Str("url", url).Int("attempt", attempt+1).Dur("backoff", d).Msg("retrying request")
		if err := c.wait(ctx, d); err != nil {
			return nil, err
		}
	}
}

// finalError marks a failure that must not be retried.
type finalError struct{ err error }

func (e *finalError) Error() string { return e.err.Error() }

// send performs one attempt. A retryable status is turned into an error and
// its body closed.
func (c *Client) send(ctx context.Context, method, url string, body []byte, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, &finalError{fmt.Errorf("httpds: build request: %w", err)}
	}
	req.Header = c.baseHeaders.Clone()
	if req.Header == nil {
		req.Header = http.Header{}
	}
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if retryable(resp.StatusCode) {
		resp.Body.Close()
		return nil, fmt.Errorf("httpds: retryable status %d from %s %s", resp.StatusCode, method, url)
	}
	return resp, nil
}

// Get is Do with http.MethodGet.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, headers)
}

// retryable reports 429 and 5xx.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoffDuration returns initial doubled attempt times, clamped to limit.
func backoffDuration(initial time.Duration, attempt int, limit time.Duration) time.Duration {
	d := initial
	for i := 0; i < attempt && d < limit; i++ {
		d *= 2
	}
	return min(d, limit)
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
