package httpds

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestClient returns a client that never really sleeps.
func newTestClient(t *testing.T, cfg Config) (*Client, *[]time.Duration) {
	t.Helper()
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Millisecond
		cfg.MaxBackoff = 2 * time.Millisecond
	}
	c := NewClient(cfg)
	var sleeps []time.Duration
	c.wait = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

// statusSequence serves the given statuses in order, repeating the last one.
func statusSequence(hits *int32, codes ...int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(hits, 1))
		if n > len(codes) {
			n = len(codes)
		}
		w.WriteHeader(codes[n-1])
		fmt.Fprintf(w, "attempt %d", n)
	})
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})

	if c.httpClient.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v, want 30s", c.httpClient.Timeout)
	}
	if c.maxRetries != 0 || c.initialBackoff != 200*time.Millisecond || c.maxBackoff != 5*time.Second {
		t.Fatalf("defaults = %d/%v/%v", c.maxRetries, c.initialBackoff, c.maxBackoff)
	}
	tr, ok := c.httpClient.Transport.(*http.Transport)
	if !ok || tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure *http.Transport, got %#v", c.httpClient.Transport)
	}
}

func TestNewClient_CustomTransportIsUsedAsIs(t *testing.T) {
	t.Parallel()

	custom := &http.Transport{TLSClientConfig: &tls.Config{}}
	c := NewClient(Config{Transport: custom, InsecureSkipVerify: true})
	if c.httpClient.Transport != custom {
		t.Fatal("custom transport was replaced")
	}
	if custom.TLSClientConfig.InsecureSkipVerify {
		t.Fatal("InsecureSkipVerify leaked into a custom transport")
	}
}

/*
TestDo_Retries covers the retry decision table:
  - success on the first attempt does not retry,
  - 5xx and 429 are retried until success,
  - exhausted retries return the last error,
  - 4xx is returned to the caller as-is.
*/
func TestDo_Retries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		codes      []int
		retries    int
		wantHits   int32
		wantErr    bool
		wantStatus int
	}{
		{"ok_first_try", []int{200}, 3, 1, false, 200},
		{"recovers_after_5xx", []int{500, 502, 200}, 3, 3, false, 200},
		{"recovers_after_429", []int{429, 200}, 1, 2, false, 200},
		{"exhausts_retries", []int{503}, 2, 3, true, 0},
		{"client_error_is_final", []int{400}, 5, 1, false, 400},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			srv := httptest.NewServer(statusSequence(&hits, tc.codes...))
			defer srv.Close()

			c, sleeps := newTestClient(t, Config{MaxRetries: tc.retries})
			resp, err := c.Get(context.Background(), srv.URL, nil)
			if tc.wantErr {
				if err == nil {
					resp.Body.Close()
					t.Fatal("expected error after exhausting retries")
				}
				if !strings.Contains(err.Error(), "retryable status 503") {
					t.Fatalf("err = %v", err)
				}
			} else {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				resp.Body.Close()
				if resp.StatusCode != tc.wantStatus {
					t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
				}
			}
			if got := atomic.LoadInt32(&hits); got != tc.wantHits {
				t.Fatalf("hits = %d, want %d", got, tc.wantHits)
			}
			if want := int(tc.wantHits) - 1; len(*sleeps) != want {
				t.Fatalf("backoff waits = %d, want %d", len(*sleeps), want)
			}
		})
	}
}

func TestDo_HeadersAndValidation(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	c, _ := newTestClient(t, Config{BaseHeaders: http.Header{
		"X-Team": {"data"},
		"Accept": {"text/csv"},
	}})
	resp, err := c.Get(context.Background(), srv.URL, http.Header{"Accept": {"application/json"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if got.Get("X-Team") != "data" {
		t.Fatalf("base header missing: %v", got)
	}
	if vs := got.Values("Accept"); len(vs) != 1 || vs[0] != "application/json" {
		t.Fatalf("per-request header should override base: %v", vs)
	}

	if _, err := c.Do(context.Background(), "", srv.URL, nil, nil); err == nil {
		t.Fatal("empty method accepted")
	}
	if _, err := c.Get(context.Background(), "", nil); err == nil {
		t.Fatal("empty url accepted")
	}
}

func TestDo_LogsRetries(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(statusSequence(&hits, 500, 200))
	defer srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	c, _ := newTestClient(t, Config{MaxRetries: 1, Logger: &logger})

	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	out := buf.String()
	if !strings.Contains(out, `"message":"retrying request"`) || !strings.Contains(out, `"attempt":1`) {
		t.Fatalf("retry log line missing: %s", out)
	}
}

func TestDo_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, _ := newTestClient(t, Config{})
	if _, err := c.Get(ctx, "http://127.0.0.1:1", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	ms := time.Millisecond
	cases := []struct {
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{100 * ms, 0, time.Second, 100 * ms},
		{100 * ms, 1, time.Second, 200 * ms},
		{100 * ms, 2, time.Second, 400 * ms},
		{600 * ms, 1, time.Second, time.Second},
		{2 * time.Second, 0, time.Second, time.Second},
		{100 * ms, 70, time.Second, time.Second},
	}
	for _, tc := range cases {
		if got := backoffDuration(tc.initial, tc.attempt, tc.max); got != tc.want {
			t.Errorf("backoffDuration(%v, %d, %v) = %v, want %v", tc.initial, tc.attempt, tc.max, got, tc.want)
		}
	}
}

func TestWaitContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := waitContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("wait did not return early")
	}
	if err := waitContext(context.Background(), time.Millisecond); err != nil {
		t.Fatal(err)
	}
}
