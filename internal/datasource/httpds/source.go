package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Source is a datasource.Source that GETs a URL. With CacheDir set the body
// is first saved to CacheDir under a name derived from the URL and later
// opens reuse that file until Refresh is set.
type Source struct {
	Client   *Client
	URL      string
	Headers  http.Header
	CacheDir string
	Refresh  bool
}

// NewSource returns a Source for url using c.
func NewSource(c *Client, url string) *Source {
	return &Source{Client: c, URL: url}
}

// CachePath returns where the body of s.URL is cached, or "" without a
// cache directory.
func (s *Source) CachePath() string {
	if s.CacheDir == "" {
		return ""
	}
	return filepath.Join(s.CacheDir, SafeFilenameFromURL(s.URL))
}

// Open implements datasource.Source. Any non-2xx final status is an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	cache := s.CachePath()
	if cache != "" && !s.Refresh {
		if f, err := os.Open(cache); err == nil {
			s.Client.log.Debug().Str("url", s.URL).Str("cache", cache).Msg("using cached download")
			return f, nil
		}
	}

	resp, err := s.Client.Get(ctx, s.URL, s.Headers)
	if err != nil {
		return nil, fmt.Errorf("httpds: GET %s: %w", s.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("httpds: GET %s: unexpected status %s", s.URL, resp.Status)
	}
	if cache == "" {
		return resp.Body, nil
	}

	defer resp.Body.Close()
	if err := saveAtomic(cache, resp.Body); err != nil {
		return nil, err
	}
	s.Client.log.Debug().Str("url", s.URL).Str("cache", cache).Msg("download cached")
	f, err := os.Open(cache)
	if err != nil {
		return nil, fmt.Errorf("httpds: open cache: %w", err)
	}
	return f, nil
}

// saveAtomic writes r to path through a temp file in the same directory so a
// failed download never leaves a partial cache entry.
func saveAtomic(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("httpds: cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("httpds: cache temp: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("httpds: cache write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("httpds: cache close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("httpds: cache rename: %w", err)
	}
	return nil
}
