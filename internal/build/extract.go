package build

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"etlgate/internal/config"
	"etlgate/internal/datasource"
	"etlgate/internal/datasource/file"
	"etlgate/internal/datasource/httpds"
	"etlgate/internal/dataset"
	"etlgate/internal/metrics"
	"etlgate/internal/parser"
	"etlgate/internal/pipeline"
)

// sourcesFunc resolves the sources of an extract step at run time, so list
// files are read when the step runs.
type sourcesFunc func() ([]datasource.Source, error)

func sourcesFor(s config.Step, log zerolog.Logger) (sourcesFunc, error) {
	o := s.Options
	switch s.Kind {
	case "file":
		return func() ([]datasource.Source, error) {
			paths, err := listOr(o, "path", "paths_file")
			if err != nil {
				return nil, err
			}
			out := make([]datasource.Source, len(paths))
			for i, p := range paths {
				out[i] = file.NewLocal(p)
			}
			return out, nil
		}, nil
	case "http":
		cl := httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(o.Int("timeout_seconds", 0)) * time.Second,
			MaxRetries:         o.Int("max_retries", 2),
			InitialBackoff:     time.Duration(o.Int("backoff_ms", 0)) * time.Millisecond,
			InsecureSkipVerify: o.Bool("insecure_skip_verify", false),
			Logger:             &log,
		})
		var headers http.Header
		if hs := o.StringMap("headers"); len(hs) > 0 {
			headers = http.Header{}
			for k, v := range hs {
				headers.Set(k, v)
			}
		}
		return func() ([]datasource.Source, error) {
			urls, err := listOr(o, "url", "urls_file")
			if err != nil {
				return nil, err
			}
			out := make([]datasource.Source, len(urls))
			for i, u := range urls {
				src := httpds.NewSource(cl, u)
				src.Headers = headers
				src.CacheDir = o.String("cache_dir", "")
				src.Refresh = o.Bool("refresh", false)
				out[i] = src
			}
			return out, nil
		}, nil
	default:
		return nil, errors.Errorf("unknown extract kind %q", s.Kind)
	}
}

// listOr returns the single value under key, or the entries of the list file
// named under listKey.
func listOr(o config.Options, key, listKey string) ([]string, error) {
	if lf := o.String(listKey, ""); lf != "" {
		items, err := file.ReadList(lf)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, errors.Errorf("%s %s is empty", listKey, lf)
		}
		return items, nil
	}
	return []string{o.String(key, "")}, nil
}

func extractFunc(job string, s config.Step, log zerolog.Logger) (pipeline.ExtractFunc[*dataset.Frame], error) {
	resolve, err := sourcesFor(s, log)
	if err != nil {
		return nil, err
	}
	format := s.Options.String("format", "csv")
	parse, err := parser.Lookup(format)
	if err != nil {
		return nil, err
	}

	readOne := func(ctx context.Context, src datasource.Source, params config.Options) (*dataset.Frame, error) {
		rc, err := src.Open(ctx)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		f, err := parse(rc, params, log)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", format)
		}
		return f, nil
	}

	return func(ctx context.Context, params config.Options) (*dataset.Frame, error) {
		sources, err := resolve()
		if err != nil {
			return nil, err
		}
		frames := make([]*dataset.Frame, 0, len(sources))
		for i, src := range sources {
			f, err := readOne(ctx, src, params)
			if err != nil {
				return nil, errors.Wrapf(err, "source %d", i)
			}
			frames = append(frames, f)
		}
		f := frames[0]
		if len(frames) > 1 {
			f = dataset.Concat(frames...)
		}
		metrics.RecordRows(job, "extracted", int64(f.Len()))
		log.Debug().Str("step", s.Name).Int("sources", len(sources)).Int("rows", f.Len()).Strs("columns", f.Columns).Msg("extracted")
		return f, nil
	}, nil
}
