package build

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"etlgate/internal/config"
	sink "etlgate/internal/datasink/file"
	"etlgate/internal/dataset"
	"etlgate/internal/metrics"
	"etlgate/internal/pipeline"
	"etlgate/internal/storage"
)

func loadFunc(job string, s config.Step, log zerolog.Logger) (pipeline.LoadFunc[*dataset.Frame], error) {
	switch s.Kind {
	case "sql":
		return sqlLoad(job, s, log)
	case "file":
		return func(ctx context.Context, f *dataset.Frame, params config.Options) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := sink.Write(f, sink.FromConfigOptions(params)); err != nil {
				return err
			}
			metrics.RecordRows(job, "loaded", int64(f.Len()))
			return nil
		}, nil
	default:
		return nil, errors.Errorf("unknown load kind %q", s.Kind)
	}
}

// sqlLoad connects lazily, inside the step, so a vetoed run never opens a
// connection.
func sqlLoad(job string, s config.Step, log zerolog.Logger) (pipeline.LoadFunc[*dataset.Frame], error) {
	driver := s.Options.String("driver", "")
	known := false
	for _, k := range storage.ListKinds() {
		if k == driver {
			known = true
			break
		}
	}
	if !known {
		return nil, errors.Errorf("unsupported sql driver %q (known: %v)", driver, storage.ListKinds())
	}

	return func(ctx context.Context, f *dataset.Frame, o config.Options) error {
		cfg := storage.Config{
			Kind:       driver,
			DSN:        o.String("dsn", ""),
			Table:      o.String("table", ""),
			Columns:    o.StringSlice("columns"),
			KeyColumns: o.StringSlice("key_columns"),
		}
		repo, err := storage.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		if o.Bool("auto_create_table", false) {
			if err := storage.EnsureTable(ctx, repo, cfg, f, o.StringMap("types")); err != nil {
				return err
			}
		}
		for _, stmt := range o.StringSlice("pre_sql") {
			if err := repo.Exec(ctx, stmt); err != nil {
				return errors.Wrap(err, "pre_sql")
			}
		}

		n, err := storage.LoadFrame(ctx, repo, f, cfg.Columns, o.Int("batch_size", storage.DefaultBatchSize), log)
		metrics.RecordRows(job, "loaded", n)
		if err != nil {
			return err
		}
		log.Info().Str("step", s.Name).Str("table", cfg.Table).Int64("rows", n).Msg("loaded")
		return nil
	}, nil
}
