// Package build turns a config.Pipeline into a runnable pipeline over
// *dataset.Frame. Every kind is resolved here, before anything runs, so an
// unknown transform or a malformed check is a configuration error rather than
// a failed run.
package build

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
	"etlgate/internal/pipeline"
	"etlgate/internal/quality/rules"
	"etlgate/internal/transformer/builtin"

	// Registers the storage backends used by "sql" load steps.
	_ "etlgate/internal/storage/all"
)

// Frame is the pipeline type produced by FromConfig.
type Frame = pipeline.Pipeline[*dataset.Frame]

// Options are the runtime collaborators that do not come from the file.
type Options struct {
	Logger   zerolog.Logger
	Recorder pipeline.Recorder
}

// ConfigError carries the linter findings that made a pipeline unbuildable.
type ConfigError struct {
	Issues []config.Issue
}

func (e *ConfigError) Error() string {
	var msgs []string
	for _, iss := range e.Issues {
		if iss.Severity == config.SeverityError {
			msgs = append(msgs, iss.Error())
		}
	}
	return "invalid pipeline: " + strings.Join(msgs, "; ")
}

// FromConfig validates p and assembles the pipeline. Warnings are logged;
// errors abort with a *ConfigError.
func FromConfig(p config.Pipeline, opt Options) (*Frame, error) {
	log := opt.Logger
	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		if iss.Severity == config.SeverityWarning {
			log.Warn().Str("path", iss.Path).Msg(iss.Message)
		}
	}
	if config.HasErrors(issues) {
		return nil, &ConfigError{Issues: issues}
	}

	pl := pipeline.New[*dataset.Frame](
		pipeline.WithName(p.Job),
		pipeline.WithLogger(log),
		pipeline.WithRecorder(opt.Recorder),
	)

	for i, s := range p.Extract {
		fn, err := extractFunc(p.Job, s, log)
		if err != nil {
			return nil, errors.Wrapf(err, "extract[%d] %s", i, s.Name)
		}
		pl.AddExtractStep(s.Name, fn, s.Options)
	}

	for i, s := range p.Transform {
		t, err := builtin.New(s.Kind, s.Options)
		if err != nil {
			return nil, errors.Wrapf(err, "transform[%d] %s", i, s.Name)
		}
		pl.AddTransformStep(s.Name, func(ctx context.Context, f *dataset.Frame) (*dataset.Frame, error) {
			if err := ctx.Err(); err != nil {
				return f, err
			}
			return t.Apply(f)
		})
	}

	for i, s := range p.Quality {
		c, err := rules.FromConfig(s.Kind, s.Name, s.Options)
		if err != nil {
			return nil, errors.Wrapf(err, "quality[%d]", i)
		}
		pl.AddQualityCheck(c)
	}

	for i, s := range p.Load {
		fn, err := loadFunc(p.Job, s, log)
		if err != nil {
			return nil, errors.Wrapf(err, "load[%d] %s", i, s.Name)
		}
		pl.AddLoadStep(s.Name, fn, s.Options)
	}
	return pl, nil
}
