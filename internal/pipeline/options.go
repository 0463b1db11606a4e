package pipeline

import (
	"time"

	"github.com/rs/zerolog"
)

const defaultName = "pipeline"

type options struct {
	name     string
	logger   zerolog.Logger
	recorder Recorder
	now      func() time.Time
}

func defaultOptions() options {
	return options{
		name:     defaultName,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
		now:      time.Now,
	}
}

// Option configures a Pipeline.
type Option func(*options)

// WithName sets the name used in logs, metrics and the RunResult.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRecorder sets the metrics hook.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
