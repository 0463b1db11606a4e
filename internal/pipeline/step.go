package pipeline

import (
	"context"

	"etlgate/internal/config"
)

// Step is a named unit of work in one phase.
type Step interface {
	Name() string
	Phase() Phase
}

// step is the executor's view of a Step: it threads the working dataset.
type step[D any] interface {
	Step
	exec(ctx context.Context, d D) (D, error)
}

// ExtractFunc produces a dataset from its parameters.
type ExtractFunc[D any] func(ctx context.Context, params config.Options) (D, error)

// TransformFunc consumes a dataset and returns the next one.
type TransformFunc[D any] func(ctx context.Context, d D) (D, error)

// LoadFunc persists a dataset somewhere.
type LoadFunc[D any] func(ctx context.Context, d D, params config.Options) error

// ExtractStep produces the working dataset. Its output replaces whatever an
// earlier extract step produced.
type ExtractStep[D any] struct {
	StepName string
	Action   ExtractFunc[D]
	Params   config.Options
}

func (s ExtractStep[D]) Name() string { return s.StepName }
func (s ExtractStep[D]) Phase() Phase { return PhaseExtract }

func (s ExtractStep[D]) exec(ctx context.Context, _ D) (D, error) {
	if s.Action == nil {
		var zero D
		return zero, ErrNilAction
	}
	return s.Action(ctx, s.Params)
}

// TransformStep maps the working dataset to a new one.
type TransformStep[D any] struct {
	StepName string
	Action   TransformFunc[D]
}

func (s TransformStep[D]) Name() string { return s.StepName }
func (s TransformStep[D]) Phase() Phase { return PhaseTransform }

func (s TransformStep[D]) exec(ctx context.Context, d D) (D, error) {
	if s.Action == nil {
		return d, ErrNilAction
	}
	return s.Action(ctx, d)
}

// LoadStep writes the final dataset. It only runs when the quality gate passed.
type LoadStep[D any] struct {
	StepName string
	Action   LoadFunc[D]
	Params   config.Options
}

func (s LoadStep[D]) Name() string { return s.StepName }
func (s LoadStep[D]) Phase() Phase { return PhaseLoad }

func (s LoadStep[D]) exec(ctx context.Context, d D) (D, error) {
	if s.Action == nil {
		return d, ErrNilAction
	}
	return d, s.Action(ctx, d, s.Params)
}
