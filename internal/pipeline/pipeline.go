package pipeline

import (
	"sync"

	"etlgate/internal/config"
	"etlgate/internal/quality"
)

// Pipeline holds ordered extract, transform and load steps plus the quality
// checks that gate loading. Registration is append-only. A Pipeline is safe
// for concurrent use; each Run works on a snapshot of the registered steps.
type Pipeline[D any] struct {
	opts options

	mu        sync.Mutex
	extract   []step[D]
	transform []step[D]
	load      []step[D]
	checks    []quality.Check[D]
}

// New returns an empty pipeline.
func New[D any](opts ...Option) *Pipeline[D] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline[D]{opts: o}
}

// Name returns the pipeline name.
func (p *Pipeline[D]) Name() string { return p.opts.name }

// AddExtractStep appends an extract step run with params.
func (p *Pipeline[D]) AddExtractStep(name string, action ExtractFunc[D], params config.Options) *Pipeline[D] {
	return p.AddStep(ExtractStep[D]{StepName: name, Action: action, Params: params})
}

// AddTransformStep appends a transform step.
func (p *Pipeline[D]) AddTransformStep(name string, action TransformFunc[D]) *Pipeline[D] {
	return p.AddStep(TransformStep[D]{StepName: name, Action: action})
}

// AddLoadStep appends a load step run with params.
func (p *Pipeline[D]) AddLoadStep(name string, action LoadFunc[D], params config.Options) *Pipeline[D] {
	return p.AddStep(LoadStep[D]{StepName: name, Action: action, Params: params})
}

// AddStep appends s to the list of its phase. s must be one of ExtractStep,
// TransformStep or LoadStep for the pipeline's dataset type; anything else is
// ignored.
func (p *Pipeline[D]) AddStep(s Step) *Pipeline[D] {
	st, ok := s.(step[D])
	if !ok {
		if s == nil {
			return p
		}
		p.opts.logger.Warn().Str("pipeline", p.opts.name).Str("step", s.Name()).
			Msg("ignoring step of foreign type")
		return p
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch st.Phase() {
	case PhaseExtract:
		p.extract = append(p.extract, st)
	case PhaseTransform:
		p.transform = append(p.transform, st)
	case PhaseLoad:
		p.load = append(p.load, st)
	}
	return p
}

// AddQualityCheck appends a check to the gate. A nil check is ignored.
func (p *Pipeline[D]) AddQualityCheck(c quality.Check[D]) *Pipeline[D] {
	if c == nil {
		return p
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks = append(p.checks, c)
	return p
}

// Steps returns the registered steps in execution order.
func (p *Pipeline[D]) Steps() []Step {
	pl := p.snapshot()
	out := make([]Step, 0, len(pl.extract)+len(pl.transform)+len(pl.load))
	for _, group := range [][]step[D]{pl.extract, pl.transform, pl.load} {
		for _, s := range group {
			out = append(out, s)
		}
	}
	return out
}

// Checks returns the registered quality checks in evaluation order.
func (p *Pipeline[D]) Checks() []quality.Check[D] {
	return p.snapshot().gate.Checks()
}

// plan is an immutable copy of the registered steps taken at Run start.
type plan[D any] struct {
	extract   []step[D]
	transform []step[D]
	load      []step[D]
	gate      *quality.Gate[D]
}

func (p *Pipeline[D]) snapshot() plan[D] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return plan[D]{
		extract:   append([]step[D](nil), p.extract...),
		transform: append([]step[D](nil), p.transform...),
		load:      append([]step[D](nil), p.load...),
		gate:      quality.NewGate(p.checks...),
	}
}
