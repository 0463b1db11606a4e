package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Run executes the pipeline once and reports what happened. Extract steps run
// first, each replacing the working dataset; transforms follow; then every
// quality check is evaluated. Load steps run only if all checks passed. The
// first failing step ends the run.
//
// ctx is handed to every step and check. Run itself does not stop between
// steps when ctx is cancelled; a step that honours ctx fails like any other.
func (p *Pipeline[D]) Run(ctx context.Context) (res RunResult) {
	pl := p.snapshot()
	o := p.opts

	start := o.now()
	res = RunResult{
		RunID:     uuid.NewString(),
		Pipeline:  o.name,
		StartedAt: start,
		Steps:     make([]StepResult, 0, len(pl.extract)+len(pl.transform)+len(pl.load)),
	}
	log := o.logger.With().Str("pipeline", o.name).Str("run_id", res.RunID).Logger()
	log.Info().
		Int("extract", len(pl.extract)).
		Int("transform", len(pl.transform)).
		Int("checks", pl.gate.Len()).
		Int("load", len(pl.load)).
		Msg("pipeline started")

	defer func() {
		res.Duration = o.now().Sub(start)
		p.logRun(log, res)
		o.recorder.RecordRun(res)
	}()

	var data D
	var ok bool
	if data, ok = p.runPhase(ctx, log, &res, pl.extract, data); !ok {
		return res
	}
	if data, ok = p.runPhase(ctx, log, &res, pl.transform, data); !ok {
		return res
	}

	report := pl.gate.Evaluate(ctx, data)
	res.QualityResults = report.Results
	for _, qr := range report.Results {
		o.recorder.RecordCheck(o.name, qr)
		ev := log.Debug()
		if !qr.Passed() {
			ev = log.Warn()
		}
		ev.Str("check", qr.Name).Str("outcome", string(qr.Outcome)).Msg(qr.Message)
	}
	if !report.Passed {
		res.Status = StatusFailed
		res.FailurePhase = PhaseQualityGate
		res.Error = fmt.Sprintf("%d of %d quality check(s) failed", len(report.Failed()), len(report.Results))
		return res
	}

	if _, ok = p.runPhase(ctx, log, &res, pl.load, data); !ok {
		return res
	}
	res.Status = StatusSuccess
	return res
}

// runPhase runs steps in order, threading data through them. On the first
// failure it fills the failure fields of res and returns false.
func (p *Pipeline[D]) runPhase(ctx context.Context, log zerolog.Logger, res *RunResult, steps []step[D], data D) (D, bool) {
	for _, s := range steps {
		sl := log.With().Str("phase", string(s.Phase())).Str("step", s.Name()).Logger()
		sl.Info().Msg("step started")

		began := p.opts.now()
		out, err := execStep(ctx, s, data)
		sr := StepResult{Name: s.Name(), Phase: s.Phase(), Duration: p.opts.now().Sub(began)}
		if err != nil {
			sr.Error = err.Error()
		}
		res.Steps = append(res.Steps, sr)
		p.opts.recorder.RecordStep(p.opts.name, sr)

		if err != nil {
			sl.Error().Err(err).Dur("elapsed", sr.Duration).Msg("step failed")
			res.Status = StatusFailed
			res.FailurePhase = s.Phase()
			res.FailedStep = s.Name()
			res.Error = sr.Error
			return data, false
		}
		sl.Info().Dur("elapsed", sr.Duration).Msg("step completed")
		data = out
	}
	return data, true
}

// execStep runs s, turning a panic into an error.
func execStep[D any](ctx context.Context, s step[D], d D) (out D, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = d
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	return s.exec(ctx, d)
}

func (p *Pipeline[D]) logRun(log zerolog.Logger, res RunResult) {
	if res.Succeeded() {
		log.Info().
			Float64("duration_seconds", res.DurationSeconds()).
			Int("checks", len(res.QualityResults)).
			Msg("pipeline completed")
		return
	}
	log.Error().
		Str("failure_phase", res.FailurePhase.String()).
		Str("failed_step", res.FailedStep).
		Str("error", res.Error).
		Float64("duration_seconds", res.DurationSeconds()).
		Msg("pipeline failed")
}
