package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
	"etlgate/internal/pipeline"
	"etlgate/internal/quality"
	"etlgate/internal/quality/rules"
)

// calls records step invocations in order.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, name)
}

func (c *calls) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

func extractConst(c *calls, name string, v int) pipeline.ExtractFunc[int] {
	return func(context.Context, config.Options) (int, error) {
		c.add(name)
		return v, nil
	}
}

func addN(c *calls, name string, n int) pipeline.TransformFunc[int] {
	return func(_ context.Context, d int) (int, error) {
		c.add(name)
		return d + n, nil
	}
}

func loadInto(c *calls, name string, got *[]int) pipeline.LoadFunc[int] {
	return func(_ context.Context, d int, _ config.Options) error {
		c.add(name)
		*got = append(*got, d)
		return nil
	}
}

func checkPositive(name string) quality.Check[int] {
	return quality.NewCheckFunc(name, func(_ context.Context, d int) (quality.Result, error) {
		return quality.Verdict(d > 0, name, "value must be positive", "", nil), nil
	})
}

var errBoom = errors.New("boom")

func TestRunSuccess(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int

	p := pipeline.New[int](pipeline.WithName("ints")).
		AddExtractStep("read", extractConst(c, "read", 1), nil).
		AddTransformStep("plus10", addN(c, "plus10", 10)).
		AddTransformStep("plus100", addN(c, "plus100", 100)).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("first", loadInto(c, "first", &loaded), nil).
		AddLoadStep("second", loadInto(c, "second", &loaded), nil)

	res := p.Run(context.Background())

	require.Equal(t, pipeline.StatusSuccess, res.Status)
	assert.True(t, res.Succeeded())
	assert.Equal(t, pipeline.PhaseUnset, res.FailurePhase)
	assert.Empty(t, res.FailedStep)
	assert.Empty(t, res.Error)
	assert.Equal(t, "ints", res.Pipeline)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, []string{"read", "plus10", "plus100", "first", "second"}, c.names())
	assert.Equal(t, []int{111, 111}, loaded)
	require.Len(t, res.QualityResults, 1)
	assert.True(t, res.QualityResults[0].Passed())

	require.Len(t, res.Steps, 5)
	for i, want := range []pipeline.Phase{
		pipeline.PhaseExtract, pipeline.PhaseTransform, pipeline.PhaseTransform,
		pipeline.PhaseLoad, pipeline.PhaseLoad,
	} {
		assert.Equal(t, want, res.Steps[i].Phase)
		assert.Empty(t, res.Steps[i].Error)
	}
}

func TestRunExtractFailureStopsEverything(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int
	checked := 0

	p := pipeline.New[int]().
		AddExtractStep("ok", extractConst(c, "ok", 1), nil).
		AddExtractStep("bad", func(context.Context, config.Options) (int, error) {
			c.add("bad")
			return 0, errBoom
		}, nil).
		AddExtractStep("never", extractConst(c, "never", 2), nil).
		AddTransformStep("t", addN(c, "t", 1)).
		AddQualityCheck(quality.NewCheckFunc("counted", func(context.Context, int) (quality.Result, error) {
			checked++
			return quality.Pass("counted", "", "", nil), nil
		})).
		AddLoadStep("l", loadInto(c, "l", &loaded), nil)

	res := p.Run(context.Background())

	assert.Equal(t, pipeline.StatusFailed, res.Status)
	assert.Equal(t, pipeline.PhaseExtract, res.FailurePhase)
	assert.Equal(t, "bad", res.FailedStep)
	assert.Equal(t, "boom", res.Error)
	assert.Equal(t, []string{"ok", "bad"}, c.names())
	assert.Zero(t, checked)
	assert.Empty(t, loaded)
	assert.Nil(t, res.QualityResults)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, "boom", res.Steps[1].Error)
}

func TestRunTransformFailure(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int

	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(c, "read", 1), nil).
		AddTransformStep("bad", func(context.Context, int) (int, error) { return 0, errBoom }).
		AddTransformStep("never", addN(c, "never", 1)).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("l", loadInto(c, "l", &loaded), nil)

	res := p.Run(context.Background())

	assert.Equal(t, pipeline.PhaseTransform, res.FailurePhase)
	assert.Equal(t, "bad", res.FailedStep)
	assert.Equal(t, []string{"read"}, c.names())
	assert.Nil(t, res.QualityResults)
	assert.Empty(t, loaded)
}

func TestRunGateVetoBlocksEveryLoad(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int

	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(c, "read", -5), nil).
		AddQualityCheck(checkPositive("positive")).
		AddQualityCheck(quality.NewCheckFunc("always", func(context.Context, int) (quality.Result, error) {
			return quality.Pass("always", "", "", nil), nil
		})).
		AddLoadStep("l1", loadInto(c, "l1", &loaded), nil).
		AddLoadStep("l2", loadInto(c, "l2", &loaded), nil)

	res := p.Run(context.Background())

	assert.Equal(t, pipeline.StatusFailed, res.Status)
	assert.Equal(t, pipeline.PhaseQualityGate, res.FailurePhase)
	assert.Empty(t, res.FailedStep)
	assert.Contains(t, res.Error, "1 of 2")
	assert.Empty(t, loaded)
	assert.Equal(t, []string{"read"}, c.names())
	require.Len(t, res.QualityResults, 2)
	assert.Equal(t, "positive", res.QualityResults[0].Name)
	assert.False(t, res.QualityResults[0].Passed())
	assert.Equal(t, "always", res.QualityResults[1].Name)
	assert.True(t, res.QualityResults[1].Passed())
	assert.Len(t, res.FailedChecks(), 1)
}

func TestRunLoadFailureKeepsQualityResults(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int

	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(c, "read", 3), nil).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("bad", func(context.Context, int, config.Options) error { return errBoom }, nil).
		AddLoadStep("never", loadInto(c, "never", &loaded), nil)

	res := p.Run(context.Background())

	assert.Equal(t, pipeline.PhaseLoad, res.FailurePhase)
	assert.Equal(t, "bad", res.FailedStep)
	require.Len(t, res.QualityResults, 1)
	assert.True(t, res.QualityResults[0].Passed())
	assert.Empty(t, loaded)
}

func TestRunQualityResultsMatchRegistrationRegardlessOfOutcome(t *testing.T) {
	t.Parallel()
	p := pipeline.New[int]().AddExtractStep("read", extractConst(&calls{}, "read", 0), nil)
	names := []string{"a", "b", "c", "d", "e"}
	for i, n := range names {
		n, pass := n, i%2 == 0
		p.AddQualityCheck(quality.NewCheckFunc(n, func(context.Context, int) (quality.Result, error) {
			if n == "d" {
				return quality.Result{}, errBoom
			}
			if n == "e" {
				panic("kaboom")
			}
			return quality.Verdict(pass, n, "", "", nil), nil
		}))
	}

	res := p.Run(context.Background())

	require.Len(t, res.QualityResults, len(names))
	for i, qr := range res.QualityResults {
		assert.Equal(t, names[i], qr.Name)
		assert.True(t, qr.Evaluated())
	}
	assert.Contains(t, res.QualityResults[3].Message, "boom")
	assert.Contains(t, res.QualityResults[4].Message, "kaboom")
	assert.Equal(t, pipeline.PhaseQualityGate, res.FailurePhase)
}

func TestRunLaterExtractOverwrites(t *testing.T) {
	t.Parallel()
	var seen []int
	var loaded []int
	c := &calls{}

	p := pipeline.New[int]().
		AddExtractStep("first", extractConst(c, "first", 1), nil).
		AddExtractStep("second", extractConst(c, "second", 2), nil).
		AddTransformStep("spy", func(_ context.Context, d int) (int, error) {
			seen = append(seen, d)
			return d, nil
		}).
		AddLoadStep("l", loadInto(c, "l", &loaded), nil)

	res := p.Run(context.Background())

	require.True(t, res.Succeeded())
	assert.Equal(t, []int{2}, seen)
	assert.Equal(t, []int{2}, loaded)
}

func TestRunExtractReceivesParams(t *testing.T) {
	t.Parallel()
	var got string
	p := pipeline.New[int]().AddExtractStep("read", func(_ context.Context, params config.Options) (int, error) {
		got = params.String("path", "")
		return 0, nil
	}, config.Options{"path": "in.csv"})

	require.True(t, p.Run(context.Background()).Succeeded())
	assert.Equal(t, "in.csv", got)
}

func TestRunWithoutExtractUsesZeroValue(t *testing.T) {
	t.Parallel()
	var loaded []int
	p := pipeline.New[int]().
		AddTransformStep("plus1", addN(&calls{}, "plus1", 1)).
		AddLoadStep("l", loadInto(&calls{}, "l", &loaded), nil)

	res := p.Run(context.Background())

	require.True(t, res.Succeeded())
	assert.Equal(t, []int{1}, loaded)
}

func TestRunRecoversStepPanics(t *testing.T) {
	t.Parallel()
	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(&calls{}, "read", 1), nil).
		AddTransformStep("explode", func(context.Context, int) (int, error) { panic("kaboom") })

	var res pipeline.RunResult
	require.NotPanics(t, func() { res = p.Run(context.Background()) })

	assert.Equal(t, pipeline.PhaseTransform, res.FailurePhase)
	assert.Equal(t, "explode", res.FailedStep)
	assert.Contains(t, res.Error, pipeline.ErrStepPanicked.Error())
	assert.Contains(t, res.Error, "kaboom")
}

type namelessCheck struct{}

func (namelessCheck) Name() string { panic("name unavailable") }

func (namelessCheck) Evaluate(context.Context, int) (quality.Result, error) {
	return quality.Pass("nameless", "", "", nil), nil
}

func TestRunNeverPanicsOnBrokenChecks(t *testing.T) {
	t.Parallel()

	var c calls
	var loaded []int
	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(&c, "read", 1), nil).
		AddQualityCheck(nil).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("db", loadInto(&c, "db", &loaded), nil)

	var res pipeline.RunResult
	require.NotPanics(t, func() { res = p.Run(context.Background()) })
	require.True(t, res.Succeeded(), res.Error)
	require.Len(t, res.QualityResults, 1)
	assert.Equal(t, []int{1}, loaded)

	p.AddQualityCheck(namelessCheck{})
	require.NotPanics(t, func() { res = p.Run(context.Background()) })
	assert.Equal(t, pipeline.PhaseQualityGate, res.FailurePhase)
	require.Len(t, res.QualityResults, 2)
	assert.Contains(t, res.QualityResults[1].Message, "name unavailable")
	assert.Equal(t, []int{1}, loaded)
}

func TestRunNilActionFailsStep(t *testing.T) {
	t.Parallel()
	res := pipeline.New[int]().AddLoadStep("nothing", nil, nil).Run(context.Background())

	assert.Equal(t, pipeline.PhaseLoad, res.FailurePhase)
	assert.Equal(t, pipeline.ErrNilAction.Error(), res.Error)
}

func TestRunEmptyPipelineSucceeds(t *testing.T) {
	t.Parallel()
	res := pipeline.New[int]().Run(context.Background())
	assert.True(t, res.Succeeded())
	assert.Empty(t, res.QualityResults)
	assert.Empty(t, res.Steps)
}

func TestRunDurationUsesClock(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	tick := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p := pipeline.New[int](pipeline.WithClock(clock)).
		AddExtractStep("read", extractConst(&calls{}, "read", 1), nil)
	res := p.Run(context.Background())

	// start=1s, step began=2s, step ended=3s, run ended=4s
	assert.Equal(t, base.Add(time.Second), res.StartedAt)
	assert.Equal(t, time.Second, res.Steps[0].Duration)
	assert.Equal(t, 3*time.Second, res.Duration)
	assert.InDelta(t, 3.0, res.DurationSeconds(), 1e-9)
}

func TestRunIsRepeatable(t *testing.T) {
	t.Parallel()
	p := pipeline.New[*dataset.Frame]().
		AddExtractStep("read", func(context.Context, config.Options) (*dataset.Frame, error) {
			return dataset.FromRecords([]string{"a"}, []dataset.Record{{"a": 1}, {"a": 1}, {"a": 3}}), nil
		}, nil).
		AddQualityCheck(rules.NewCompletion([]string{"a"}, 0)).
		AddQualityCheck(rules.NewUniqueness("a"))

	first := p.Run(context.Background())
	second := p.Run(context.Background())

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.FailurePhase, second.FailurePhase)
	assert.Equal(t, first.QualityResults, second.QualityResults)
}

func TestRunCompletionVetoScenario(t *testing.T) {
	t.Parallel()
	loads := 0

	p := pipeline.New[*dataset.Frame]().
		AddExtractStep("extract", func(context.Context, config.Options) (*dataset.Frame, error) {
			return dataset.FromRecords([]string{"a"}, []dataset.Record{{"a": 1}, {"a": 2}, {"a": nil}}), nil
		}, nil).
		AddTransformStep("identity", func(_ context.Context, f *dataset.Frame) (*dataset.Frame, error) {
			return f, nil
		}).
		AddQualityCheck(rules.NewCompletion([]string{"a"}, 0)).
		AddLoadStep("load", func(context.Context, *dataset.Frame, config.Options) error {
			loads++
			return nil
		}, nil)

	res := p.Run(context.Background())

	assert.Equal(t, pipeline.StatusFailed, res.Status)
	assert.Equal(t, pipeline.PhaseQualityGate, res.FailurePhase)
	require.Len(t, res.QualityResults, 1)
	assert.Equal(t, "Completion Rule", res.QualityResults[0].Name)
	assert.False(t, res.QualityResults[0].Passed())
	assert.Zero(t, loads)
}

func TestTrackedCheckInsidePipeline(t *testing.T) {
	t.Parallel()
	tracked := quality.Track[int](checkPositive("positive"))
	assert.False(t, tracked.Result().Evaluated())

	p := pipeline.New[int]().
		AddExtractStep("read", extractConst(&calls{}, "read", 4), nil).
		AddQualityCheck(tracked)
	require.True(t, p.Run(context.Background()).Succeeded())

	assert.True(t, tracked.Result().Passed())
}

type recorder struct {
	steps  []pipeline.StepResult
	checks []quality.Result
	runs   []pipeline.RunResult
}

func (r *recorder) RecordStep(_ string, s pipeline.StepResult) { r.steps = append(r.steps, s) }
func (r *recorder) RecordCheck(_ string, q quality.Result)     { r.checks = append(r.checks, q) }
func (r *recorder) RecordRun(res pipeline.RunResult)           { r.runs = append(r.runs, res) }

func TestRunNotifiesRecorder(t *testing.T) {
	t.Parallel()
	rec := &recorder{}
	var loaded []int
	p := pipeline.New[int](pipeline.WithRecorder(rec)).
		AddExtractStep("read", extractConst(&calls{}, "read", 1), nil).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("l", loadInto(&calls{}, "l", &loaded), nil)

	res := p.Run(context.Background())

	assert.Len(t, rec.steps, 2)
	assert.Len(t, rec.checks, 1)
	require.Len(t, rec.runs, 1)
	assert.Equal(t, res.RunID, rec.runs[0].RunID)
	assert.Equal(t, res.Duration, rec.runs[0].Duration)
}

func TestStepsInExecutionOrder(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int
	// Registered out of phase order on purpose.
	p := pipeline.New[int]().
		AddLoadStep("l", loadInto(c, "l", &loaded), nil).
		AddTransformStep("t", addN(c, "t", 1)).
		AddExtractStep("e", extractConst(c, "e", 1), nil)

	var names []string
	for _, s := range p.Steps() {
		names = append(names, string(s.Phase())+":"+s.Name())
	}
	assert.Equal(t, []string{"extract:e", "transform:t", "load:l"}, names)

	require.True(t, p.Run(context.Background()).Succeeded())
	assert.Equal(t, []string{"e", "t", "l"}, c.names())
}

func TestWritePlanListsEveryStep(t *testing.T) {
	t.Parallel()
	c := &calls{}
	var loaded []int
	p := pipeline.New[int](pipeline.WithName("demo")).
		AddExtractStep("read_csv", extractConst(c, "e", 1), nil).
		AddTransformStep("normalize", addN(c, "t", 1)).
		AddQualityCheck(checkPositive("positive")).
		AddLoadStep("to_sqlite", loadInto(c, "l", &loaded), nil)

	var buf bytes.Buffer
	require.NoError(t, p.WritePlan(&buf))
	dot := buf.String()

	assert.True(t, strings.Contains(dot, "digraph"), dot)
	for _, want := range []string{"read_csv", "normalize", "quality gate (1 checks)", "positive", "to_sqlite"} {
		assert.Contains(t, dot, want)
	}
	assert.Empty(t, c.names(), "rendering a plan must not run steps")
}
