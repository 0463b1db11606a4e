package pipeline

import "etlgate/internal/quality"

// Recorder observes a run. Implementations must be cheap and must not block;
// they are called inline from Run.
type Recorder interface {
	RecordStep(pipeline string, s StepResult)
	RecordCheck(pipeline string, r quality.Result)
	RecordRun(r RunResult)
}

type nopRecorder struct{}

func (nopRecorder) RecordStep(string, StepResult)      {}
func (nopRecorder) RecordCheck(string, quality.Result) {}
func (nopRecorder) RecordRun(RunResult)                {}
