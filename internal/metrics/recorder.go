package metrics

import (
	"etlgate/internal/pipeline"
	"etlgate/internal/quality"
)

// PipelineRecorder forwards pipeline events to the global backend. It
// implements pipeline.Recorder.
type PipelineRecorder struct{}

// NewPipelineRecorder returns a recorder bound to the global backend.
func NewPipelineRecorder() PipelineRecorder { return PipelineRecorder{} }

// RecordStep implements pipeline.Recorder.
func (PipelineRecorder) RecordStep(job string, s pipeline.StepResult) {
	recordStep(job, string(s.Phase), s.Name, s.Error == "", s.Duration)
}

// RecordCheck implements pipeline.Recorder.
func (PipelineRecorder) RecordCheck(job string, r quality.Result) {
	RecordCheck(job, r.Name, r.Passed())
}

// RecordRun implements pipeline.Recorder.
func (PipelineRecorder) RecordRun(r pipeline.RunResult) {
	RecordRun(r.Pipeline, string(r.FailurePhase), r.Succeeded(), r.Duration)
}

var _ pipeline.Recorder = PipelineRecorder{}
