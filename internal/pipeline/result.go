package pipeline

import (
	"time"

	"etlgate/internal/quality"
)

// StepResult records one executed step.
type StepResult struct {
	Name     string
	Phase    Phase
	Duration time.Duration
	Error    string // empty on success
}

// RunResult is the report of a single Run.
type RunResult struct {
	RunID    string
	Pipeline string
	Status   Status

	// FailurePhase, FailedStep and Error are empty on success. A gate veto
	// sets FailurePhase to PhaseQualityGate and leaves FailedStep empty.
	FailurePhase Phase
	FailedStep   string
	Error        string

	StartedAt time.Time
	Duration  time.Duration

	// QualityResults has one entry per registered check, in registration
	// order, whenever the run reached the gate. It is nil otherwise.
	QualityResults []quality.Result

	// Steps lists every step that was started, in execution order.
	Steps []StepResult
}

// Succeeded reports whether the run finished with StatusSuccess.
func (r RunResult) Succeeded() bool { return r.Status == StatusSuccess }

// DurationSeconds returns the wall-clock run time in seconds.
func (r RunResult) DurationSeconds() float64 { return r.Duration.Seconds() }

// FailedChecks returns the quality results that did not pass.
func (r RunResult) FailedChecks() []quality.Result {
	return quality.Report{Results: r.QualityResults}.Failed()
}
