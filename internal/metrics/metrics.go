// Package metrics is a small, backend-agnostic abstraction for recording
// operational metrics from pipeline runs.
//
// A single global Backend receives counters and duration observations. It
// defaults to a no-op so instrumentation is always safe to call; concrete
// systems (Prometheus Pushgateway, DogStatsD) live in subpackages and are
// installed with SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by this package.
const (
	StepTotal           = "etl_step_total"
	StepDurationSeconds = "etl_step_duration_seconds"
	CheckTotal          = "etl_check_total"
	RunTotal            = "etl_run_total"
	RunDurationSeconds  = "etl_run_duration_seconds"
	RecordsTotal        = "etl_records_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// recordStep counts one step execution and observes its duration.
func recordStep(job, phase, step string, ok bool, d time.Duration) {
	b := current()
	lbls := Labels{
		"job":    job,
		"phase":  phase,
		"step":   step,
		"status": status(ok),
	}
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordCheck counts one quality check evaluation by outcome.
func RecordCheck(job, check string, passed bool) {
	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	current().IncCounter(CheckTotal, 1, Labels{
		"job":     job,
		"check":   check,
		"outcome": outcome,
	})
}

// RecordRun counts one finished run and observes its wall-clock time.
// failurePhase is empty for successful runs.
func RecordRun(job, failurePhase string, ok bool, d time.Duration) {
	b := current()
	lbls := Labels{"job": job, "status": status(ok), "failure_phase": failurePhase}
	b.IncCounter(RunTotal, 1, lbls)
	b.ObserveHistogram(RunDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments a record-level counter for the given job and kind,
// e.g. "extracted" or "loaded".
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
