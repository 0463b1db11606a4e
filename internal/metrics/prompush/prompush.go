// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// Counters and durations are kept in a private registry and pushed to the
// gateway on Flush. The "job" label is not a metric label here: it becomes
// the Pushgateway grouping key instead.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"etlgate/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec   // etl_step_total
	stepDuration *prometheus.SummaryVec   // etl_step_duration_seconds
	checkCounter *prometheus.CounterVec   // etl_check_total
	runCounter   *prometheus.CounterVec   // etl_run_total
	runDuration  *prometheus.HistogramVec // etl_run_duration_seconds

	recordCounter *prometheus.CounterVec // etl_records_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (usually the pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "etl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions, partitioned by phase, step and status.",
		}, []string{"phase", "step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of pipeline steps in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"phase", "step", "status"}),
		checkCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.CheckTotal,
			Help: "Quality check evaluations, partitioned by check and outcome.",
		}, []string{"check", "outcome"}),
		runCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RunTotal,
			Help: "Finished pipeline runs, partitioned by status and failure phase.",
		}, []string{"status", "failure_phase"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metrics.RunDurationSeconds,
			Help:    "Wall-clock duration of pipeline runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (extracted, loaded, ...).",
		}, []string{"kind"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":   b.stepCounter,
		"step summary":   b.stepDuration,
		"check counter":  b.checkCounter,
		"run counter":    b.runCounter,
		"run histogram":  b.runDuration,
		"record counter": b.recordCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, l metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(l["phase"], l["step"], l["status"]).Add(delta)
		}
	case metrics.CheckTotal:
		if b.checkCounter != nil {
			b.checkCounter.WithLabelValues(l["check"], l["outcome"]).Add(delta)
		}
	case metrics.RunTotal:
		if b.runCounter != nil {
			b.runCounter.WithLabelValues(l["status"], l["failure_phase"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.recordCounter != nil {
			b.recordCounter.WithLabelValues(l["kind"]).Add(delta)
		}
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, l metrics.Labels) {
	switch name {
	case metrics.StepDurationSeconds:
		if b.stepDuration != nil {
			b.stepDuration.WithLabelValues(l["phase"], l["step"], l["status"]).Observe(value)
		}
	case metrics.RunDurationSeconds:
		if b.runDuration != nil {
			b.runDuration.WithLabelValues(l["status"]).Observe(value)
		}
	}
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

var _ metrics.Backend = (*Backend)(nil)
