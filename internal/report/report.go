// Package report renders a pipeline.RunResult as a JSON document or as a
// short human-readable summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"etlgate/internal/pipeline"
	"etlgate/internal/quality"
)

// Document is the JSON shape of a run report.
type Document struct {
	RunID           string           `json:"run_id"`
	Pipeline        string           `json:"pipeline"`
	Status          string           `json:"status"`
	FailurePhase    string           `json:"failure_phase,omitempty"`
	FailedStep      string           `json:"failed_step,omitempty"`
	Error           string           `json:"error,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	QualityResults  []quality.Result `json:"quality_results"`
	Steps           []Step           `json:"steps"`
}

// Step is the JSON shape of one executed step.
type Step struct {
	Name            string  `json:"name"`
	Phase           string  `json:"phase"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
}

// FromResult converts r into its report document. Slices are never nil so
// the JSON always carries arrays.
func FromResult(r pipeline.RunResult) Document {
	d := Document{
		RunID:           r.RunID,
		Pipeline:        r.Pipeline,
		Status:          string(r.Status),
		FailurePhase:    string(r.FailurePhase),
		FailedStep:      r.FailedStep,
		Error:           r.Error,
		StartedAt:       r.StartedAt.UTC(),
		DurationSeconds: r.DurationSeconds(),
		QualityResults:  r.QualityResults,
		Steps:           make([]Step, 0, len(r.Steps)),
	}
	if d.QualityResults == nil {
		d.QualityResults = []quality.Result{}
	}
	for _, s := range r.Steps {
		d.Steps = append(d.Steps, Step{
			Name:            s.Name,
			Phase:           string(s.Phase),
			DurationSeconds: s.Duration.Seconds(),
			Error:           s.Error,
		})
	}
	return d
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r pipeline.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromResult(r)); err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	return nil
}

// WriteFile writes r to path atomically (temp file + rename), creating parent
// directories as needed.
func WriteFile(path string, r pipeline.RunResult) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("report: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("report: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("report: rename: %w", err)
	}
	return nil
}

// Summary returns a short multi-line description: one header line, then one
// line per quality check.
func Summary(r pipeline.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s in %.3fs", r.Pipeline, r.Status, r.DurationSeconds())
	if !r.Succeeded() {
		fmt.Fprintf(&b, " (phase=%s", r.FailurePhase)
		if r.FailedStep != "" {
			fmt.Fprintf(&b, " step=%s", r.FailedStep)
		}
		fmt.Fprintf(&b, "): %s", r.Error)
	}
	for _, q := range r.QualityResults {
		mark := "PASS"
		if !q.Passed() {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "\n  [%s] %s: %s", mark, q.Name, q.Message)
	}
	return b.String()
}
