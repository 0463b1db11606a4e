package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"etlgate/internal/pipeline"
	"etlgate/internal/quality"
)

func sampleFailed() pipeline.RunResult {
	return pipeline.RunResult{
		RunID:        "run-1",
		Pipeline:     "vehicles",
		Status:       pipeline.StatusFailed,
		FailurePhase: pipeline.PhaseQualityGate,
		Error:        "1 of 2 quality check(s) failed",
		StartedAt:    time.Date(2025, 11, 9, 10, 0, 0, 0, time.UTC),
		Duration:     1500 * time.Millisecond,
		QualityResults: []quality.Result{
			quality.Pass("Completion Rule", "", "all columns meet the completion threshold", nil),
			quality.Fail("Outlier Rule", "", "outliers found in: weight (1)", map[string]any{"multiplier": 1.5}),
		},
		Steps: []pipeline.StepResult{
			{Name: "read", Phase: pipeline.PhaseExtract, Duration: time.Second},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleFailed()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got["duration_seconds"] != 1.5 {
		t.Errorf("duration_seconds = %v", got["duration_seconds"])
	}
	if got["status"] != "failed" || got["failure_phase"] != "quality_gate" {
		t.Errorf("status/failure_phase = %v/%v", got["status"], got["failure_phase"])
	}
	if _, ok := got["failed_step"]; ok {
		t.Error("failed_step should be omitted for a gate veto")
	}
	qr, _ := got["quality_results"].([]any)
	if len(qr) != 2 {
		t.Fatalf("quality_results = %v", got["quality_results"])
	}
	if second := qr[1].(map[string]any); second["outcome"] != "failed" {
		t.Errorf("second outcome = %v", second["outcome"])
	}
}

func TestWriteJSON_EmptyArrays(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, pipeline.RunResult{Pipeline: "p", Status: pipeline.StatusFailed}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	for _, want := range []string{`"quality_results": []`, `"steps": []`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output lacks %s:\n%s", want, buf.String())
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	if err := WriteFile(path, sampleFailed()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.RunID != "run-1" || len(d.Steps) != 1 || d.Steps[0].Phase != "extract" {
		t.Fatalf("document = %+v", d)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	got := Summary(sampleFailed())
	want := "vehicles: failed in 1.500s (phase=quality_gate): 1 of 2 quality check(s) failed\n" +
		"  [PASS] Completion Rule: all columns meet the completion threshold\n" +
		"  [FAIL] Outlier Rule: outliers found in: weight (1)"
	if got != want {
		t.Fatalf("Summary:\n%s\nwant:\n%s", got, want)
	}

	ok := pipeline.RunResult{Pipeline: "p", Status: pipeline.StatusSuccess, Duration: 2 * time.Second}
	if got := Summary(ok); got != "p: success in 2.000s" {
		t.Fatalf("Summary(success) = %q", got)
	}
}
