package file

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

func sampleFrame() *dataset.Frame {
	return dataset.FromRecords([]string{"id", "name", "day", "score"}, []dataset.Record{
		{"id": int64(1), "name": "Škoda, a.s.", "day": time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC), "score": 1.5},
		{"id": int64(2), "name": nil, "day": nil, "score": math.NaN()},
	})
}

func TestWrite_CSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Write(sampleFrame(), Options{Path: path, Header: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "id,name,day,score\n1,\"Škoda, a.s.\",2025-11-09,1.5\n2,,,\n"
	if string(b) != want {
		t.Fatalf("csv =\n%q\nwant\n%q", b, want)
	}
}

func TestWrite_CSVColumnsAndComma(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	opt := FromConfigOptions(config.Options{"path": path, "columns": []any{"score", "id"}, "comma": ";", "header": false})
	if err := Write(sampleFrame(), opt); err != nil {
		t.Fatalf("Write: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "1.5;1\n;2\n" {
		t.Fatalf("csv = %q", b)
	}
}

func TestWrite_NDJSONGzip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "out.ndjson.gz")
	if err := Write(sampleFrame(), Options{Path: path, Format: FormatNDJSON}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fh, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	zr, err := gzip.NewReader(fh)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}

	var lines []map[string]any
	sc := bufio.NewScanner(zr)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[0]["day"] != "2025-11-09" || lines[0]["id"] != float64(1) {
		t.Errorf("line 0 = %v", lines[0])
	}
	if v, ok := lines[1]["score"]; !ok || v != nil {
		t.Errorf("NaN should be written as null, got %v (present=%v)", v, ok)
	}
}

func TestWrite_Errors(t *testing.T) {
	t.Parallel()

	if err := Write(sampleFrame(), Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}
	err := Write(sampleFrame(), Options{Path: filepath.Join(t.TempDir(), "x"), Format: "xml"})
	if err == nil || !strings.Contains(err.Error(), `unsupported format "xml"`) {
		t.Fatalf("err = %v", err)
	}
}
