package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Pipeline decoding tests
// -----------------------------------------------------------------------------
//
// Pipeline files are parsed from inline JSON to keep the tests hermetic.

func TestDecode_FullPipeline(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "vehicles",
	  "extract": [
	    { "name": "read", "kind": "file", "options": { "path": "testdata/in.csv", "format": "csv", "comma": ";", "header_map": { "A": "a" } } }
	  ],
	  "transform": [
	    { "name": "normalize", "kind": "normalize" },
	    { "name": "types", "kind": "coerce", "options": { "layout": "02.01.2006", "types": { "a": "int", "d": "date" } } }
	  ],
	  "quality": [
	    { "kind": "completion", "options": { "columns": ["a"], "threshold": 5 } },
	    { "name": "a in range", "kind": "value_range", "options": { "column": "a", "min": 0 } }
	  ],
	  "load": [
	    { "name": "db", "kind": "sql", "options": { "driver": "sqlite", "dsn": ":memory:", "table": "t", "columns": ["a","d"], "batch_size": 500 } }
	  ],
	  "report": { "path": "out/report.json" }
	}`

	p, err := Decode(strings.NewReader(js))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if p.Job != "vehicles" || p.Report.Path != "out/report.json" {
		t.Fatalf("job/report = %q/%q", p.Job, p.Report.Path)
	}
	if len(p.Extract) != 1 || p.Extract[0].Kind != "file" {
		t.Fatalf("extract decoded = %#v", p.Extract)
	}
	ex := p.Extract[0].Options
	if ex.String("path", "") != "testdata/in.csv" || ex.Rune("comma", ',') != ';' {
		t.Fatalf("extract options = %#v", ex)
	}
	if hm := ex.StringMap("header_map"); hm["A"] != "a" {
		t.Fatalf("header_map = %#v", hm)
	}

	if len(p.Transform) != 2 || p.Transform[0].Name != "normalize" {
		t.Fatalf("transform decoded = %#v", p.Transform)
	}
	// A step without options still gets a usable, empty bag.
	if p.Transform[0].Options == nil {
		t.Fatal("normalize options should decode to an empty map")
	}
	if tt := p.Transform[1].Options.StringMap("types"); tt["a"] != "int" || tt["d"] != "date" {
		t.Fatalf("coerce.types = %#v", tt)
	}

	if len(p.Quality) != 2 || p.Quality[0].Name != "" || p.Quality[1].Name != "a in range" {
		t.Fatalf("quality decoded = %#v", p.Quality)
	}
	if got := p.Quality[0].Options.Float("threshold", -1); got != 5 {
		t.Fatalf("threshold = %v, want 5", got)
	}

	db := p.Load[0].Options
	if !reflect.DeepEqual(db.StringSlice("columns"), []string{"a", "d"}) || db.Int("batch_size", 0) != 500 {
		t.Fatalf("load options = %#v", db)
	}
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(`{"job":"x","sources":[]}`))
	if err == nil || !strings.Contains(err.Error(), "sources") {
		t.Fatalf("Decode err = %v, want unknown field error", err)
	}
}

func TestLoad_ReadsFileAndWrapsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	if err := os.WriteFile(path, []byte(`{"job":"from-file"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "from-file" {
		t.Fatalf("job = %q", p.Job)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil || !strings.HasPrefix(err.Error(), "config: open") {
		t.Fatalf("Load(missing) err = %v", err)
	}
}

func TestOptions_Scalars(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":     "hello",
		"b":     true,
		"n":     float64(42),
		"i":     7,
		"num":   json.Number("3.25"),
		"comma": ";",
		"multi": "\u017e;",
		"empty": "",
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"String", o.String("s", "def"), "hello"},
		{"String wrong type", o.String("b", "def"), "def"},
		{"String missing", o.String("missing", "def"), "def"},
		{"Bool", o.Bool("b", false), true},
		{"Bool missing", o.Bool("missing", true), true},
		{"Int float64", o.Int("n", 0), 42},
		{"Int int", o.Int("i", 0), 7},
		{"Int json.Number", o.Int("num", 0), 3},
		{"Int wrong type", o.Int("s", 5), 5},
		{"Float", o.Float("num", 0), 3.25},
		{"Float missing", o.Float("missing", 9), 9.0},
		{"Rune", o.Rune("comma", ','), ';'},
		{"Rune multi-byte", o.Rune("multi", ','), '\u017e'},
		{"Rune empty", o.Rune("empty", 'X'), 'X'},
		{"Has", o.Has("empty"), true},
		{"Has missing", o.Has("missing"), false},
		{"Any missing", o.Any("missing"), nil},
	}
	for _, c := range checks {
		if !reflect.DeepEqual(c.got, c.want) {
			t.Errorf("%s = %#v, want %#v", c.name, c.got, c.want)
		}
	}
	if _, ok := o.FloatPtr("s"); ok {
		t.Error("FloatPtr accepted a string")
	}
}

func TestOptions_Collections(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":      map[string]any{"A": "a", "B": "b", "X": 1.0},
		"any":    []any{"alpha", 3.0, "beta"},
		"typed":  []string{"gamma"},
		"nested": map[string]any{"k": "v", "list": []any{"x"}},
		"s":      "nope",
	}

	if got := o.StringMap("m"); !reflect.DeepEqual(got, map[string]string{"A": "a", "B": "b"}) {
		t.Errorf("StringMap = %#v", got)
	}
	if got := o.StringMap("missing"); got == nil || len(got) != 0 {
		t.Errorf("StringMap(missing) = %#v, want empty non-nil", got)
	}
	if got := o.StringSlice("any"); !reflect.DeepEqual(got, []string{"alpha", "beta"}) {
		t.Errorf("StringSlice(any) = %#v", got)
	}
	if got := o.StringSlice("typed"); !reflect.DeepEqual(got, []string{"gamma"}) {
		t.Errorf("StringSlice(typed) = %#v", got)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Errorf("StringSlice(missing) = %#v, want nil", got)
	}
	if got := o.Options("nested").String("k", ""); got != "v" {
		t.Errorf("Options(nested).k = %q", got)
	}
	if got := o.Options("s"); got == nil || len(got) != 0 {
		t.Errorf("Options(s) = %#v, want empty", got)
	}

	var into struct {
		K    string   `json:"k"`
		List []string `json:"list"`
	}
	found, err := o.DecodeInto("nested", &into)
	if !found || err != nil || into.K != "v" || len(into.List) != 1 {
		t.Errorf("DecodeInto = %v, %v, %#v", found, err, into)
	}
	if found, err := o.DecodeInto("missing", &into); found || err != nil {
		t.Errorf("DecodeInto(missing) = %v, %v", found, err)
	}
	if _, err := o.DecodeInto("s", &into); err == nil {
		t.Error("DecodeInto(s) decoded a string into a struct")
	}
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var w struct {
		A Options `json:"a"`
		B Options `json:"b"`
	}
	if err := json.Unmarshal([]byte(`{"a": null, "b": {"n": 3, "ok": true}}`), &w); err != nil {
		t.Fatal(err)
	}
	if w.A == nil || len(w.A) != 0 {
		t.Errorf("null options = %#v, want empty", w.A)
	}
	if w.B.Int("n", 0) != 3 || !w.B.Bool("ok", false) {
		t.Errorf("options = %#v", w.B)
	}
	if err := json.Unmarshal([]byte(`{"a": [1]}`), &w); err == nil {
		t.Error("array options decoded without error")
	}
}
