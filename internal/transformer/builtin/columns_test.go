package builtin

import (
	"reflect"
	"strings"
	"testing"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

func TestRequire(t *testing.T) {
	t.Parallel()

	in := dataset.FromRecords([]string{"a", "b"}, []dataset.Record{
		{"a": 1, "b": "x"},
		{"a": nil, "b": "x"},
		{"a": 2, "b": ""},
		{"b": "x"},
		{"a": 3, "b": "y"},
	})
	out, err := Require{Fields: []string{"a", "b"}}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := []dataset.Record{{"a": 1, "b": "x"}, {"a": 3, "b": "y"}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Fatalf("got %#v; want %#v", out.Rows, want)
	}
	if in.Len() != 5 {
		t.Fatalf("input shrank to %d rows", in.Len())
	}
	if _, err := NewRequire(config.Options{}); err == nil {
		t.Fatal("expected error without fields")
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	in := dataset.FromRecords([]string{"Datum od", "Kód", "id"}, []dataset.Record{
		{"Datum od": "2020", "Kód": "X", "id": 1},
	})
	out, err := Rename{Map: map[string]string{"Kód": "code"}, SnakeASCII: true}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "datum_od,code,id" {
		t.Fatalf("columns = %q", got)
	}
	want := dataset.Record{"datum_od": "2020", "code": "X", "id": 1}
	if !reflect.DeepEqual(out.Rows[0], want) {
		t.Fatalf("row = %#v", out.Rows[0])
	}
	if in.Columns[0] != "Datum od" || in.Rows[0]["Kód"] != "X" {
		t.Fatal("input modified")
	}
}

func TestRenameCollisions(t *testing.T) {
	t.Parallel()

	in := dataset.FromRecords([]string{"A b", "a-b"}, []dataset.Record{{"A b": 1, "a-b": 2}})
	out, err := NewRename(config.Options{"snake_ascii": true}).Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "a_b,a_b_2" {
		t.Fatalf("columns = %q", got)
	}
	if out.Rows[0]["a_b_2"] != 2 {
		t.Fatalf("row = %#v", out.Rows[0])
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	in := dataset.FromRecords([]string{"a", "b", "c"}, []dataset.Record{{"a": 1, "b": 2, "c": 3}})
	out, err := Select{Columns: []string{"c", "a", "z"}}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := strings.Join(out.Columns, ","); got != "c,a,z" {
		t.Fatalf("columns = %q", got)
	}
	want := dataset.Record{"c": 3, "a": 1, "z": nil}
	if !reflect.DeepEqual(out.Rows[0], want) {
		t.Fatalf("row = %#v", out.Rows[0])
	}
	if _, err := NewSelect(nil); err == nil {
		t.Fatal("expected error without columns")
	}
}

func TestNewByKind(t *testing.T) {
	t.Parallel()

	for _, kind := range Kinds() {
		opts := config.Options{"keys": []any{"a"}, "fields": []any{"a"}, "columns": []any{"a"}}
		tr, err := New(kind, opts)
		if err != nil || tr == nil {
			t.Errorf("New(%q) = %v, %v", kind, tr, err)
		}
	}
	if _, err := New("pivot", nil); err == nil || !strings.Contains(err.Error(), "unknown transform kind") {
		t.Fatalf("err = %v", err)
	}
	if got := strings.Join(Kinds(), ","); got != "coerce,dedup,normalize,rename,require,select" {
		t.Fatalf("Kinds() = %q", got)
	}
}
