package json

import (
	"encoding/json"
	"strings"
	"testing"

	"etlgate/internal/config"
)

func TestFromConfigOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opt    config.Options
		arrays bool
		ndjson bool
	}{
		{"defaults", config.Options{}, true, false},
		{"arrays off", config.Options{"allow_arrays": false}, false, false},
		{"ndjson", config.Options{"ndjson": true}, true, true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := FromConfigOptions(tc.opt)
			if got.AllowArrays != tc.arrays || got.NDJSON != tc.ndjson {
				t.Fatalf("FromConfigOptions(%#v) = %+v", tc.opt, got)
			}
		})
	}
}

/*
TestReadFrame_Layouts verifies that a top-level array and an NDJSON stream
of the same records produce the same frame, with numbers kept as json.Number
and null mapped to nil.
*/
func TestReadFrame_Layouts(t *testing.T) {
	t.Parallel()

	inputs := map[string]string{
		"array":  "\uFEFF [ {\"id\": 1, \"name\": \"a\"}, {\"id\": 12345678901234567890, \"name\": null} ]\n",
		"ndjson": "{\"id\": 1, \"name\": \"a\"}\n\n{\"id\": 12345678901234567890, \"name\": null}\n",
	}
	for name, in := range inputs {
		in := in
		t.Run(name, func(t *testing.T) {
			f, err := ReadFrame(strings.NewReader(in), FromConfigOptions(nil))
			if err != nil {
				t.Fatalf("ReadFrame: %v", err)
			}
			if f.Len() != 2 {
				t.Fatalf("rows = %d; want 2", f.Len())
			}
			if got := strings.Join(f.Columns, ","); got != "id,name" {
				t.Fatalf("columns = %q", got)
			}
			if got := f.Rows[1]["id"]; got != json.Number("12345678901234567890") {
				t.Errorf("id = %#v; want exact json.Number", got)
			}
			if v, ok := f.Rows[1]["name"]; !ok || v != nil {
				t.Errorf("name = %#v (present=%v); want nil", v, ok)
			}
		})
	}
}

func TestReadFrame_FixedColumns(t *testing.T) {
	t.Parallel()

	f, err := ReadFrame(strings.NewReader(`{"b":1,"a":2}`), Options{Columns: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if got := strings.Join(f.Columns, ","); got != "a,b,c" {
		t.Fatalf("columns = %q", got)
	}
}

func TestReadFrame_Empty(t *testing.T) {
	t.Parallel()

	f, err := ReadFrame(strings.NewReader(" \n\t"), FromConfigOptions(nil))
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Len() != 0 {
		t.Fatalf("rows = %d; want 0", f.Len())
	}
}

func TestReadFrame_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opt  Options
		want string
	}{
		{"array not allowed", `[{"a":1}]`, Options{}, "arrays are not allowed"},
		{"ndjson rejects array", `[{"a":1}]`, Options{AllowArrays: true, NDJSON: true}, "arrays are not allowed"},
		{"non-object element", `[{"a":1}, 2]`, Options{AllowArrays: true}, "element 1 in array is not an object"},
		{"trailing content", `[{"a":1}] {"b":2}`, Options{AllowArrays: true}, "after top-level array"},
		{"primitive in stream", "{\"a\":1}\n42\n", Options{}, "value 2 is"},
		{"syntax error", `{"a":`, Options{}, "value 1"},
		{"bad leading byte", "é", Options{}, "unexpected character"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadFrame(strings.NewReader(tc.in), tc.opt)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v; want substring %q", err, tc.want)
			}
		})
	}
}
