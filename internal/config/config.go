// Package config defines the JSON pipeline file: which extract steps produce
// the dataset, which transforms reshape it, which quality checks gate it, and
// which load steps persist it.
//
// Every step has a name, a kind and a free-form options bag whose shape is
// defined by the kind's implementation. Decoding uses the standard library;
// Options provides light typed access to the bag.
//
// Example (trimmed):
//
//	{
//	  "job": "vehicles",
//	  "extract":   [{ "name": "read", "kind": "file", "options": { "path": "in.csv", "format": "csv" } }],
//	  "transform": [{ "name": "normalize", "kind": "normalize" }],
//	  "quality":   [{ "kind": "completion", "options": { "columns": ["id"], "threshold": 0 } }],
//	  "load":      [{ "name": "db", "kind": "sql", "options": { "driver": "sqlite", "dsn": "out.db", "table": "t" } }],
//	  "report":    { "path": "report.json" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job names the pipeline in logs, metrics and run reports.
	Job string `json:"job"`

	Extract   []Step `json:"extract"`
	Transform []Step `json:"transform"`
	Quality   []Step `json:"quality"`
	Load      []Step `json:"load"`

	Report Report `json:"report"`
}

// Step configures one extract, transform or load step, or one quality check.
type Step struct {
	// Name identifies the step in reports. Quality checks may leave it empty
	// to use the rule's default name.
	Name string `json:"name"`

	// Kind selects the implementation, e.g. "file", "coerce", "completion",
	// "sql".
	Kind string `json:"kind"`

	// Options is interpreted by the selected implementation.
	Options Options `json:"options"`
}

// Report controls where the run report is written. An empty path disables it.
type Report struct {
	Path string `json:"path"`
}

// Load reads and decodes the pipeline file at path.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// Decode reads one pipeline document from r. Unknown fields are rejected so
// typos surface early.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline: %w", err)
	}
	for _, steps := range [][]Step{p.Extract, p.Transform, p.Quality, p.Load} {
		for i := range steps {
			if steps[i].Options == nil {
				steps[i].Options = Options{}
			}
		}
	}
	return p, nil
}

// Options is the free-form bag of a step. Values are whatever encoding/json
// produced (string, bool, float64, []any, map[string]any); the accessors do a
// small amount of coercion and fall back to the caller's default otherwise.
// Reading from a nil Options is fine.
type Options map[string]any

// get returns o[key] when it holds a T.
func get[T any](o Options, key string) (T, bool) {
	v, ok := o[key].(T)
	return v, ok
}

// String returns the string under key, or def.
func (o Options) String(key, def string) string {
	if s, ok := get[string](o, key); ok {
		return s
	}
	return def
}

// Bool returns the bool under key, or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := get[bool](o, key); ok {
		return b
	}
	return def
}

// Int returns the number under key truncated to int, or def.
func (o Options) Int(key string, def int) int {
	if f, ok := o.FloatPtr(key); ok {
		return int(*f)
	}
	return def
}

// Rune returns the first rune of the string under key, or def when it is
// missing or empty. Used for single-character settings like delimiters.
func (o Options) Rune(key string, def rune) rune {
	for _, r := range o.String(key, "") {
		return r
	}
	return def
}

// StringMap returns the string-valued entries of the object under key. The
// result is never nil.
func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	m, _ := get[map[string]any](o, key)
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// StringSlice returns the strings of the array under key, skipping other
// element types. A missing key yields nil.
func (o Options) StringSlice(key string) []string {
	switch vv := o[key].(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Any returns the raw value under key.
func (o Options) Any(key string) any { return o[key] }

// Has reports whether key is present, even if its value is null.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Float returns the number under key, or def.
func (o Options) Float(key string, def float64) float64 {
	if f, ok := o.FloatPtr(key); ok {
		return *f
	}
	return def
}

// FloatPtr returns the number under key; false when it is missing or not
// numeric. Optional bounds use it to tell 0 from unset.
func (o Options) FloatPtr(key string) (*float64, bool) {
	var f float64
	switch n := o[key].(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return nil, false
		}
		f = x
	default:
		return nil, false
	}
	return &f, true
}

// Options returns the nested object under key, or an empty bag.
func (o Options) Options(key string) Options {
	switch m := o[key].(type) {
	case map[string]any:
		return Options(m)
	case Options:
		return m
	}
	return Options{}
}

// DecodeInto round-trips the value under key through JSON into out, which is
// how typed blocks such as a schema contract are read. A missing or null key
// leaves out untouched and reports false.
func (o Options) DecodeInto(key string, out any) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(b, out)
	}
	if err != nil {
		return true, fmt.Errorf("options %q: %w", key, err)
	}
	return true, nil
}

// UnmarshalJSON decodes an object; null yields an empty bag.
func (o *Options) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	*o = m
	return nil
}
