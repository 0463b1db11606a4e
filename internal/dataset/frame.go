// Package dataset defines the in-memory tabular value that flows between
// pipeline steps: an ordered list of column names plus rows keyed by column.
//
// The pipeline executor never looks inside a Frame. Only collaborators
// (parsers, transformers, quality rules, storage loaders) do, and they treat a
// Frame as immutable input: anything that changes rows works on Clone().
package dataset

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Frame is a rows × named-columns table.
type Frame struct {
	Columns []string
	Rows    []Record
}

// New returns a Frame with the given column order and no rows.
func New(columns ...string) *Frame {
	return &Frame{Columns: append([]string(nil), columns...)}
}

// FromRecords builds a Frame from rows. Column order is the order in which
// keys are first seen, with keys of a single record sorted for determinism.
func FromRecords(columns []string, rows []Record) *Frame {
	f := &Frame{Columns: append([]string(nil), columns...), Rows: rows}
	if len(columns) == 0 {
		f.Columns = discoverColumns(rows)
	}
	return f
}

// Len returns the number of rows. A nil Frame has zero rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// HasColumn reports whether name is one of the frame's columns.
func (f *Frame) HasColumn(name string) bool {
	if f == nil {
		return false
	}
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names from want that the frame does not have,
// in the order given.
func (f *Frame) MissingColumns(want []string) []string {
	var out []string
	for _, c := range want {
		if !f.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}

// Column returns the values of one column in row order. Absent keys yield nil.
func (f *Frame) Column(name string) []any {
	out := make([]any, f.Len())
	for i, r := range f.rows() {
		out[i] = r[name]
	}
	return out
}

// Clone returns a copy whose rows can be changed without affecting f.
// Values themselves are shared; they are expected to be immutable scalars.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([]Record, len(f.Rows)),
	}
	for i, r := range f.Rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// Values returns row i projected onto columns, in column order.
func (f *Frame) Values(i int, columns []string) []any {
	out := make([]any, len(columns))
	r := f.Rows[i]
	for j, c := range columns {
		out[j] = r[c]
	}
	return out
}

func (f *Frame) rows() []Record {
	if f == nil {
		return nil
	}
	return f.Rows
}

// IsNull reports whether v counts as a missing value: nil or a float NaN.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t)
	case float32:
		return math.IsNaN(float64(t))
	}
	return false
}

// Number converts numeric Go values (and json.Number) to float64. Strings are
// not numbers here; parsing text is the coerce transformer's job.
func Number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		return f, err == nil
	}
	return 0, false
}

func discoverColumns(rows []Record) []string {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := seen[k]; !ok {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

// Concat appends the rows of frames in order. Columns are the union of the
// inputs' columns in first-seen order; rows do not get keys for columns they
// lack. Rows are shared with the inputs, not copied. Nil frames are skipped.
func Concat(frames ...*Frame) *Frame {
	out := &Frame{}
	seen := map[string]struct{}{}
	n := 0
	for _, f := range frames {
		if f == nil {
			continue
		}
		n += len(f.Rows)
		for _, c := range f.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out.Columns = append(out.Columns, c)
			}
		}
	}
	out.Rows = make([]Record, 0, n)
	for _, f := range frames {
		if f != nil {
			out.Rows = append(out.Rows, f.Rows...)
		}
	}
	return out
}
