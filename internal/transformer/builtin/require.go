package builtin

import (
	"errors"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Require drops rows that lack a non-empty value for any of Fields.
type Require struct {
	Fields []string
}

// NewRequire reads fields.
func NewRequire(o config.Options) (Require, error) {
	r := Require{Fields: o.StringSlice("fields")}
	if len(r.Fields) == 0 {
		return Require{}, errors.New("require: fields are required")
	}
	return r, nil
}

// Apply implements transformer.Transformer.
func (q Require) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := clone(in)
	kept := out.Rows[:0]
	for _, rec := range out.Rows {
		if q.satisfied(rec) {
			kept = append(kept, rec)
		}
	}
	out.Rows = kept
	return out, nil
}

func (q Require) satisfied(rec dataset.Record) bool {
	for _, f := range q.Fields {
		v, ok := rec[f]
		if !ok || dataset.IsNull(v) || v == "" {
			return false
		}
	}
	return true
}
