package builtin

import (
	"errors"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Select keeps only Columns, in the given order. Columns the input lacks are
// created with nil values.
type Select struct {
	Columns []string
}

// NewSelect reads columns.
func NewSelect(o config.Options) (Select, error) {
	s := Select{Columns: o.StringSlice("columns")}
	if len(s.Columns) == 0 {
		return Select{}, errors.New("select: columns are required")
	}
	return s, nil
}

// Apply implements transformer.Transformer.
func (s Select) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := dataset.New(s.Columns...)
	if in == nil {
		return out, nil
	}
	out.Rows = make([]dataset.Record, len(in.Rows))
	for i, r := range in.Rows {
		rec := make(dataset.Record, len(s.Columns))
		for _, c := range s.Columns {
			rec[c] = r[c]
		}
		out.Rows[i] = rec
	}
	return out, nil
}
