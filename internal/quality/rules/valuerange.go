package rules

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
)

// ErrNoBounds is returned by NewValueRange when neither bound is set.
var ErrNoBounds = errors.New("value range: at least one of min or max is required")

// ValueRange fails when a non-null value of Column lies outside the inclusive
// [Min, Max] interval. A nil bound is open.
type ValueRange struct {
	RuleName string
	Column   string
	Min      *float64
	Max      *float64
}

// NewValueRange returns a ValueRange rule for column.
func NewValueRange(column string, min, max *float64) (ValueRange, error) {
	if min == nil && max == nil {
		return ValueRange{}, ErrNoBounds
	}
	if min != nil && max != nil && *min > *max {
		return ValueRange{}, errors.Errorf("value range: min %v is greater than max %v", *min, *max)
	}
	return ValueRange{Column: column, Min: min, Max: max}, nil
}

// Name implements quality.Check.
func (v ValueRange) Name() string { return nameOr(v.RuleName, ValueRangeName) }

func (v ValueRange) description() string {
	lo, hi := "-inf", "+inf"
	if v.Min != nil {
		lo = fmt.Sprint(*v.Min)
	}
	if v.Max != nil {
		hi = fmt.Sprint(*v.Max)
	}
	return fmt.Sprintf("values of %s must lie within [%s, %s]", v.Column, lo, hi)
}

func (v ValueRange) inRange(x float64) bool {
	if v.Min != nil && x < *v.Min {
		return false
	}
	if v.Max != nil && x > *v.Max {
		return false
	}
	return true
}

// Evaluate implements quality.Check.
func (v ValueRange) Evaluate(_ context.Context, f *dataset.Frame) (quality.Result, error) {
	name, desc := v.Name(), v.description()
	if res, bad := missingColumns(f, []string{v.Column}, name, desc); bad {
		return res, nil
	}

	var bad []float64
	for i, r := range f.Rows {
		val := r[v.Column]
		if dataset.IsNull(val) {
			continue
		}
		x, ok := dataset.Number(val)
		if !ok {
			return quality.Fail(name, desc,
				fmt.Sprintf("column %s holds a non-numeric value %v (%T) in row %d", v.Column, val, val, i),
				map[string]any{"row": i}), nil
		}
		if !v.inRange(x) {
			bad = append(bad, x)
		}
	}

	detail := map[string]any{
		"column":               v.Column,
		"min":                  v.Min,
		"max":                  v.Max,
		"violations":           len(bad),
		"violation_percentage": pct(len(bad), f.Len()),
	}
	if len(bad) == 0 {
		return quality.Pass(name, desc, "all values are within range", detail), nil
	}
	lo, hi, mean := summary(bad)
	detail["violation_min"] = lo
	detail["violation_max"] = hi
	detail["violation_mean"] = mean
	return quality.Fail(name, desc,
		fmt.Sprintf("%d value(s) of %s out of range", len(bad), v.Column), detail), nil
}
