package rules

import (
	"context"
	"fmt"
	"strings"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
)

// maxOutlierSamples caps the offending values echoed per column.
const maxOutlierSamples = 5

// Outlier flags values outside [Q1 - K*IQR, Q3 + K*IQR]. Columns whose
// non-null values are not all numeric are skipped. Nulls are not evaluated:
// outlier_percentage is relative to a column's non-null values.
type Outlier struct {
	RuleName string
	Columns  []string
	K        float64 // IQR multiplier; default 1.5
}

// NewOutlier returns an Outlier rule with the default name and k.
func NewOutlier(columns ...string) Outlier {
	return Outlier{Columns: columns, K: 1.5}
}

// Name implements quality.Check.
func (o Outlier) Name() string { return nameOr(o.RuleName, OutlierName) }

func (o Outlier) k() float64 {
	if o.K <= 0 {
		return 1.5
	}
	return o.K
}

func (o Outlier) description() string {
	return fmt.Sprintf("values of %s must lie within %.2f IQR of the quartiles", strings.Join(o.Columns, ", "), o.k())
}

// Evaluate implements quality.Check.
func (o Outlier) Evaluate(_ context.Context, f *dataset.Frame) (quality.Result, error) {
	name, desc := o.Name(), o.description()
	if res, bad := missingColumns(f, o.Columns, name, desc); bad {
		return res, nil
	}

	k := o.k()
	violations := map[string]any{}
	var skipped, offenders []string
	for _, col := range o.Columns {
		values, numeric := numericColumn(f, col)
		if !numeric {
			skipped = append(skipped, col)
			continue
		}
		if len(values) == 0 {
			continue
		}
		q1, q3 := quartiles(values)
		iqr := q3 - q1
		lo, hi := q1-k*iqr, q3+k*iqr

		var out []float64
		for _, v := range values {
			if v < lo || v > hi {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			continue
		}
		samples := out
		if len(samples) > maxOutlierSamples {
			samples = samples[:maxOutlierSamples]
		}
		violations[col] = map[string]any{
			"q1":                 q1,
			"q3":                 q3,
			"iqr":                iqr,
			"lower_bound":        lo,
			"upper_bound":        hi,
			"evaluated_count":    len(values),
			"outlier_count":      len(out),
			"outlier_percentage": pct(len(out), len(values)),
			"outliers":           samples,
		}
		offenders = append(offenders, fmt.Sprintf("%s (%d)", col, len(out)))
	}

	detail := map[string]any{"multiplier": k, "violations": violations}
	if len(skipped) > 0 {
		detail["skipped_columns"] = skipped
	}
	if len(offenders) > 0 {
		return quality.Fail(name, desc, "outliers found in: "+strings.Join(offenders, ", "), detail), nil
	}
	return quality.Pass(name, desc, "no outliers found", detail), nil
}

// numericColumn collects the non-null values of col. The second return value
// is false when any non-null value is not numeric.
func numericColumn(f *dataset.Frame, col string) ([]float64, bool) {
	values := make([]float64, 0, f.Len())
	for _, r := range f.Rows {
		v := r[col]
		if dataset.IsNull(v) {
			continue
		}
		n, ok := dataset.Number(v)
		if !ok {
			return nil, false
		}
		values = append(values, n)
	}
	return values, true
}
