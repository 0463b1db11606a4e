package rules

import (
	"context"
	"fmt"
	"strings"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
)

// Completion fails when, for any listed column, the share of null values
// exceeds Threshold percent.
type Completion struct {
	RuleName  string
	Columns   []string
	Threshold float64 // percent, 0..100; default 0 (no nulls allowed)
}

// NewCompletion returns a Completion rule with the default name.
func NewCompletion(columns []string, threshold float64) Completion {
	return Completion{Columns: columns, Threshold: threshold}
}

// Name implements quality.Check.
func (c Completion) Name() string { return nameOr(c.RuleName, CompletionName) }

func (c Completion) description() string {
	return fmt.Sprintf("null share of %s must not exceed %.2f%%", strings.Join(c.Columns, ", "), c.Threshold)
}

// Evaluate implements quality.Check.
func (c Completion) Evaluate(_ context.Context, f *dataset.Frame) (quality.Result, error) {
	name, desc := c.Name(), c.description()
	if res, bad := missingColumns(f, c.Columns, name, desc); bad {
		return res, nil
	}

	total := f.Len()
	perColumn := make(map[string]any, len(c.Columns))
	var offenders []string
	for _, col := range c.Columns {
		missing := 0
		for _, r := range f.Rows {
			if dataset.IsNull(r[col]) {
				missing++
			}
		}
		p := pct(missing, total)
		perColumn[col] = map[string]any{
			"missing_count":      missing,
			"missing_percentage": p,
		}
		if p > c.Threshold {
			offenders = append(offenders, fmt.Sprintf("%s (%.2f%%)", col, p))
		}
	}

	detail := map[string]any{
		"columns":    perColumn,
		"threshold":  c.Threshold,
		"total_rows": total,
	}
	if len(offenders) > 0 {
		return quality.Fail(name, desc,
			"columns exceeding missing-value threshold: "+strings.Join(offenders, ", "),
			detail), nil
	}
	return quality.Pass(name, desc, "all columns meet the completion threshold", detail), nil
}
