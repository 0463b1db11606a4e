// Package rules provides reference quality checks over *dataset.Frame:
// completeness, IQR outliers, uniqueness, value ranges and schema contracts.
//
// All rules are stateless values; Evaluate may be called any number of times,
// from any number of goroutines. A column a rule needs but the frame lacks
// yields a failing result, never an error.
package rules

import (
	"fmt"
	"strings"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
)

// Check is the quality check type all rules implement.
type Check = quality.Check[*dataset.Frame]

// Default rule names.
const (
	CompletionName = "Completion Rule"
	OutlierName    = "Outlier Rule"
	UniquenessName = "Uniqueness Rule"
	ValueRangeName = "Value Range Rule"
	ContractName   = "Contract Rule"
)

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}

// missingColumns returns a failing result when frame lacks any of columns.
func missingColumns(f *dataset.Frame, columns []string, name, desc string) (quality.Result, bool) {
	if f == nil {
		return quality.Fail(name, desc, "no dataset to check", nil), true
	}
	missing := f.MissingColumns(columns)
	if len(missing) == 0 {
		return quality.Result{}, false
	}
	return quality.Fail(name, desc,
		fmt.Sprintf("column(s) not found in dataset: %s", strings.Join(missing, ", ")),
		map[string]any{"missing_columns": missing},
	), true
}
