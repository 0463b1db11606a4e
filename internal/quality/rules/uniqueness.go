package rules

import (
	"context"
	"fmt"
	"strings"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
)

const maxDuplicateExamples = 3

// Uniqueness fails when rows projected onto Columns repeat. An empty column
// list means every frame column.
type Uniqueness struct {
	RuleName string
	Columns  []string
}

// NewUniqueness returns a Uniqueness rule with the default name.
func NewUniqueness(columns ...string) Uniqueness {
	return Uniqueness{Columns: columns}
}

// Name implements quality.Check.
func (u Uniqueness) Name() string { return nameOr(u.RuleName, UniquenessName) }

func (u Uniqueness) description() string {
	if len(u.Columns) == 0 {
		return "rows must be unique"
	}
	return fmt.Sprintf("rows must be unique on %s", strings.Join(u.Columns, ", "))
}

// Evaluate implements quality.Check.
func (u Uniqueness) Evaluate(_ context.Context, f *dataset.Frame) (quality.Result, error) {
	name, desc := u.Name(), u.description()
	if res, bad := missingColumns(f, u.Columns, name, desc); bad {
		return res, nil
	}
	columns := u.Columns
	if len(columns) == 0 {
		columns = f.Columns
	}

	duplicates := 0
	var examples []map[string]any
	for _, g := range dataset.IndexRows(f, columns).Groups() {
		if len(g.Rows) < 2 {
			continue
		}
		duplicates += len(g.Rows) - 1
		if len(examples) < maxDuplicateExamples {
			values := make(map[string]any, len(columns))
			for j, v := range f.Values(g.Rows[0], columns) {
				values[columns[j]] = v
			}
			examples = append(examples, map[string]any{
				"values":      values,
				"occurrences": len(g.Rows),
			})
		}
	}

	detail := map[string]any{
		"columns":              columns,
		"duplicate_rows":       duplicates,
		"duplicate_percentage": pct(duplicates, f.Len()),
		"total_rows":           f.Len(),
	}
	if duplicates > 0 {
		detail["examples"] = examples
		return quality.Fail(name, desc, fmt.Sprintf("found %d duplicate row(s)", duplicates), detail), nil
	}
	return quality.Pass(name, desc, "all rows are unique", detail), nil
}
