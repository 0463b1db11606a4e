package rules

import (
	"context"
	"fmt"

	"etlgate/internal/dataset"
	"etlgate/internal/quality"
	"etlgate/internal/schema"
)

const maxContractSamples = 3

// Contract fails when any row is rejected by a schema.Validator.
type Contract struct {
	RuleName  string
	Validator *schema.Validator
}

// NewContract returns a Contract rule validating rows against c.
func NewContract(c schema.Contract, dateLayout string) Contract {
	return Contract{Validator: schema.NewValidator(c, dateLayout)}
}

// Name implements quality.Check.
func (c Contract) Name() string {
	if c.RuleName == "" && c.Validator != nil && c.Validator.Contract.Name != "" {
		return c.Validator.Contract.Name
	}
	return nameOr(c.RuleName, ContractName)
}

// Evaluate implements quality.Check.
func (c Contract) Evaluate(_ context.Context, f *dataset.Frame) (quality.Result, error) {
	name := c.Name()
	if c.Validator == nil {
		return quality.Result{}, fmt.Errorf("rules: contract %q has no validator", name)
	}
	desc := fmt.Sprintf("rows must satisfy a %d-field contract", len(c.Validator.Contract.Fields))
	if f == nil {
		return quality.Fail(name, desc, "no dataset to check", nil), nil
	}

	rejected := 0
	var samples []map[string]any
	for i, r := range f.Rows {
		ok, reason := c.Validator.Validate(r)
		if ok {
			continue
		}
		rejected++
		if len(samples) < maxContractSamples {
			samples = append(samples, map[string]any{"row": i, "reason": reason})
		}
	}

	detail := map[string]any{
		"rejected_rows":       rejected,
		"rejected_percentage": pct(rejected, f.Len()),
		"total_rows":          f.Len(),
	}
	if rejected > 0 {
		detail["samples"] = samples
		return quality.Fail(name, desc, fmt.Sprintf("%d row(s) violate the contract", rejected), detail), nil
	}
	return quality.Pass(name, desc, "all rows satisfy the contract", detail), nil
}
