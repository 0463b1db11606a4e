package quality

import (
	"context"
	"errors"
	"fmt"
)

// Report is the outcome of running a Gate over one dataset.
type Report struct {
	// Results holds one entry per registered check, in registration order.
	Results []Result
	// Passed is the logical AND of all check outcomes. A gate with no checks
	// passes.
	Passed bool
}

// Failed returns the results that did not pass.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// Gate runs an ordered list of checks and decides whether loading may proceed.
// The zero value is an empty gate that always passes.
type Gate[D any] struct {
	checks []Check[D]
}

// NewGate returns a Gate over checks, evaluated in the given order.
func NewGate[D any](checks ...Check[D]) *Gate[D] {
	return &Gate[D]{checks: append([]Check[D](nil), checks...)}
}

// Len returns the number of registered checks.
func (g *Gate[D]) Len() int { return len(g.checks) }

// Checks returns a copy of the registered checks.
func (g *Gate[D]) Checks() []Check[D] {
	return append([]Check[D](nil), g.checks...)
}

// Evaluate runs every check against d. It never stops early: a failing,
// erroring or panicking check is recorded and evaluation moves on, so the
// report always has exactly one Result per check.
func (g *Gate[D]) Evaluate(ctx context.Context, d D) Report {
	rep := Report{Results: make([]Result, 0, len(g.checks)), Passed: true}
	for _, c := range g.checks {
		res := evaluate(ctx, c, d)
		if !res.Passed() {
			rep.Passed = false
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

// unnamedCheck names results of checks whose Name is empty or panics.
const unnamedCheck = "unnamed check"

// evaluate runs a single check, converting errors and panics into failing
// results and making sure the result is named and decided.
func evaluate[D any](ctx context.Context, c Check[D], d D) (res Result) {
	name := unnamedCheck
	defer func() {
		if p := recover(); p != nil {
			res = Errored(name, "", fmt.Errorf("panic: %v", p))
		}
	}()
	if c == nil {
		return Errored(name, "", errors.New("nil check"))
	}
	if n := c.Name(); n != "" {
		name = n
	}

	res, err := c.Evaluate(ctx, d)
	if err != nil {
		return Errored(name, res.Description, err)
	}
	if res.Name == "" {
		res.Name = name
	}
	if res.Outcome == OutcomeUnset {
		res.Outcome = OutcomeFailed
		if res.Message == "" {
			res.Message = "check returned no outcome"
		}
	}
	return res
}
