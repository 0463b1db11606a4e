// Package quality evaluates named checks against a dataset and folds their
// outcomes into a single gate decision.
//
// A Check is a pure function of the dataset: every evaluation returns one
// Result and touches no shared state, so the same check values can be reused
// across pipeline runs. Tracked adapts a Check to the older stateful shape
// (evaluate, then read the last result) for callers that still want it.
package quality

import "fmt"

// Outcome is the tri-state verdict of a single check.
type Outcome string

const (
	// OutcomeUnset means the check has not been evaluated yet.
	OutcomeUnset Outcome = ""
	// OutcomePassed means the predicate held for the dataset.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means the predicate did not hold, or evaluation broke.
	OutcomeFailed Outcome = "failed"
)

// Result is the report of one check evaluation.
type Result struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Outcome     Outcome        `json:"outcome"`
	Message     string         `json:"message"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// Passed reports whether the check ran and passed.
func (r Result) Passed() bool { return r.Outcome == OutcomePassed }

// Evaluated reports whether the outcome has been set.
func (r Result) Evaluated() bool { return r.Outcome != OutcomeUnset }

// Pass returns a passing Result.
func Pass(name, description, message string, detail map[string]any) Result {
	return Result{Name: name, Description: description, Outcome: OutcomePassed, Message: message, Detail: detail}
}

// Fail returns a failing Result.
func Fail(name, description, message string, detail map[string]any) Result {
	return Result{Name: name, Description: description, Outcome: OutcomeFailed, Message: message, Detail: detail}
}

// Verdict returns a passing or failing Result depending on ok.
func Verdict(ok bool, name, description, message string, detail map[string]any) Result {
	if ok {
		return Pass(name, description, message, detail)
	}
	return Fail(name, description, message, detail)
}

// Errored converts an evaluation error into a failing Result that carries the
// error text in both the message and the detail payload.
func Errored(name, description string, err error) Result {
	return Fail(name, description,
		fmt.Sprintf("check evaluation failed: %v", err),
		map[string]any{"error": err.Error()},
	)
}
