package quality

import (
	"context"
	"sync"
)

// Check is a named predicate over a dataset of type D.
//
// Evaluate must not modify d. A column or field the check needs but cannot
// find is reported as a failing Result, not as an error. A returned error (or
// a panic) is still tolerated: the Gate turns it into a failing Result.
type Check[D any] interface {
	Name() string
	Evaluate(ctx context.Context, d D) (Result, error)
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc[D any] struct {
	CheckName string
	Fn        func(ctx context.Context, d D) (Result, error)
}

// NewCheckFunc returns a Check named name that delegates to fn.
func NewCheckFunc[D any](name string, fn func(ctx context.Context, d D) (Result, error)) CheckFunc[D] {
	return CheckFunc[D]{CheckName: name, Fn: fn}
}

// Name implements Check.
func (c CheckFunc[D]) Name() string { return c.CheckName }

// Evaluate implements Check.
func (c CheckFunc[D]) Evaluate(ctx context.Context, d D) (Result, error) {
	return c.Fn(ctx, d)
}

// Tracked wraps a Check and remembers the last Result it produced.
//
// It mirrors the evaluate-then-inspect style where the result lives on the
// check value. Tracked is safe for concurrent use, but when one instance is
// shared by overlapping runs, Result returns whichever evaluation finished
// last; give each run its own Tracked if that matters.
type Tracked[D any] struct {
	check Check[D]

	mu   sync.Mutex
	last Result
}

// Track wraps c.
func Track[D any](c Check[D]) *Tracked[D] {
	return &Tracked[D]{check: c, last: Result{Name: c.Name()}}
}

// Name implements Check.
func (t *Tracked[D]) Name() string { return t.check.Name() }

// Evaluate implements Check and records the outcome. Errors and panics of the
// wrapped check are converted into a failing Result.
func (t *Tracked[D]) Evaluate(ctx context.Context, d D) (Result, error) {
	res := evaluate(ctx, t.check, d)
	t.mu.Lock()
	t.last = res
	t.mu.Unlock()
	return res, nil
}

// Check evaluates d and reports whether it passed.
func (t *Tracked[D]) Check(ctx context.Context, d D) bool {
	res, _ := t.Evaluate(ctx, d)
	return res.Passed()
}

// Result returns the last Result. Before the first evaluation it is an unset
// Result carrying only the check name.
func (t *Tracked[D]) Result() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
