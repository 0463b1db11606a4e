// Package transformer defines frame-to-frame transforms. Implementations
// never modify their input frame; they return a new one.
package transformer

import (
	"fmt"

	"etlgate/internal/dataset"
)

// Transformer rewrites a frame.
type Transformer interface {
	Apply(in *dataset.Frame) (*dataset.Frame, error)
}

// Func adapts a plain function to Transformer.
type Func func(in *dataset.Frame) (*dataset.Frame, error)

// Apply implements Transformer.
func (fn Func) Apply(in *dataset.Frame) (*dataset.Frame, error) { return fn(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs every transformer in order, feeding each the previous output.
func (c Chain) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := in
	for i, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, fmt.Errorf("transform %d: %w", i, err)
		}
	}
	return out, nil
}
