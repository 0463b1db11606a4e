// Package builtin contains the stock frame transformers: normalize, coerce,
// dedup, require, rename and select. Each returns a new frame and leaves its
// input untouched.
package builtin

import (
	"fmt"
	"sort"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
	"etlgate/internal/transformer"
)

// clone copies in for modification; a nil frame becomes an empty one.
func clone(in *dataset.Frame) *dataset.Frame {
	if in == nil {
		return dataset.New()
	}
	return in.Clone()
}

// Factory builds a transformer from step options.
type Factory func(o config.Options) (transformer.Transformer, error)

var registry = map[string]Factory{
	"normalize": func(o config.Options) (transformer.Transformer, error) { return NewNormalize(o), nil },
	"coerce":    func(o config.Options) (transformer.Transformer, error) { return NewCoerce(o), nil },
	"dedup":     func(o config.Options) (transformer.Transformer, error) { return NewDeDup(o) },
	"require":   func(o config.Options) (transformer.Transformer, error) { return NewRequire(o) },
	"rename":    func(o config.Options) (transformer.Transformer, error) { return NewRename(o), nil },
	"select":    func(o config.Options) (transformer.Transformer, error) { return NewSelect(o) },
}

// New builds the transformer registered for kind.
func New(kind string, o config.Options) (transformer.Transformer, error) {
	f, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown transform kind %q (known: %v)", kind, Kinds())
	}
	return f(o)
}

// Kinds lists the registered kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
