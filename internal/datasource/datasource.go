// Package datasource defines where extract steps read raw bytes from. The
// concrete sources live in the file and httpds subpackages; parsers in
// internal/parser turn the bytes into a dataset.
package datasource

import (
	"context"
	"io"
)

// Source opens a stream of raw input. Callers must close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Func adapts an ordinary function to Source.
type Func func(ctx context.Context) (io.ReadCloser, error)

// Open implements Source.
func (f Func) Open(ctx context.Context) (io.ReadCloser, error) { return f(ctx) }
