// Package parser turns raw extract payloads into frames. The format names
// here are the ones accepted by the "format" option of file and http extract
// steps.
package parser

import (
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
	"etlgate/internal/parser/csv"
	"etlgate/internal/parser/json"
)

// Func parses one payload.
type Func func(r io.Reader, opt config.Options, logger zerolog.Logger) (*dataset.Frame, error)

var formats = map[string]Func{
	"csv": func(r io.Reader, opt config.Options, logger zerolog.Logger) (*dataset.Frame, error) {
		o := csv.FromConfigOptions(opt)
		o.Logger = logger
		return csv.ReadFrame(r, o)
	},
	"json": func(r io.Reader, opt config.Options, _ zerolog.Logger) (*dataset.Frame, error) {
		return json.ReadFrame(r, json.FromConfigOptions(opt))
	},
	"ndjson": func(r io.Reader, opt config.Options, _ zerolog.Logger) (*dataset.Frame, error) {
		o := json.FromConfigOptions(opt)
		o.NDJSON = true
		return json.ReadFrame(r, o)
	},
}

// Formats lists the supported format names in sorted order.
func Formats() []string {
	out := make([]string, 0, len(formats))
	for k := range formats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the parser for format.
func Lookup(format string) (Func, error) {
	fn, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported format %q (supported: %v)", format, Formats())
	}
	return fn, nil
}

// Parse reads r with the parser registered for format.
func Parse(format string, r io.Reader, opt config.Options, logger zerolog.Logger) (*dataset.Frame, error) {
	fn, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return fn(r, opt, logger)
}
