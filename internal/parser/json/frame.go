// Package json reads JSON input into a *dataset.Frame.
//
// Two layouts are accepted:
//
//   - a top-level array of objects:  [{"id":1}, {"id":2}]
//   - a stream of objects (NDJSON):  {"id":1}\n{"id":2}
//
// Numbers are kept as json.Number so that large integers survive; the coerce
// transformer and the quality rules understand json.Number. Nested values are
// kept as decoded (map[string]any / []any).
package json

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Options configures ReadFrame.
type Options struct {
	// AllowArrays accepts a top-level array of objects.
	AllowArrays bool

	// NDJSON requires a stream of objects and rejects a top-level array.
	NDJSON bool

	// Columns fixes the column order. When empty, columns are discovered from
	// the records in first-seen order.
	Columns []string
}

// FromConfigOptions reads allow_arrays (default true), ndjson and columns.
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
		NDJSON:      o.Bool("ndjson", false),
		Columns:     o.StringSlice("columns"),
	}
}

// ReadFrame decodes r into a Frame. Empty input yields an empty Frame.
func ReadFrame(r io.Reader, opt Options) (*dataset.Frame, error) {
	br := bufio.NewReader(r)
	first, err := firstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return dataset.New(opt.Columns...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("json parser: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var rows []dataset.Record
	if first == '[' {
		if opt.NDJSON || !opt.AllowArrays {
			return nil, errors.New("json parser: top-level array encountered but arrays are not allowed")
		}
		rows, err = decodeArray(dec)
	} else {
		rows, err = decodeStream(dec)
	}
	if err != nil {
		return nil, err
	}
	return dataset.FromRecords(opt.Columns, rows), nil
}

func decodeArray(dec *json.Decoder) ([]dataset.Record, error) {
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json parser: decode root: %w", err)
	}
	var rows []dataset.Record
	for i := 0; dec.More(); i++ {
		var elem any
		if err := dec.Decode(&elem); err != nil {
			return nil, fmt.Errorf("json parser: element %d: %w", i, err)
		}
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json parser: element %d in array is not an object", i)
		}
		rows = append(rows, dataset.Record(obj))
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json parser: close array: %w", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, errors.New("json parser: unexpected content after top-level array")
	}
	return rows, nil
}

func decodeStream(dec *json.Decoder) ([]dataset.Record, error) {
	var rows []dataset.Record
	for i := 1; ; i++ {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("json parser: value %d: %w", i, err)
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json parser: value %d is %T, not an object", i, raw)
		}
		rows = append(rows, dataset.Record(obj))
	}
}

// firstNonSpace peeks the first significant byte, skipping white space and a
// UTF-8 BOM.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		r, size, err := br.ReadRune()
		if err != nil {
			return 0, err
		}
		if r == '\uFEFF' || unicode.IsSpace(r) {
			continue
		}
		if err := br.UnreadRune(); err != nil {
			return 0, err
		}
		if size != 1 {
			return 0, fmt.Errorf("unexpected character %q", r)
		}
		return byte(r), nil
	}
}
