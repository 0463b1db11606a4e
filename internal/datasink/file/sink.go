// Package file writes a dataset frame to the local filesystem as CSV or
// NDJSON. Paths ending in ".gz" are gzip-compressed. Files are written to a
// temp file first and renamed into place, so readers never see partial output.
package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Formats understood by Write.
const (
	FormatCSV    = "csv"
	FormatNDJSON = "ndjson"
)

// Options controls output.
type Options struct {
	Path    string
	Format  string   // csv (default) or ndjson
	Columns []string // subset/order; default: frame columns
	Header  bool     // csv only; default true
	Comma   rune     // csv only; default ','
}

// FromConfigOptions reads path, format, columns, header and comma.
func FromConfigOptions(o config.Options) Options {
	return Options{
		Path:    o.String("path", ""),
		Format:  strings.ToLower(o.String("format", FormatCSV)),
		Columns: o.StringSlice("columns"),
		Header:  o.Bool("header", true),
		Comma:   o.Rune("comma", ','),
	}
}

// Write renders f to opt.Path.
func Write(f *dataset.Frame, opt Options) error {
	if opt.Path == "" {
		return fmt.Errorf("file sink: path is required")
	}
	if f == nil {
		f = dataset.New()
	}
	cols := opt.Columns
	if len(cols) == 0 {
		cols = f.Columns
	}

	var render func(io.Writer) error
	switch opt.Format {
	case "", FormatCSV:
		render = func(w io.Writer) error { return writeCSV(w, f, cols, opt) }
	case FormatNDJSON:
		render = func(w io.Writer) error { return writeNDJSON(w, f, cols) }
	default:
		return fmt.Errorf("file sink: unsupported format %q", opt.Format)
	}
	return writeAtomic(opt.Path, render)
}

func writeAtomic(path string, render func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file sink: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".sink-*")
	if err != nil {
		return fmt.Errorf("file sink: temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriterSize(tmp, 64<<10)
	var w io.Writer = bw
	var zw *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zw = gzip.NewWriter(bw)
		w = zw
	}
	if err := render(w); err != nil {
		tmp.Close()
		return fmt.Errorf("file sink: write %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("file sink: gzip: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("file sink: flush: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file sink: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("file sink: rename: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, f *dataset.Frame, cols []string, opt Options) error {
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}
	if opt.Header {
		if err := cw.Write(cols); err != nil {
			return err
		}
	}
	rec := make([]string, len(cols))
	for _, r := range f.Rows {
		for i, c := range cols {
			rec[i] = cell(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeNDJSON(w io.Writer, f *dataset.Frame, cols []string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, r := range f.Rows {
		obj := make(map[string]any, len(cols))
		for _, c := range cols {
			obj[c] = jsonValue(r[c])
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}

// cell renders one CSV field. Nulls are empty.
func cell(v any) string {
	if dataset.IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case time.Time:
		return formatTime(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

func jsonValue(v any) any {
	if dataset.IsNull(v) {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return formatTime(t)
	}
	return v
}

// formatTime writes dates at UTC midnight as YYYY-MM-DD.
func formatTime(t time.Time) string {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}
