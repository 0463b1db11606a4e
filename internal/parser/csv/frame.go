// Package csv reads delimited text into a *dataset.Frame.
//
// Cells are kept as strings; typing is the coerce transformer's job. Values
// listed in Options.NullValues become nil so that completeness checks see
// them as missing.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"etlgate/internal/dataset"
)

// maxLoggedBadRows caps the per-row warnings when SkipBadRows is set.
const maxLoggedBadRows = 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadFrame parses r into a Frame. An empty input yields an empty Frame with
// no columns.
func ReadFrame(r io.Reader, opt Options) (*dataset.Frame, error) {
	br := bufio.NewReader(withReplacements(r, opt.ReplaceOrder, opt.Replace))
	if err := skipBOM(br); err != nil {
		return nil, fmt.Errorf("csv parser: %w", err)
	}

	cr := csv.NewReader(br)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var columns []string
	if opt.HasHeader {
		hdr, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return dataset.New(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv parser: read header: %w", err)
		}
		columns = normalizeHeaders(hdr, opt.HeaderMap)
	} else {
		columns = append(columns, opt.Columns...)
	}

	nulls := make(map[string]struct{}, len(opt.NullValues))
	for _, s := range opt.NullValues {
		nulls[s] = struct{}{}
	}

	f := dataset.New(columns...)
	skipped := 0
	line := 0
	if opt.HasHeader {
		line = 1
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			if !opt.SkipBadRows || !isRecoverable(err) {
				return nil, fmt.Errorf("csv parser: line %d: %w", line, err)
			}
			skipped++
			logSkipped(opt, skipped, line, err.Error())
			continue
		}

		if !opt.HasHeader && len(rec) > len(f.Columns) {
			f.Columns = padColumns(f.Columns, len(rec))
			columns = f.Columns
		}
		if opt.HasHeader && len(rec) != len(columns) {
			msg := fmt.Sprintf("expected %d fields, got %d", len(columns), len(rec))
			if !opt.SkipBadRows {
				return nil, fmt.Errorf("csv parser: line %d: %s", line, msg)
			}
			skipped++
			logSkipped(opt, skipped, line, msg)
			continue
		}

		row := make(dataset.Record, len(columns))
		for i, col := range columns {
			var cell string
			if i < len(rec) {
				cell = rec[i]
			}
			if opt.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			if _, null := nulls[cell]; null {
				row[col] = nil
				continue
			}
			row[col] = cell
		}
		f.Rows = append(f.Rows, row)
	}

	if skipped > 0 {
		opt.Logger.Warn().Int("skipped_rows", skipped).Int("rows", f.Len()).Msg("csv: skipped malformed rows")
	}
	return f, nil
}

func logSkipped(opt Options, n, line int, reason string) {
	if n > maxLoggedBadRows {
		return
	}
	opt.Logger.Debug().Int("line", line).Str("reason", reason).Msg("csv: skipping row")
}

// isRecoverable reports whether the reader can continue after err.
func isRecoverable(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}

func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return nil
}

// normalizeHeaders maps raw header cells to column names. Names are looked up
// in headerMap first; otherwise they are trimmed, lower-cased and have inner
// spaces replaced by underscores. Empty names become col_N and repeats get a
// _2, _3, ... suffix.
func normalizeHeaders(hdr []string, headerMap map[string]string) []string {
	out := make([]string, len(hdr))
	seen := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		name, ok := headerMap[h]
		if !ok {
			name = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		}
		if name == "" {
			name = "col_" + strconv.Itoa(i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = name + "_" + strconv.Itoa(n)
		}
		out[i] = name
	}
	return out
}

func padColumns(cols []string, n int) []string {
	for i := len(cols); i < n; i++ {
		cols = append(cols, "col_"+strconv.Itoa(i+1))
	}
	return cols
}
