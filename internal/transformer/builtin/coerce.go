package builtin

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Coerce converts column values to typed Go values:
//
//	int    -> int64     (accepts "42" and "42.0")
//	float  -> float64
//	bool   -> bool      (Truthy/Falsy or a default vocabulary incl. ano/ne)
//	date   -> time.Time (Layout, then DD.MM.YYYY, then ISO date, then RFC 3339)
//	string -> string
//
// Empty strings become nil. A value that does not parse is left unchanged,
// unless Strict is set, in which case Apply fails.
type Coerce struct {
	Types  map[string]string
	Layout string
	Truthy []string
	Falsy  []string
	Strict bool
}

// NewCoerce reads types, layout, truthy, falsy and strict.
func NewCoerce(o config.Options) Coerce {
	return Coerce{
		Types:  o.StringMap("types"),
		Layout: o.String("layout", ""),
		Truthy: o.StringSlice("truthy"),
		Falsy:  o.StringSlice("falsy"),
		Strict: o.Bool("strict", false),
	}
}

// coercer converts one non-nil value.
type coercer func(v any) (any, bool)

// Apply implements transformer.Transformer.
func (c Coerce) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := clone(in)
	if len(c.Types) == 0 {
		return out, nil
	}
	if c.Strict {
		if missing := out.MissingColumns(sortedKeys(c.Types)); len(missing) > 0 {
			return nil, fmt.Errorf("coerce: unknown column(s) %s", strings.Join(missing, ", "))
		}
	}

	cols := sortedKeys(c.Types)
	plan := make([]coercer, len(cols))
	for j, col := range cols {
		fn, err := c.compile(c.Types[col])
		if err != nil {
			return nil, fmt.Errorf("coerce: column %q: %w", col, err)
		}
		plan[j] = fn
	}

	for i, r := range out.Rows {
		for j, fn := range plan {
			col := cols[j]
			v, ok := r[col]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr {
				s = strings.TrimSpace(s)
				if s == "" {
					r[col] = nil
					continue
				}
				v = s
			}
			cv, ok := fn(v)
			if !ok {
				if c.Strict {
					return nil, fmt.Errorf("coerce: row %d column %q: cannot convert %v to %s", i, col, v, c.Types[col])
				}
				continue
			}
			r[col] = cv
		}
	}
	return out, nil
}

func (c Coerce) compile(typ string) (coercer, error) {
	switch strings.ToLower(typ) {
	case "int", "integer", "bigint":
		return toInt, nil
	case "float", "real", "double", "number":
		return toFloat, nil
	case "bool", "boolean":
		truthy, falsy := lowerSet(c.Truthy), lowerSet(c.Falsy)
		custom := len(truthy) > 0 || len(falsy) > 0
		return func(v any) (any, bool) {
			switch t := v.(type) {
			case bool:
				return t, true
			case string:
				return toBool(t, custom, truthy, falsy)
			}
			return nil, false
		}, nil
	case "date", "timestamp":
		layout := c.Layout
		return func(v any) (any, bool) {
			switch t := v.(type) {
			case time.Time:
				return t, true
			case string:
				return parseDate(t, layout)
			}
			return nil, false
		}, nil
	case "string", "text", "":
		return toString, nil
	}
	return nil, fmt.Errorf("unsupported type %q", typ)
}

func toInt(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return toIntFast(t)
	case json.Number:
		return toIntFast(string(t))
	}
	f, ok := dataset.Number(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return int64(f), true
}

func toFloat(v any) (any, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return dataset.Number(v)
}

func toString(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return string(t), true
	case time.Time:
		return t.Format(time.RFC3339), true
	}
	return fmt.Sprint(v), true
}

// toIntFast parses base-10 integers and falls back to float parsing only when
// the text contains a '.', so "42.0" is accepted and "42.5" is not.
func toIntFast(s string) (any, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return nil, false
}

func toBool(s string, custom bool, truthy, falsy map[string]struct{}) (any, bool) {
	ls := strings.ToLower(s)
	if custom {
		if _, ok := truthy[ls]; ok {
			return true, true
		}
		if _, ok := falsy[ls]; ok {
			return false, true
		}
		return nil, false
	}
	switch ls {
	case "1", "t", "true", "yes", "y", "ano":
		return true, true
	case "0", "f", "false", "no", "n", "ne":
		return false, true
	}
	return nil, false
}

func parseDate(s, layout string) (any, bool) {
	if layout != "" {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if t, ok := parseCZDate(s); ok {
		return t, true
	}
	for _, l := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return nil, false
}

// parseCZDate parses exactly DD.MM.YYYY without allocating.
func parseCZDate(s string) (time.Time, bool) {
	if len(s) != 10 || s[2] != '.' || s[5] != '.' {
		return time.Time{}, false
	}
	d1, d0 := s[0]-'0', s[1]-'0'
	m1, m0 := s[3]-'0', s[4]-'0'
	y3, y2, y1, y0 := s[6]-'0', s[7]-'0', s[8]-'0', s[9]-'0'
	if d1 > 9 || d0 > 9 || m1 > 9 || m0 > 9 || y3 > 9 || y2 > 9 || y1 > 9 || y0 > 9 {
		return time.Time{}, false
	}
	day := int(d1)*10 + int(d0)
	mon := int(m1)*10 + int(m0)
	year := int(y3)*1000 + int(y2)*100 + int(y1)*10 + int(y0)
	if mon < 1 || mon > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(mon), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// 31.02. rolled over into March.
		return time.Time{}, false
	}
	return t, true
}

func lowerSet(in []string) map[string]struct{} {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	for _, s := range in {
		m[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return m
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
