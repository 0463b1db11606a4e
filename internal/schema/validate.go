package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Validator checks single records against a Contract. Per-field metadata
// (including O(1) enum and boolean lookup sets) is computed once, on first
// use, so a Validator can be shared by many evaluations.
type Validator struct {
	Contract   Contract
	DateLayout string // optional global fallback date layout

	metaOnce sync.Once
	meta     []fieldMeta
}

// NewValidator returns a Validator for c.
func NewValidator(c Contract, dateLayout string) *Validator {
	return &Validator{Contract: c, DateLayout: dateLayout}
}

type fieldMeta struct {
	name     string
	kind     string // "int","float","bool","date","string"
	required bool
	layout   string

	enumSet   map[string]struct{}
	truthySet map[string]struct{}
	falsySet  map[string]struct{}

	enumList []string
}

// default truthy/falsy sets (lowercased). Includes Czech "ano"/"ne".
var (
	defaultTruthy = map[string]struct{}{
		"1": {}, "t": {}, "true": {}, "yes": {}, "y": {}, "ano": {},
	}
	defaultFalsy = map[string]struct{}{
		"0": {}, "f": {}, "false": {}, "no": {}, "n": {}, "ne": {},
	}
)

func (v *Validator) buildMeta() {
	v.metaOnce.Do(func() {
		v.meta = make([]fieldMeta, 0, len(v.Contract.Fields))
		for _, f := range v.Contract.Fields {
			m := fieldMeta{
				name:     f.Name,
				kind:     NormalizeKind(f.Type),
				required: f.Required,
				layout:   f.Layout,
			}
			if len(f.Enum) > 0 {
				m.enumSet = make(map[string]struct{}, len(f.Enum))
				for _, s := range f.Enum {
					m.enumSet[s] = struct{}{}
				}
				m.enumList = append(m.enumList, f.Enum...)
			}
			if len(f.Truthy) > 0 {
				m.truthySet = lowerSet(f.Truthy)
			}
			if len(f.Falsy) > 0 {
				m.falsySet = lowerSet(f.Falsy)
			}
			v.meta = append(v.meta, m)
		}
	})
}

// Validate reports whether rec satisfies the contract. When it does not, the
// returned reason names the first offending field.
func (v *Validator) Validate(rec map[string]any) (bool, string) {
	v.buildMeta()

	for i := range v.meta {
		fm := &v.meta[i]
		val, exists := rec[fm.name]

		if isEmpty(val, exists) {
			if fm.required {
				return false, fmt.Sprintf("required field %q missing", fm.name)
			}
			continue
		}

		if ok, reason := v.checkKind(fm, val); !ok {
			return false, reason
		}

		if fm.enumSet != nil {
			s := AsString(val)
			if _, ok := fm.enumSet[s]; !ok {
				return false, fmt.Sprintf("field %q: %q not in enum %v", fm.name, s, fm.enumList)
			}
		}
	}
	return true, ""
}

func (v *Validator) checkKind(fm *fieldMeta, val any) (bool, string) {
	var problem string
	switch fm.kind {
	case "int":
		problem = intProblem(val)
	case "float":
		problem = floatProblem(val)
	case "bool":
		if _, ok := val.(bool); !ok && !isBoolInSets(strings.ToLower(strings.TrimSpace(AsString(val))), fm.truthySet, fm.falsySet) {
			problem = fmt.Sprintf("%q not a recognized boolean", AsString(val))
		}
	case "date":
		problem = v.dateProblem(fm, val)
	}
	// Other kinds, including text, accept any value.
	if problem != "" {
		return false, fmt.Sprintf("field %q: %s", fm.name, problem)
	}
	return true, ""
}

func intProblem(val any) string {
	var err error
	switch t := val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return ""
		}
		return fmt.Sprintf("%v not an int", t)
	case json.Number:
		_, err = t.Int64()
	case string:
		_, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return fmt.Sprintf("type %T not int-convertible", t)
	}
	if err != nil {
		return fmt.Sprintf("%q not an int", AsString(val))
	}
	return ""
}

func floatProblem(val any) string {
	var err error
	switch t := val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return ""
	case json.Number:
		_, err = t.Float64()
	case string:
		_, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return fmt.Sprintf("type %T not number-convertible", t)
	}
	if err != nil {
		return fmt.Sprintf("%q not a number", AsString(val))
	}
	return ""
}

func (v *Validator) dateProblem(fm *fieldMeta, val any) string {
	switch t := val.(type) {
	case time.Time:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if parseAnyDate(s, fm.layout, v.DateLayout) {
			return ""
		}
		return fmt.Sprintf("invalid date %q", s)
	default:
		return fmt.Sprintf("type %T not date-convertible", t)
	}
}

// AsString converts common scalar types to their string form.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

// NormalizeKind maps database-ish type names onto validator kinds.
//
//	"bigint", "int8", "integer" → "int"
//	"real", "double", "numeric" → "float"
//	"boolean"                   → "bool"
//	"date", "timestamp"         → "date"
//	"text", "string"            → "string"
func NormalizeKind(t string) string {
	s := strings.ToLower(strings.TrimSpace(t))
	switch s {
	case "bigint", "int8", "integer", "int4", "int2", "int", "smallint":
		return "int"
	case "float", "float64", "real", "double", "numeric", "decimal", "number":
		return "float"
	case "boolean", "bool":
		return "bool"
	case "date", "datetime", "timestamp", "timestamptz":
		return "date"
	case "text", "string", "varchar", "":
		return "string"
	default:
		return s
	}
}

func isEmpty(val any, exists bool) bool {
	if !exists || val == nil {
		return true
	}
	s, ok := val.(string)
	return ok && s == ""
}

func lowerSet(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, s := range in {
		out[strings.ToLower(s)] = struct{}{}
	}
	return out
}

// isBoolInSets checks membership against custom sets if provided; otherwise
// falls back to the default truthy/falsy sets. s must already be lowercased.
func isBoolInSets(s string, truthy, falsy map[string]struct{}) bool {
	if truthy == nil && falsy == nil {
		truthy, falsy = defaultTruthy, defaultFalsy
	}
	if _, ok := truthy[s]; ok {
		return true
	}
	_, ok := falsy[s]
	return ok
}

// parseAnyDate attempts (in order): field layout, ISO (2006-01-02), RFC3339,
// then the global layout if provided.
func parseAnyDate(s, fieldLayout, globalLayout string) bool {
	for _, layout := range []string{fieldLayout, "2006-01-02", time.RFC3339, globalLayout} {
		if layout == "" {
			continue
		}
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
