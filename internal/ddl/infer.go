package ddl

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"etlgate/internal/dataset"
)

// InferKind picks the narrowest logical kind that fits every non-null value:
// bool, int, float, date (midnight UTC times), timestamp, else text. A column
// with no non-null values is text.
func InferKind(values []any) string {
	seen := false
	allBool, allInt, allNum, allDate, allTime := true, true, true, true, true
	for _, v := range values {
		if dataset.IsNull(v) {
			continue
		}
		seen = true
		_, isBool := v.(bool)
		allBool = allBool && isBool

		n, isNum := dataset.Number(v)
		allNum = allNum && isNum
		allInt = allInt && isNum && isIntegral(v, n)

		t, isTime := v.(time.Time)
		allTime = allTime && isTime
		allDate = allDate && isTime && isMidnightUTC(t)
	}
	switch {
	case !seen:
		return KindText
	case allBool:
		return KindBool
	case allInt:
		return KindInt
	case allNum:
		return KindFloat
	case allDate:
		return KindDate
	case allTime:
		return KindTimestamp
	}
	return KindText
}

func isIntegral(v any, n float64) bool {
	switch t := v.(type) {
	case float32, float64:
		return n == float64(int64(n))
	case json.Number:
		_, err := strconv.ParseInt(string(t), 10, 64)
		return err == nil
	}
	return true
}

func isMidnightUTC(t time.Time) bool {
	t = t.UTC()
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// FromFrame derives a table definition for the given columns of f. Kinds come
// from hints (column -> logical kind) when present, otherwise from InferKind.
// Every column is nullable except the keys, which form the primary key.
// Empty columns means all of f's columns.
func FromFrame(table string, f *dataset.Frame, columns, keys []string, hints map[string]string, mapType func(string) string) TableDef {
	if len(columns) == 0 && f != nil {
		columns = f.Columns
	}
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	def := TableDef{FQN: table, Columns: make([]ColumnDef, 0, len(columns))}
	for _, c := range columns {
		kind := strings.ToLower(strings.TrimSpace(hints[c]))
		if kind == "" {
			kind = InferKind(f.Column(c))
		}
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c,
			SQLType:    mapType(kind),
			Nullable:   !isKey[c],
			PrimaryKey: isKey[c],
		})
	}
	return def
}
