package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"
)

// Key builds a comparison key for r projected onto columns. Each value is
// tagged with its kind and length-prefixed, so no value can spill into the
// next column's segment. Integers are rendered exactly; int 1, int64(1) and
// 1.0 share a key, int 1 and string "1" do not. nil and NaN are both null.
func Key(r Record, columns []string) string {
	var b strings.Builder
	for _, c := range columns {
		seg := keySegment(r[c])
		b.WriteString(strconv.Itoa(len(seg)))
		b.WriteByte(':')
		b.WriteString(seg)
	}
	return b.String()
}

func keySegment(v any) string {
	if IsNull(v) {
		return "null"
	}
	switch t := v.(type) {
	case string:
		return "s:" + t
	case int:
		return "i:" + strconv.FormatInt(int64(t), 10)
	case int8:
		return "i:" + strconv.FormatInt(int64(t), 10)
	case int16:
		return "i:" + strconv.FormatInt(int64(t), 10)
	case int32:
		return "i:" + strconv.FormatInt(int64(t), 10)
	case int64:
		return "i:" + strconv.FormatInt(t, 10)
	case uint:
		return "i:" + strconv.FormatUint(uint64(t), 10)
	case uint8:
		return "i:" + strconv.FormatUint(uint64(t), 10)
	case uint16:
		return "i:" + strconv.FormatUint(uint64(t), 10)
	case uint32:
		return "i:" + strconv.FormatUint(uint64(t), 10)
	case uint64:
		return "i:" + strconv.FormatUint(t, 10)
	case float32:
		return floatSegment(float64(t))
	case float64:
		return floatSegment(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return "i:" + strconv.FormatInt(n, 10)
		}
		if f, err := t.Float64(); err == nil {
			return floatSegment(f)
		}
		return "s:" + t.String()
	}
	return fmt.Sprintf("%T:%v", v, v)
}

// floatSegment renders whole floats in int64 range like integers.
func floatSegment(f float64) string {
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		return "i:" + strconv.FormatInt(int64(f), 10)
	}
	return "f:" + strconv.FormatFloat(f, 'g', -1, 64)
}

// KeyIndex groups rows by key. Keys are bucketed by their xxh3 hash and
// compared exactly inside a bucket, so collisions never merge distinct keys.
type KeyIndex struct {
	buckets map[uint64][]*KeyGroup
	groups  []*KeyGroup
}

// KeyGroup is one distinct key and the rows that carry it.
type KeyGroup struct {
	Key  string
	Rows []int // row indexes, ascending
}

// NewKeyIndex returns an empty index sized for n rows.
func NewKeyIndex(n int) *KeyIndex {
	return &KeyIndex{buckets: make(map[uint64][]*KeyGroup, n)}
}

// Add records row under key and returns its group. first is true when the key
// had not been seen before.
func (x *KeyIndex) Add(key string, row int) (g *KeyGroup, first bool) {
	h := xxh3.HashString(key)
	for _, g := range x.buckets[h] {
		if g.Key == key {
			g.Rows = append(g.Rows, row)
			return g, false
		}
	}
	g = &KeyGroup{Key: key, Rows: []int{row}}
	x.buckets[h] = append(x.buckets[h], g)
	x.groups = append(x.groups, g)
	return g, true
}

// Groups returns distinct keys in first-appearance order.
func (x *KeyIndex) Groups() []*KeyGroup { return x.groups }

// IndexRows builds a KeyIndex over every row of f projected onto columns.
func IndexRows(f *Frame, columns []string) *KeyIndex {
	x := NewKeyIndex(f.Len())
	for i, r := range f.rows() {
		x.Add(Key(r, columns), i)
	}
	return x
}
