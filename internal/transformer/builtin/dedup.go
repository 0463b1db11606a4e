package builtin

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Dedup policies.
const (
	KeepFirst    = "keep-first"
	KeepLast     = "keep-last"
	MostComplete = "most-complete"
)

// DeDup collapses rows sharing the same business key and keeps one winner
// per key according to Policy:
//
//   - keep-first:    the earliest occurrence
//   - keep-last:     the latest occurrence (default)
//   - most-complete: the row with the most non-empty values, PreferFields
//     weighing extra; ties go to the later row
//
// Winners are emitted in the order of their original position. Rows lacking
// one of the key columns cannot be keyed and are appended unchanged after the
// winners.
type DeDup struct {
	Keys         []string
	Policy       string
	PreferFields []string
}

// NewDeDup reads keys, policy and prefer_fields.
func NewDeDup(o config.Options) (DeDup, error) {
	d := DeDup{
		Keys:         o.StringSlice("keys"),
		Policy:       o.String("policy", KeepLast),
		PreferFields: o.StringSlice("prefer_fields"),
	}
	if len(d.Keys) == 0 {
		return DeDup{}, errors.New("dedup: keys are required")
	}
	if _, err := d.policy(); err != nil {
		return DeDup{}, err
	}
	return d, nil
}

func (d DeDup) policy() (string, error) {
	p := strings.ToLower(strings.TrimSpace(d.Policy))
	switch p {
	case "":
		return KeepLast, nil
	case KeepFirst, KeepLast, MostComplete:
		return p, nil
	}
	return "", fmt.Errorf("dedup: unknown policy %q", d.Policy)
}

// Apply implements transformer.Transformer.
func (d DeDup) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := clone(in)
	if out.Len() == 0 || len(d.Keys) == 0 {
		return out, nil
	}
	policy, err := d.policy()
	if err != nil {
		return nil, err
	}

	prefer := make(map[string]struct{}, len(d.PreferFields))
	for _, f := range d.PreferFields {
		prefer[f] = struct{}{}
	}

	idx := dataset.NewKeyIndex(out.Len())
	var passthrough []int
	for i, r := range out.Rows {
		if !hasAll(r, d.Keys) {
			passthrough = append(passthrough, i)
			continue
		}
		idx.Add(dataset.Key(r, d.Keys), i)
	}

	winners := make([]int, 0, len(idx.Groups()))
	for _, g := range idx.Groups() {
		switch policy {
		case KeepFirst:
			winners = append(winners, g.Rows[0])
		case MostComplete:
			best, bestScore := g.Rows[0], -1
			for _, i := range g.Rows {
				if s := completeness(out.Rows[i], prefer); s >= bestScore {
					best, bestScore = i, s
				}
			}
			winners = append(winners, best)
		default:
			winners = append(winners, g.Rows[len(g.Rows)-1])
		}
	}
	sort.Ints(winners)

	rows := make([]dataset.Record, 0, len(winners)+len(passthrough))
	for _, i := range winners {
		rows = append(rows, out.Rows[i])
	}
	for _, i := range passthrough {
		rows = append(rows, out.Rows[i])
	}
	out.Rows = rows
	return out, nil
}

func hasAll(r dataset.Record, keys []string) bool {
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}

// completeness counts non-empty values; preferred fields add a smaller bonus.
func completeness(r dataset.Record, prefer map[string]struct{}) int {
	score, bonus := 0, 0
	for k, v := range r {
		if dataset.IsNull(v) || v == "" {
			continue
		}
		score++
		if _, ok := prefer[k]; ok {
			bonus++
		}
	}
	return score*10 + bonus
}
