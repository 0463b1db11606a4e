package rules

import (
	"math"
	"sort"
)

// percentile returns the p-th percentile (0..100) of sorted using linear
// interpolation between closest ranks, rank = p/100*(n-1).
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return sorted[lower]
	}
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// quartiles returns Q1 and Q3 of x without modifying it.
func quartiles(x []float64) (q1, q3 float64) {
	cp := append([]float64(nil), x...)
	sort.Float64s(cp)
	return percentile(cp, 25), percentile(cp, 75)
}

// summary returns min, max and mean of x. x must be non-empty.
func summary(x []float64) (lo, hi, mean float64) {
	lo, hi = x[0], x[0]
	var sum float64
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		sum += v
	}
	return lo, hi, sum / float64(len(x))
}

// pct returns part/total as a percentage rounded to two decimals.
func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
