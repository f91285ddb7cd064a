package sim

import (
	"math"
	"sort"
)

// Stats summarizes integer samples.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stdDev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// summarize sorts a copy of xs, then computes population variance in one Welford pass
// and linearly interpolated percentiles.
func summarize(xs []int) Stats {
	if len(xs) == 0 {
		return Stats{}
	}
	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)

	var mean, m2 float64
	for k, v := range sorted {
		x := float64(v)
		delta := x - mean
		mean += delta / float64(k+1)
		m2 += delta * (x - mean)
	}
	variance := m2 / float64(len(sorted))

	return Stats{
		Mean:   mean,
		Var:    variance,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P50:    quantile(sorted, 0.50),
		P90:    quantile(sorted, 0.90),
		P99:    quantile(sorted, 0.99),
	}
}

// quantile reads q from an ascending slice.
func quantile(sorted []int, q float64) float64 {
	last := len(sorted) - 1
	pos := q * float64(last)
	lo := int(pos)
	if lo >= last {
		return float64(sorted[last])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
