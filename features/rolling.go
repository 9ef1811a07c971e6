package features

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// rollingMeans computes the trailing-window mean for each position. The
// window is clamped at the series start, so early positions average over
// however many samples exist (always at least one).
func rollingMeans(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		out[i] = stat.Mean(series[lo:i+1], nil)
	}
	return out
}

func rollingMedians(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	buf := make([]float64, 0, window)
	for i := range series {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		buf = append(buf[:0], series[lo:i+1]...)
		sort.Float64s(buf)
		out[i] = stat.Quantile(0.5, stat.Empirical, buf, nil)
	}
	return out
}
