package metrics

import (
	"math"
	"sort"
)

// Summary describes the distribution of a set of values.
type Summary struct {
	Count  int
	Mean   float64
	Stddev float64 // sample standard deviation (n-1)
	Min    float64
	P10    float64
	P50    float64
	P90    float64
	Max    float64
}

// Summarize computes the distribution summary of values.
// Percentiles use linear interpolation on the sorted values.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := computeMean(values)
	return Summary{
		Count:  n,
		Mean:   mean,
		Stddev: computeStddev(values, mean),
		Min:    sorted[0],
		P10:    computePercentile(sorted, 0.10),
		P50:    computePercentile(sorted, 0.50),
		P90:    computePercentile(sorted, 0.90),
		Max:    sorted[n-1],
	}
}

// computeMean calculates arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC. p is the fraction (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
