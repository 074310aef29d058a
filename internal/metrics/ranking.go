package metrics

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrSingleClass is returned when a ranking metric needs both classes.
	ErrSingleClass = errors.New("ranking metric undefined: only one class present")

	// ErrLengthMismatch is returned when labels and scores differ in length.
	ErrLengthMismatch = errors.New("labels and scores differ in length")
)

// ROCAUC returns the probability that a random positive is scored above a
// random negative, counting ties as one half (Mann-Whitney U / (P·N)).
func ROCAUC(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(labels), len(scores))
	}

	ranks := averageRanks(scores)
	positives, negatives := 0, 0
	rankSum := 0.0
	for i, y := range labels {
		if y == 1 {
			positives++
			rankSum += ranks[i]
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0, ErrSingleClass
	}

	p := float64(positives)
	u := rankSum - p*(p+1)/2
	return u / (p * float64(negatives)), nil
}

// AveragePrecision returns the area under the precision-recall curve as the
// recall-weighted sum of precisions at each distinct score threshold,
// scanning scores from high to low.
func AveragePrecision(labels []int, scores []float64) (float64, error) {
	if len(labels) != len(scores) {
		return 0, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(labels), len(scores))
	}

	totalPos := 0
	for _, y := range labels {
		if y == 1 {
			totalPos++
		}
	}
	if totalPos == 0 {
		return 0, ErrSingleClass
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ap := 0.0
	prevRecall := 0.0
	tp, fp := 0, 0
	for k := 0; k < len(order); k++ {
		if labels[order[k]] == 1 {
			tp++
		} else {
			fp++
		}
		// Only emit a point once all rows sharing this score are counted.
		if k+1 < len(order) && scores[order[k+1]] == scores[order[k]] {
			continue
		}
		recall := float64(tp) / float64(totalPos)
		precision := float64(tp) / float64(tp+fp)
		ap += (recall - prevRecall) * precision
		prevRecall = recall
	}
	return ap, nil
}

// averageRanks assigns 1-based ascending ranks, giving tied values the mean
// of the ranks they span.
func averageRanks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// PositiveRate returns the share of label=1 rows, 0 for an empty slice.
func PositiveRate(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	n := 0
	for _, y := range labels {
		n += y
	}
	return float64(n) / float64(len(labels))
}
