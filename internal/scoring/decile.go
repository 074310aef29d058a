// Package scoring turns classifier probabilities into ranked decile assignments.
package scoring

import (
	"fmt"
	"sort"
)

// NumDeciles is the number of equal-count buckets.
const NumDeciles = 10

// Convention selects which end of the ranking is labeled decile 1.
type Convention int

const (
	// Ascending labels the lowest probabilities decile 1 and the highest decile 10.
	// Used for inference scoring output.
	Ascending Convention = iota + 1

	// Descending labels the highest probabilities decile 1 and the lowest decile 10.
	// Used for the training holdout report.
	Descending
)

func (c Convention) String() string {
	switch c {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// ParseConvention parses "ascending" or "descending".
func ParseConvention(s string) (Convention, error) {
	switch s {
	case "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	}
	return 0, fmt.Errorf("unknown decile convention %q", s)
}

// Ranks returns the 1-based ascending rank of each probability. Equal values
// are ranked in original row order, so every row gets a distinct rank.
func Ranks(probs []float64) []int {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	ranks := make([]int, len(probs))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}

// DecileForRank maps an ascending rank r in 1..n to its ascending decile by
// cutting the rank range at the quantiles 1 + k(n-1)/10, k = 0..10, each bucket
// closed on the right. Integer arithmetic keeps the result exact:
// decile = ceil(10(r-1)/(n-1)), and rank 1 falls in decile 1.
func DecileForRank(r, n int) int {
	if n <= 1 || r <= 1 {
		return 1
	}
	num := NumDeciles * (r - 1)
	den := n - 1
	d := (num + den - 1) / den
	if d < 1 {
		d = 1
	}
	if d > NumDeciles {
		d = NumDeciles
	}
	return d
}

// Deciles assigns a decile to each probability under the given convention.
// Returns the deciles and the ascending ranks they were derived from.
func Deciles(probs []float64, conv Convention) ([]int, []int, error) {
	if conv != Ascending && conv != Descending {
		return nil, nil, fmt.Errorf("decile convention must be set explicitly, got %v", conv)
	}
	ranks := Ranks(probs)
	deciles := make([]int, len(probs))
	for i, r := range ranks {
		d := DecileForRank(r, len(probs))
		if conv == Descending {
			d = NumDeciles + 1 - d
		}
		deciles[i] = d
	}
	return deciles, ranks, nil
}
