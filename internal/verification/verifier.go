// Package verification replays a stored scoring run against a model artifact
// and reports any customer whose stored score cannot be reproduced.
package verification

import (
	"context"
	"math"

	"repeat-purchase-lab/internal/domain"
)

// FloatTolerance is the tolerance for probability comparisons.
const FloatTolerance = 1e-7

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string // field name
	Expected any    // stored value
	Actual   any    // replayed value
}

// Result is the verification of a single customer.
type Result struct {
	CustomerID          string
	Match               bool
	Divergences         []FieldDivergence
	StoredProbability   float64
	ReplayedProbability float64
}

// Report contains results for one run.
type Report struct {
	RunID              string
	TotalCustomers     int
	MatchedCustomers   int
	DivergentCustomers int
	MissingScores      []string // customers with features but no stored score
	UnexpectedScores   []string // customers with a stored score but no features
	Results            []Result // divergent customers only, in stored rank order
}

// OK reports whether every stored score was reproduced.
func (r *Report) OK() bool {
	return r.DivergentCustomers == 0 && len(r.MissingScores) == 0 && len(r.UnexpectedScores) == 0
}

// Verifier checks stored scoring runs.
type Verifier interface {
	// VerifyRun re-scores the run's stored features and compares every
	// customer against the stored scores.
	VerifyRun(ctx context.Context, runID string) (*Report, error)
}

// CompareScores compares two scored customers and returns divergences.
// Uses FloatTolerance for the probability.
func CompareScores(stored, replayed domain.ScoredCustomer) []FieldDivergence {
	var divergences []FieldDivergence

	if stored.CustomerID != replayed.CustomerID {
		divergences = append(divergences, FieldDivergence{
			Field:    "CustomerID",
			Expected: stored.CustomerID,
			Actual:   replayed.CustomerID,
		})
	}

	if !floatEquals(stored.Probability, replayed.Probability) {
		divergences = append(divergences, FieldDivergence{
			Field:    "Probability",
			Expected: stored.Probability,
			Actual:   replayed.Probability,
		})
	}

	if stored.Decile != replayed.Decile {
		divergences = append(divergences, FieldDivergence{
			Field:    "Decile",
			Expected: stored.Decile,
			Actual:   replayed.Decile,
		})
	}

	if stored.Rank != replayed.Rank {
		divergences = append(divergences, FieldDivergence{
			Field:    "Rank",
			Expected: stored.Rank,
			Actual:   replayed.Rank,
		})
	}

	return divergences
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
