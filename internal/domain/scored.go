package domain

// ScoredCustomer is the scoring output for one customer.
type ScoredCustomer struct {
	CustomerID  string
	Probability float64 // in [0, 1]
	Decile      int     // 1..10 under the convention used for scoring
	Rank        int     // 1-based ascending rank, ties by original order
}

// HoldoutRow is one evaluation row of the training holdout report.
type HoldoutRow struct {
	CustomerID  string
	Features    []float64 // FeatureNames order
	Label       int
	Probability float64
	Decile      int
}
