package reporting

import (
	"time"

	"repeat-purchase-lab/internal/metrics"
)

// Report represents the training report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	DataVersion string
	ModelID     string

	// Labeling window
	HorizonDays int
	Cutoff      time.Time
	WindowEnd   time.Time

	DataSummary DataSummary
	Training    TrainingSection

	// Holdout customers grouped by decile (1 = most likely to purchase again)
	DecileLift []DecileLiftRow

	// Percentiles of the integer-valued features over all customers
	FeatureDistribution []FeatureDistributionRow

	// Distribution of inference probabilities over all scored customers
	ScoreDistribution metrics.Summary

	// Replay of stored scores through the saved artifact; nil when not run
	Verification *VerificationSection
}

// VerificationSection summarizes the stored-score replay.
type VerificationSection struct {
	Customers  int
	Matched    int
	Divergent  int
	Missing    int
	Unexpected int
}

// DataSummary contains data description.
type DataSummary struct {
	Transactions   int
	Customers      int
	Labeled        int
	Excluded       int // customers with no activity on or before the cutoff
	Positives      int
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// TrainingSection contains split sizes, join attrition and holdout metrics.
type TrainingSection struct {
	Joined           int
	DroppedFeatures  int // feature rows without a label
	DroppedLabels    int // label rows without features
	TrainSize        int
	HoldoutSize      int
	TrainPositives   int
	HoldoutPositives int
	AUC              float64
	AveragePrecision float64
}

// DecileLiftRow is one holdout decile.
type DecileLiftRow struct {
	Decile       int
	Customers    int
	Positives    int
	PositiveRate float64
	Lift         float64 // PositiveRate / holdout positive rate
	MeanProba    float64
}

// FeatureDistributionRow holds percentiles for one feature.
type FeatureDistributionRow struct {
	Feature string
	P10     int64
	P50     int64
	P90     int64
	Max     int64
}
