// Package training joins features with labels, fits a classifier and
// evaluates it on a stratified holdout.
package training

import (
	"fmt"
	"sort"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/metrics"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/scoring"
)

// HoldoutConvention is the decile labeling used by the holdout report:
// decile 1 holds the customers most likely to purchase again.
const HoldoutConvention = scoring.Descending

// Metrics summarizes one training run.
type Metrics struct {
	AUC              float64
	AveragePrecision float64
	TrainSize        int
	HoldoutSize      int
	TrainPositives   int
	HoldoutPositives int
	Join             JoinStats
}

// Result is the output of Train.
type Result struct {
	Classifier model.Classifier
	Metrics    Metrics
	Holdout    []domain.HoldoutRow // ordered by probability descending, ties by reverse join order
}

// Train joins features and labels, splits them, fits clf on the training rows
// and evaluates it on the holdout. An impossible stratified split fails with
// *domain.InsufficientDataError before clf is touched.
func Train(feats []domain.CustomerFeatures, labels []domain.LabelRecord, cfg SplitConfig, clf model.Classifier) (*Result, error) {
	examples, stats, err := Join(feats, labels)
	if err != nil {
		return nil, fmt.Errorf("join features and labels: %w", err)
	}

	y := make([]int, len(examples))
	for i, ex := range examples {
		y[i] = ex.Label
	}

	trainIdx, holdoutIdx, err := StratifiedSplit(y, cfg)
	if err != nil {
		return nil, err
	}

	trainX, trainY := gather(examples, trainIdx)
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	holdX, holdY := gather(examples, holdoutIdx)
	probs, err := clf.PredictProba(holdX)
	if err != nil {
		return nil, fmt.Errorf("predict holdout: %w", err)
	}
	if err := scoring.CheckProbabilities(probs, len(holdX)); err != nil {
		return nil, err
	}

	auc, err := metrics.ROCAUC(holdY, probs)
	if err != nil {
		return nil, fmt.Errorf("holdout auc: %w", err)
	}
	ap, err := metrics.AveragePrecision(holdY, probs)
	if err != nil {
		return nil, fmt.Errorf("holdout average precision: %w", err)
	}

	holdout, err := holdoutReport(examples, holdoutIdx, probs)
	if err != nil {
		return nil, err
	}

	return &Result{
		Classifier: clf,
		Metrics: Metrics{
			AUC:              auc,
			AveragePrecision: ap,
			TrainSize:        len(trainIdx),
			HoldoutSize:      len(holdoutIdx),
			TrainPositives:   sum(trainY),
			HoldoutPositives: sum(holdY),
			Join:             stats,
		},
		Holdout: holdout,
	}, nil
}

func holdoutReport(examples []Example, idx []int, probs []float64) ([]domain.HoldoutRow, error) {
	deciles, ranks, err := scoring.Deciles(probs, HoldoutConvention)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.HoldoutRow, len(idx))
	for k, i := range idx {
		ex := examples[i]
		rows[k] = domain.HoldoutRow{
			CustomerID:  ex.Features.CustomerID,
			Features:    ex.Features.Vector(),
			Label:       ex.Label,
			Probability: probs[k],
			Decile:      deciles[k],
		}
	}

	// Highest ascending rank first. Tied rows come out in reverse join order,
	// which keeps deciles non-decreasing down the table.
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return ranks[order[a]] > ranks[order[b]]
	})
	sorted := make([]domain.HoldoutRow, len(rows))
	for pos, i := range order {
		sorted[pos] = rows[i]
	}
	return sorted, nil
}

func gather(examples []Example, idx []int) ([][]float64, []int) {
	x := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for k, i := range idx {
		x[k] = examples[i].Features.Vector()
		y[k] = examples[i].Label
	}
	return x, y
}

func sum(v []int) int {
	s := 0
	for _, x := range v {
		s += x
	}
	return s
}
