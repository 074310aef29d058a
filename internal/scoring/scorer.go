package scoring

import (
	"fmt"
	"math"
	"sort"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/model"
)

// Score applies the predictor to every record and assigns deciles.
// Absent feature values are scored as 0; no row is dropped.
// Results are returned in input order.
func Score(records []domain.FeatureRecord, p model.Predictor, conv Convention) ([]domain.ScoredCustomer, error) {
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([][]float64, len(records))
	for i, r := range records {
		rows[i] = r.Vector()
	}

	probs, err := p.PredictProba(rows)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	if err := CheckProbabilities(probs, len(rows)); err != nil {
		return nil, err
	}

	deciles, ranks, err := Deciles(probs, conv)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ScoredCustomer, len(records))
	for i, r := range records {
		out[i] = domain.ScoredCustomer{
			CustomerID:  r.CustomerID,
			Probability: probs[i],
			Decile:      deciles[i],
			Rank:        ranks[i],
		}
	}
	return out, nil
}

// ScoreFeatures scores fully populated feature vectors.
func ScoreFeatures(feats []domain.CustomerFeatures, p model.Predictor, conv Convention) ([]domain.ScoredCustomer, error) {
	records := make([]domain.FeatureRecord, len(feats))
	for i, f := range feats {
		records[i] = f.Record()
	}
	return Score(records, p, conv)
}

// CheckProbabilities verifies the predictor returned want values in [0, 1].
func CheckProbabilities(probs []float64, want int) error {
	if len(probs) != want {
		return fmt.Errorf("predictor returned %d probabilities for %d rows", len(probs), want)
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("predictor returned probability %v for row %d, outside [0, 1]", p, i)
		}
	}
	return nil
}

// SortByRank returns a copy of scored ordered by ascending rank.
func SortByRank(scored []domain.ScoredCustomer) []domain.ScoredCustomer {
	out := make([]domain.ScoredCustomer, len(scored))
	copy(out, scored)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Rank < out[j].Rank
	})
	return out
}
