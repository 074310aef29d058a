package verification

import (
	"context"
	"fmt"
	"sort"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/storage"
)

// ScoreVerifier implements Verifier over the feature and score stores.
type ScoreVerifier struct {
	features  storage.FeatureStore
	scores    storage.ScoreStore
	predictor model.Predictor
}

// ScoreVerifierOptions contains configuration for creating a ScoreVerifier.
type ScoreVerifierOptions struct {
	FeatureStore storage.FeatureStore
	ScoreStore   storage.ScoreStore
	Predictor    model.Predictor // the model the run was scored with
}

// NewScoreVerifier creates a new ScoreVerifier.
func NewScoreVerifier(opts ScoreVerifierOptions) *ScoreVerifier {
	return &ScoreVerifier{
		features:  opts.FeatureStore,
		scores:    opts.ScoreStore,
		predictor: opts.Predictor,
	}
}

var _ Verifier = (*ScoreVerifier)(nil)

// VerifyRun re-scores the stored feature table with the inference convention
// and compares each customer with the stored snapshot.
// Features are re-sorted by customer_id in byte order, the order they were
// scored in, so tied ranks do not depend on the store's collation.
func (v *ScoreVerifier) VerifyRun(ctx context.Context, runID string) (*Report, error) {
	feats, err := v.features.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	sort.SliceStable(feats, func(i, j int) bool {
		return feats[i].CustomerID < feats[j].CustomerID
	})
	stored, err := v.scores.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}

	replayed, err := scoring.ScoreFeatures(feats, v.predictor, scoring.Ascending)
	if err != nil {
		return nil, fmt.Errorf("replay scores: %w", err)
	}

	byCustomer := make(map[string]domain.ScoredCustomer, len(replayed))
	for _, s := range replayed {
		byCustomer[s.CustomerID] = s
	}

	report := &Report{RunID: runID, TotalCustomers: len(replayed)}
	seen := make(map[string]bool, len(stored))
	for _, s := range stored {
		seen[s.CustomerID] = true
		r, ok := byCustomer[s.CustomerID]
		if !ok {
			report.UnexpectedScores = append(report.UnexpectedScores, s.CustomerID)
			continue
		}

		divergences := CompareScores(s, r)
		if len(divergences) == 0 {
			report.MatchedCustomers++
			continue
		}
		report.DivergentCustomers++
		report.Results = append(report.Results, Result{
			CustomerID:          s.CustomerID,
			Match:               false,
			Divergences:         divergences,
			StoredProbability:   s.Probability,
			ReplayedProbability: r.Probability,
		})
	}

	for _, f := range feats {
		if !seen[f.CustomerID] {
			report.MissingScores = append(report.MissingScores, f.CustomerID)
		}
	}

	return report, nil
}
