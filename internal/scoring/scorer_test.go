package scoring

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repeat-purchase-lab/internal/domain"
)

type constPredictor float64

func (c constPredictor) PredictProba(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = float64(c)
	}
	return out, nil
}

// recencyPredictor maps the first feature (recency) into [0, 1] and records its input.
type recencyPredictor struct {
	seen [][]float64
}

func (r *recencyPredictor) PredictProba(rows [][]float64) ([]float64, error) {
	r.seen = rows
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = row[0] / 100
	}
	return out, nil
}

type badPredictor struct{ probs []float64 }

func (b badPredictor) PredictProba([][]float64) ([]float64, error) { return b.probs, nil }

type failingPredictor struct{}

func (failingPredictor) PredictProba([][]float64) ([]float64, error) {
	return nil, errors.New("model exploded")
}

func ptr(v float64) *float64 { return &v }

func TestScore_ConstantProbabilityHundredRows(t *testing.T) {
	records := make([]domain.FeatureRecord, 100)
	for i := range records {
		records[i] = domain.FeatureRecord{CustomerID: fmt.Sprintf("c%03d", i)}
	}

	scored, err := Score(records, constPredictor(0.42), Ascending)
	require.NoError(t, err)
	require.Len(t, scored, 100)

	sizes := map[int]int{}
	for i, s := range scored {
		assert.Equal(t, records[i].CustomerID, s.CustomerID)
		assert.Equal(t, i+1, s.Rank, "ties ranked by original order")
		assert.Equal(t, i/10+1, s.Decile)
		sizes[s.Decile]++
	}
	for d := 1; d <= 10; d++ {
		assert.Equal(t, 10, sizes[d])
	}
}

func TestScore_MissingValuesDefaultToZero(t *testing.T) {
	p := &recencyPredictor{}
	records := []domain.FeatureRecord{
		{CustomerID: "a", RecencyDays: ptr(50), Orders: ptr(3)},
		{CustomerID: "b"},
	}

	scored, err := Score(records, p, Ascending)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	assert.Equal(t, []float64{50, 3, 0, 0, 0, 0, 0}, p.seen[0])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0}, p.seen[1])
	assert.Equal(t, 0.5, scored[0].Probability)
	assert.Equal(t, 0.0, scored[1].Probability)
	assert.Equal(t, 10, scored[0].Decile)
	assert.Equal(t, 1, scored[1].Decile)
}

func TestScoreFeatures_UsesFeatureOrder(t *testing.T) {
	p := &recencyPredictor{}
	feats := []domain.CustomerFeatures{{
		CustomerID: "a", RecencyDays: 12, OrderCount: 2, MonetaryTotal: 30.5, TenureDays: 40,
		AvgDiscountRate: 0.1, ReturnRate: 0.25, CategoryDiversity: 3,
	}}

	scored, err := ScoreFeatures(feats, p, Ascending)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, []float64{12, 2, 30.5, 40, 0.1, 0.25, 3}, p.seen[0])
	assert.Equal(t, "a", scored[0].CustomerID)
}

func TestScore_Empty(t *testing.T) {
	scored, err := Score(nil, constPredictor(0.1), Ascending)
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestScore_RejectsBadProbabilities(t *testing.T) {
	records := []domain.FeatureRecord{{CustomerID: "a"}, {CustomerID: "b"}}

	_, err := Score(records, badPredictor{probs: []float64{0.1, 1.5}}, Ascending)
	assert.Error(t, err)

	_, err = Score(records, badPredictor{probs: []float64{0.1}}, Ascending)
	assert.Error(t, err)

	_, err = Score(records, failingPredictor{}, Ascending)
	assert.ErrorContains(t, err, "model exploded")
}

func TestSortByRank(t *testing.T) {
	scored := []domain.ScoredCustomer{
		{CustomerID: "a", Rank: 3},
		{CustomerID: "b", Rank: 1},
		{CustomerID: "c", Rank: 2},
	}
	sorted := SortByRank(scored)
	assert.Equal(t, "b", sorted[0].CustomerID)
	assert.Equal(t, "c", sorted[1].CustomerID)
	assert.Equal(t, "a", sorted[2].CustomerID)
	assert.Equal(t, "a", scored[0].CustomerID, "input not mutated")
}
