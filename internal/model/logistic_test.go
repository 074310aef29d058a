package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separable() ([][]float64, []int) {
	var rows [][]float64
	var labels []int
	for i := 0; i < 40; i++ {
		x := float64(i)
		rows = append(rows, []float64{x, 100 - x, 7})
		if i >= 20 {
			labels = append(labels, 1)
		} else {
			labels = append(labels, 0)
		}
	}
	return rows, labels
}

func TestLogisticRegression_SeparatesClasses(t *testing.T) {
	rows, labels := separable()
	m := NewLogisticRegression(LogisticRegressionOptions{})
	require.NoError(t, m.Fit(rows, labels))

	probs, err := m.PredictProba(rows)
	require.NoError(t, err)
	require.Len(t, probs, len(rows))

	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		if labels[i] == 1 {
			assert.Greater(t, p, 0.5, "row %d", i)
		} else {
			assert.Less(t, p, 0.5, "row %d", i)
		}
	}
	assert.Greater(t, probs[39], probs[0])
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	rows, labels := separable()

	a := NewLogisticRegression(LogisticRegressionOptions{MaxIter: 200})
	b := NewLogisticRegression(LogisticRegressionOptions{MaxIter: 200})
	require.NoError(t, a.Fit(rows, labels))
	require.NoError(t, b.Fit(rows, labels))

	pa, err := a.PredictProba(rows)
	require.NoError(t, err)
	pb, err := b.PredictProba(rows)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestLogisticRegression_Errors(t *testing.T) {
	m := NewLogisticRegression(LogisticRegressionOptions{})

	_, err := m.PredictProba([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrNotFitted)

	err = m.Fit(nil, nil)
	assert.ErrorIs(t, err, ErrShape)

	err = m.Fit([][]float64{{1}, {1, 2}}, []int{0, 1})
	assert.ErrorIs(t, err, ErrShape)

	err = m.Fit([][]float64{{1}, {2}}, []int{0, 2})
	assert.Error(t, err)

	require.NoError(t, m.Fit([][]float64{{1}, {2}}, []int{0, 1}))
	_, err = m.PredictProba([][]float64{{1, 2}})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestPredictOne(t *testing.T) {
	rows, labels := separable()
	m := NewLogisticRegression(LogisticRegressionOptions{})
	require.NoError(t, m.Fit(rows, labels))

	p, err := PredictOne(m, rows[30])
	require.NoError(t, err)

	all, err := m.PredictProba(rows)
	require.NoError(t, err)
	assert.Equal(t, all[30], p)
}

// fixedPredictor returns its probabilities regardless of the input.
type fixedPredictor []float64

func (f fixedPredictor) PredictProba([][]float64) ([]float64, error) {
	return f, nil
}

func TestPredictOne_WrongCount(t *testing.T) {
	for _, probs := range []fixedPredictor{nil, {}, {0.2, 0.3}} {
		_, err := PredictOne(probs, []float64{1})
		assert.ErrorIs(t, err, ErrShape, "predictor returning %v", []float64(probs))
	}
}

func TestSigmoid_Stable(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 1.0, sigmoid(800), 1e-12)
	assert.InDelta(t, 0.0, sigmoid(-800), 1e-12)
}
