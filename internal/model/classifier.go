// Package model holds the classifier capability, its logistic regression
// implementation and the serialized artifact.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned when predicting with an untrained classifier.
	ErrNotFitted = errors.New("classifier is not fitted")

	// ErrShape is returned when rows and labels disagree in size or width, or
	// when a predictor returns the wrong number of probabilities.
	ErrShape = errors.New("feature matrix shape mismatch")
)

// Predictor returns the positive-class probability for each feature row.
type Predictor interface {
	PredictProba(rows [][]float64) ([]float64, error)
}

// Classifier is a Predictor that can be trained.
type Classifier interface {
	Predictor
	Fit(rows [][]float64, labels []int) error
}

// PredictOne scores a single row. A predictor that does not return exactly
// one probability fails with ErrShape.
func PredictOne(p Predictor, row []float64) (float64, error) {
	probs, err := p.PredictProba([][]float64{row})
	if err != nil {
		return 0, err
	}
	if len(probs) != 1 {
		return 0, fmt.Errorf("%w: predictor returned %d probabilities for 1 row", ErrShape, len(probs))
	}
	return probs[0], nil
}
