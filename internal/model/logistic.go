package model

import (
	"fmt"
	"math"
)

// Logistic regression defaults.
const (
	DefaultC            = 1.0
	DefaultMaxIter      = 1000
	DefaultLearningRate = 0.5
	DefaultTolerance    = 1e-8
)

// KindLogisticRegression identifies logistic regression artifacts.
const KindLogisticRegression = "logistic_regression"

// LogisticRegressionOptions configures training.
type LogisticRegressionOptions struct {
	C            float64 // inverse L2 strength; <= 0 means DefaultC
	MaxIter      int
	LearningRate float64
	Tolerance    float64 // stop when the largest gradient component falls below this
}

// LogisticRegression is an L2-regularized binary logistic model trained with
// full-batch gradient descent on standardized features. Training is deterministic.
type LogisticRegression struct {
	opts    LogisticRegressionOptions
	weights []float64
	bias    float64
	mean    []float64
	scale   []float64
	iters   int
}

// NewLogisticRegression creates an untrained model.
func NewLogisticRegression(opts LogisticRegressionOptions) *LogisticRegression {
	if opts.C <= 0 {
		opts.C = DefaultC
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = DefaultMaxIter
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultLearningRate
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return &LogisticRegression{opts: opts}
}

var _ Classifier = (*LogisticRegression)(nil)

// Fit trains on rows with 0/1 labels.
func (m *LogisticRegression) Fit(rows [][]float64, labels []int) error {
	n := len(rows)
	if n == 0 || n != len(labels) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrShape, n, len(labels))
	}
	d := len(rows[0])
	for i, r := range rows {
		if len(r) != d {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(r), d)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return fmt.Errorf("label %d at row %d is not 0 or 1", labels[i], i)
		}
	}

	m.mean, m.scale = standardization(rows, d)
	x := make([][]float64, n)
	for i, r := range rows {
		x[i] = m.standardize(r)
	}

	w := make([]float64, d)
	b := 0.0
	grad := make([]float64, d)
	penalty := 1 / (m.opts.C * float64(n))

	m.iters = 0
	for iter := 0; iter < m.opts.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0
		for i, xi := range x {
			diff := sigmoid(dot(w, xi)+b) - float64(labels[i])
			for j, v := range xi {
				grad[j] += diff * v
			}
			gradB += diff
		}

		maxGrad := math.Abs(gradB / float64(n))
		for j := range w {
			g := grad[j]/float64(n) + penalty*w[j]
			w[j] -= m.opts.LearningRate * g
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		b -= m.opts.LearningRate * gradB / float64(n)

		m.iters = iter + 1
		if maxGrad < m.opts.Tolerance {
			break
		}
	}

	m.weights = w
	m.bias = b
	return nil
}

// PredictProba returns P(label=1) for each row.
func (m *LogisticRegression) PredictProba(rows [][]float64) ([]float64, error) {
	if m.weights == nil {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(m.weights) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(r), len(m.weights))
		}
		out[i] = sigmoid(dot(m.weights, m.standardize(r)) + m.bias)
	}
	return out, nil
}

// Iterations returns the number of gradient steps taken by the last Fit.
func (m *LogisticRegression) Iterations() int { return m.iters }

func (m *LogisticRegression) standardize(r []float64) []float64 {
	out := make([]float64, len(r))
	for j, v := range r {
		out[j] = (v - m.mean[j]) / m.scale[j]
	}
	return out
}

// standardization returns per-column mean and population stddev.
// Constant columns get scale 1 so they standardize to 0.
func standardization(rows [][]float64, d int) ([]float64, []float64) {
	n := float64(len(rows))
	mean := make([]float64, d)
	scale := make([]float64, d)
	for _, r := range rows {
		for j, v := range r {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}
	for _, r := range rows {
		for j, v := range r {
			diff := v - mean[j]
			scale[j] += diff * diff
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
