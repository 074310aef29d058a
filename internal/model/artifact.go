package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"repeat-purchase-lab/internal/domain"
)

// Artifact is the serialized form of a trained logistic regression.
type Artifact struct {
	Kind      string    `json:"kind"`
	Features  []string  `json:"features"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Mean      []float64 `json:"mean"`
	Scale     []float64 `json:"scale"`
	TrainedAt time.Time `json:"trained_at"`
}

// Export captures the trained parameters. features names the columns in order.
func (m *LogisticRegression) Export(features []string, trainedAt time.Time) (*Artifact, error) {
	if m.weights == nil {
		return nil, ErrNotFitted
	}
	if len(features) != len(m.weights) {
		return nil, fmt.Errorf("%w: %d feature names for %d weights", ErrShape, len(features), len(m.weights))
	}
	return &Artifact{
		Kind:      KindLogisticRegression,
		Features:  append([]string(nil), features...),
		Weights:   append([]float64(nil), m.weights...),
		Bias:      m.bias,
		Mean:      append([]float64(nil), m.mean...),
		Scale:     append([]float64(nil), m.scale...),
		TrainedAt: trainedAt.UTC(),
	}, nil
}

// FromArtifact rebuilds a fitted model from its artifact.
func FromArtifact(a *Artifact) (*LogisticRegression, error) {
	if a.Kind != KindLogisticRegression {
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	d := len(a.Weights)
	if d == 0 || len(a.Features) != d || len(a.Mean) != d || len(a.Scale) != d {
		return nil, fmt.Errorf("%w: artifact parameter lengths disagree", ErrShape)
	}
	for j, s := range a.Scale {
		if s == 0 {
			return nil, fmt.Errorf("artifact scale for %s is zero", a.Features[j])
		}
	}
	m := NewLogisticRegression(LogisticRegressionOptions{})
	m.weights = append([]float64(nil), a.Weights...)
	m.bias = a.Bias
	m.mean = append([]float64(nil), a.Mean...)
	m.scale = append([]float64(nil), a.Scale...)
	return m, nil
}

// Marshal encodes the artifact as indented JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// SaveArtifact writes the artifact to path, creating parent directories.
// Returns the bytes written so callers can fingerprint them.
func SaveArtifact(path string, a *Artifact) ([]byte, error) {
	data, err := a.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	return data, nil
}

// LoadArtifact reads and validates an artifact.
// Both a missing and a corrupt file are reported as *domain.MissingArtifactError.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.MissingArtifactError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &domain.MissingArtifactError{Path: path, Err: fmt.Errorf("corrupt artifact: %w", err)}
	}
	return &a, nil
}

// LoadFile loads a fitted model from an artifact file and checks that its
// feature columns match the expected order.
func LoadFile(path string) (*LogisticRegression, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	if err := checkFeatures(a.Features, domain.FeatureNames); err != nil {
		return nil, &domain.MissingArtifactError{Path: path, Err: err}
	}
	m, err := FromArtifact(a)
	if err != nil {
		return nil, &domain.MissingArtifactError{Path: path, Err: err}
	}
	return m, nil
}

func checkFeatures(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("artifact has %d features, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("artifact feature %d is %q, want %q", i, got[i], want[i])
		}
	}
	return nil
}
