package pipeline

import (
	"fmt"
	"io"
	"time"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/features"
	"repeat-purchase-lab/internal/ingestion"
	"repeat-purchase-lab/internal/labeling"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/reporting"
	"repeat-purchase-lab/internal/scoring"
	"repeat-purchase-lab/internal/training"
)

// Standalone stages read and write the same files as Pipeline.Run so they can
// be chained from the command line.

// BuildFeatures loads transactions and writes the feature table.
func BuildFeatures(transactionsPath, outPath string) ([]domain.CustomerFeatures, error) {
	txs, err := ingestion.Load(transactionsPath)
	if err != nil {
		return nil, err
	}
	feats := features.Build(txs)
	if err := writeFeatures(outPath, feats); err != nil {
		return nil, err
	}
	return feats, nil
}

// BuildLabels loads transactions and writes the label table.
func BuildLabels(transactionsPath, outPath string, horizonDays int) (labeling.Result, error) {
	txs, err := ingestion.Load(transactionsPath)
	if err != nil {
		return labeling.Result{}, err
	}
	res, err := labeling.Label(txs, horizonDays)
	if err != nil {
		return labeling.Result{}, err
	}
	if err := writeLabels(outPath, res.Labels); err != nil {
		return labeling.Result{}, err
	}
	return res, nil
}

// TrainOutput is the result of TrainModel.
type TrainOutput struct {
	Training   *training.Result
	Artifact   []byte
	Iterations int // gradient steps taken by the fit
}

// TrainModel fits a classifier on stored feature and label tables, saves the
// artifact and writes the holdout report.
func TrainModel(featuresPath, labelsPath, artifactPath, holdoutPath string, split training.SplitConfig, opts model.LogisticRegressionOptions, trainedAt time.Time) (*TrainOutput, error) {
	feats, err := reporting.ReadFile(featuresPath, reporting.ReadFeatures)
	if err != nil {
		return nil, err
	}
	labels, err := reporting.ReadFile(labelsPath, reporting.ReadLabels)
	if err != nil {
		return nil, err
	}
	return train(feats, labels, artifactPath, holdoutPath, split, opts, trainedAt)
}

// ScoreCustomers scores a stored feature table with a saved artifact and
// writes the scored table in rank order.
func ScoreCustomers(featuresPath, artifactPath, outPath string) ([]domain.ScoredCustomer, error) {
	feats, err := reporting.ReadFile(featuresPath, reporting.ReadFeatures)
	if err != nil {
		return nil, err
	}
	clf, err := model.LoadFile(artifactPath)
	if err != nil {
		return nil, err
	}
	return score(feats, clf, outPath)
}

func train(feats []domain.CustomerFeatures, labels []domain.LabelRecord, artifactPath, holdoutPath string, split training.SplitConfig, opts model.LogisticRegressionOptions, trainedAt time.Time) (*TrainOutput, error) {
	clf := model.NewLogisticRegression(opts)
	res, err := training.Train(feats, labels, split, clf)
	if err != nil {
		return nil, err
	}

	artifact, err := clf.Export(domain.FeatureNames, trainedAt)
	if err != nil {
		return nil, fmt.Errorf("export model: %w", err)
	}
	data, err := model.SaveArtifact(artifactPath, artifact)
	if err != nil {
		return nil, err
	}

	err = reporting.WriteFile(holdoutPath, func(w io.Writer) error {
		return reporting.WriteHoldout(w, res.Holdout)
	})
	if err != nil {
		return nil, err
	}
	return &TrainOutput{Training: res, Artifact: data, Iterations: clf.Iterations()}, nil
}

// score ranks every customer with the inference convention (decile 10 = most likely).
func score(feats []domain.CustomerFeatures, p model.Predictor, outPath string) ([]domain.ScoredCustomer, error) {
	scored, err := scoring.ScoreFeatures(feats, p, scoring.Ascending)
	if err != nil {
		return nil, err
	}
	err = reporting.WriteFile(outPath, func(w io.Writer) error {
		return reporting.WriteScored(w, scored)
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}

func writeFeatures(path string, feats []domain.CustomerFeatures) error {
	return reporting.WriteFile(path, func(w io.Writer) error {
		return reporting.WriteFeatures(w, feats)
	})
}

func writeLabels(path string, labels []domain.LabelRecord) error {
	return reporting.WriteFile(path, func(w io.Writer) error {
		return reporting.WriteLabels(w, labels)
	})
}
