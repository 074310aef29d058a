// Package pipeline runs the full repeat-purchase workflow: ingest, featurize,
// label, train, score, verify and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"repeat-purchase-lab/internal/domain"
	"repeat-purchase-lab/internal/features"
	"repeat-purchase-lab/internal/idhash"
	"repeat-purchase-lab/internal/ingestion"
	"repeat-purchase-lab/internal/labeling"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/observability"
	"repeat-purchase-lab/internal/reporting"
	"repeat-purchase-lab/internal/storage"
	"repeat-purchase-lab/internal/training"
	"repeat-purchase-lab/internal/verification"
)

// Output file names inside the output directory.
const (
	FeaturesFileName = "features.csv"
	LabelsFileName   = "labels.csv"
	ScoredFileName   = "scored.csv"
	HoldoutFileName  = "holdout.csv"
	ArtifactFileName = "model.json"
)

// Stage names used in logs and metrics.
const (
	StageIngest   = "ingest"
	StageFeatures = "features"
	StageLabels   = "labels"
	StageTrain    = "train"
	StageScore    = "score"
	StageVerify   = "verify"
	StageReport   = "report"
)

// ErrVerificationFailed is returned when stored scores cannot be reproduced
// from the saved artifact.
var ErrVerificationFailed = errors.New("stored scores diverge from saved model")

// Options configures a Pipeline.
type Options struct {
	TransactionsPath string
	OutputDir        string
	ArtifactPath     string // defaults to OutputDir/model.json
	HorizonDays      int
	Split            training.SplitConfig
	Model            model.LogisticRegressionOptions

	Stores  *Stores                // defaults to MemoryStores()
	Logger  *logger.Logger         // defaults to a no-op logger
	Metrics *observability.Metrics // defaults to observability.DefaultMetrics
}

// Files lists the paths written by a run.
type Files struct {
	Features string
	Labels   string
	Scored   string
	Holdout  string
	Artifact string
	Report   string
}

// Result summarizes one pipeline run.
type Result struct {
	RunID        string
	DataVersion  string
	ModelID      string
	Cutoff       time.Time
	Metrics      training.Metrics
	Report       *reporting.Report
	Verification *verification.Report
	Files        Files
}

// Pipeline orchestrates one end-to-end run.
type Pipeline struct {
	opts  Options
	log   *logger.Logger
	m     *observability.Metrics
	clock func() time.Time
	runID func() string
}

// New creates a pipeline from opts.
func New(opts Options) *Pipeline {
	if opts.ArtifactPath == "" {
		opts.ArtifactPath = filepath.Join(opts.OutputDir, ArtifactFileName)
	}
	if opts.Stores == nil {
		opts.Stores = MemoryStores()
	}
	p := &Pipeline{
		opts:  opts,
		log:   opts.Logger,
		m:     opts.Metrics,
		clock: func() time.Time { return time.Now().UTC() },
		runID: uuid.NewString,
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	if p.m == nil {
		p.m = observability.DefaultMetrics
	}
	p.opts.Stores = p.opts.Stores.Instrument(p.m)
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// WithRunID sets the run identifier generator.
func (p *Pipeline) WithRunID(gen func() string) *Pipeline {
	p.runID = gen
	return p
}

// Run executes every stage in order and writes all outputs.
// Any stage failure aborts the run; files already written are left in place.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	res := &Result{
		RunID: p.runID(),
		Files: Files{
			Features: filepath.Join(p.opts.OutputDir, FeaturesFileName),
			Labels:   filepath.Join(p.opts.OutputDir, LabelsFileName),
			Scored:   filepath.Join(p.opts.OutputDir, ScoredFileName),
			Holdout:  filepath.Join(p.opts.OutputDir, HoldoutFileName),
			Artifact: p.opts.ArtifactPath,
			Report:   filepath.Join(p.opts.OutputDir, reporting.ReportFileName),
		},
	}
	log := p.log.With("run_id", res.RunID)
	log.Info("pipeline started", "transactions", p.opts.TransactionsPath, "output_dir", p.opts.OutputDir)

	// 1. Ingest
	var txs []domain.Transaction
	err := p.stage(log, StageIngest, func() error {
		var err error
		txs, err = ingestion.Load(p.opts.TransactionsPath)
		if err != nil {
			return err
		}
		res.DataVersion = idhash.ComputeDataVersion(txs)
		p.m.TransactionsLoaded.Add(float64(len(txs)))

		err = p.opts.Stores.Transactions.InsertBulk(ctx, res.DataVersion, txs)
		if errors.Is(err, storage.ErrDuplicateKey) {
			log.Info("transaction set already stored", "data_version", res.DataVersion)
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	// 2. Features
	var feats []domain.CustomerFeatures
	err = p.stage(log, StageFeatures, func() error {
		feats = features.Build(txs)
		p.m.CustomersFeaturized.Add(float64(len(feats)))
		if err := writeFeatures(res.Files.Features, feats); err != nil {
			return err
		}
		return p.opts.Stores.Features.InsertBulk(ctx, res.RunID, feats)
	})
	if err != nil {
		return nil, err
	}

	// 3. Labels
	var labels labeling.Result
	err = p.stage(log, StageLabels, func() error {
		var err error
		labels, err = labeling.Label(txs, p.opts.HorizonDays)
		if err != nil {
			return err
		}
		res.Cutoff = labels.Cutoff
		pos := labels.Positives()
		p.m.RecordLabels(pos, len(labels.Labels)-pos)
		if err := writeLabels(res.Files.Labels, labels.Labels); err != nil {
			return err
		}
		return p.opts.Stores.Labels.InsertBulk(ctx, res.RunID, labels.Labels)
	})
	if err != nil {
		return nil, err
	}

	// 4. Train
	var trained *TrainOutput
	err = p.stage(log, StageTrain, func() error {
		var err error
		trained, err = train(feats, labels.Labels, res.Files.Artifact, res.Files.Holdout, p.opts.Split, p.opts.Model, p.clock())
		if err != nil {
			return err
		}
		res.Metrics = trained.Training.Metrics
		res.ModelID = idhash.ComputeModelID(trained.Artifact)
		p.m.RecordJoin(res.Metrics.Join.DroppedFeatures, res.Metrics.Join.DroppedLabels)
		p.m.RecordHoldout(res.Metrics.AUC, res.Metrics.AveragePrecision)
		log.Info("model trained",
			"model_id", res.ModelID,
			"auc", res.Metrics.AUC,
			"average_precision", res.Metrics.AveragePrecision,
			"train_size", res.Metrics.TrainSize,
			"holdout_size", res.Metrics.HoldoutSize,
			"iterations", trained.Iterations,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. Score every customer with the fitted model
	var scored []domain.ScoredCustomer
	err = p.stage(log, StageScore, func() error {
		var err error
		scored, err = score(feats, trained.Training.Classifier, res.Files.Scored)
		if err != nil {
			return err
		}
		p.m.CustomersScored.Add(float64(len(scored)))
		return p.opts.Stores.Scores.InsertBulk(ctx, res.RunID, scored)
	})
	if err != nil {
		return nil, err
	}

	// 6. Replay stored scores through the saved artifact
	err = p.stage(log, StageVerify, func() error {
		saved, err := model.LoadFile(res.Files.Artifact)
		if err != nil {
			return err
		}
		v := verification.NewScoreVerifier(verification.ScoreVerifierOptions{
			FeatureStore: p.opts.Stores.Features,
			ScoreStore:   p.opts.Stores.Scores,
			Predictor:    saved,
		})
		res.Verification, err = v.VerifyRun(ctx, res.RunID)
		if err != nil {
			return err
		}
		if !res.Verification.OK() {
			return fmt.Errorf("%w: %d divergent, %d missing, %d unexpected", ErrVerificationFailed,
				res.Verification.DivergentCustomers, len(res.Verification.MissingScores), len(res.Verification.UnexpectedScores))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 7. Report
	err = p.stage(log, StageReport, func() error {
		res.Report = reporting.NewGenerator().WithClock(p.clock).Generate(reporting.Input{
			RunID:        res.RunID,
			DataVersion:  res.DataVersion,
			ModelID:      res.ModelID,
			Transactions: txs,
			Features:     feats,
			Labels:       labels,
			Training:     trained.Training,
			Scored:       scored,
			Verification: res.Verification,
		})
		if err := os.WriteFile(res.Files.Report, []byte(reporting.RenderMarkdown(res.Report)), 0644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		p.m.ReportsGenerated.Inc()
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.m.MarkPipelineSuccess(p.clock())
	log.Info("pipeline finished", "report", res.Files.Report)
	return res, nil
}

// stage runs fn, recording its duration and outcome.
func (p *Pipeline) stage(log *logger.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.m.RecordStage(name, start, err)
	if err != nil {
		log.Error("stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug("stage finished", "stage", name, "duration", time.Since(start))
	return nil
}
