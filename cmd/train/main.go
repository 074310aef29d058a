// Package main trains the repeat-purchase classifier from stored feature and
// label tables and writes the model artifact plus the holdout report.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/idhash"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/pipeline"
)

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", config.DefaultPath(), "Path to YAML config")
	featuresPath := flag.String("features", "", "Feature CSV (default <output-dir>/features.csv)")
	labelsPath := flag.String("labels", "", "Label CSV (default <output-dir>/labels.csv)")
	artifact := flag.String("artifact", "", "Model artifact path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *featuresPath == "" {
		*featuresPath = filepath.Join(cfg.Data.OutputDir, pipeline.FeaturesFileName)
	}
	if *labelsPath == "" {
		*labelsPath = filepath.Join(cfg.Data.OutputDir, pipeline.LabelsFileName)
	}
	if *artifact != "" {
		cfg.Model.ArtifactPath = *artifact
	}
	holdoutPath := filepath.Join(cfg.Data.OutputDir, pipeline.HoldoutFileName)

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	out, err := pipeline.TrainModel(*featuresPath, *labelsPath, cfg.Model.ArtifactPath, holdoutPath,
		cfg.SplitConfig(), cfg.ModelOptions(), time.Now().UTC())
	if err != nil {
		log.Fatal("training failed", "error", err)
	}

	m := out.Training.Metrics
	log.Info("model trained",
		"model_id", idhash.ComputeModelID(out.Artifact),
		"artifact", cfg.Model.ArtifactPath,
		"auc", m.AUC,
		"average_precision", m.AveragePrecision,
		"train_size", m.TrainSize,
		"holdout_size", m.HoldoutSize,
		"iterations", out.Iterations,
		"dropped_features_only", m.Join.DroppedFeatures,
		"dropped_labels_only", m.Join.DroppedLabels,
	)
}
