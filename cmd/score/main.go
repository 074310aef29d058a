// Package main scores a feature table with a saved model artifact.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/pipeline"
)

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", config.DefaultPath(), "Path to YAML config")
	featuresPath := flag.String("features", "", "Feature CSV (default <output-dir>/features.csv)")
	artifact := flag.String("artifact", "", "Model artifact path (overrides config)")
	out := flag.String("out", "", "Scored CSV to write (default <output-dir>/scored.csv)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *featuresPath == "" {
		*featuresPath = filepath.Join(cfg.Data.OutputDir, pipeline.FeaturesFileName)
	}
	if *artifact != "" {
		cfg.Model.ArtifactPath = *artifact
	}
	if *out == "" {
		*out = filepath.Join(cfg.Data.OutputDir, pipeline.ScoredFileName)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	scored, err := pipeline.ScoreCustomers(*featuresPath, cfg.Model.ArtifactPath, *out)
	if err != nil {
		log.Fatal("scoring failed", "error", err)
	}
	log.Info("customers scored", "customers", len(scored), "path", *out)
}
