// Package main builds the per-customer feature table from a transaction CSV.
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
	transactions := flag.String("transactions", "", "Transaction CSV (overrides config)")
	out := flag.String("out", "", "Feature CSV to write (default <output-dir>/features.csv)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *transactions != "" {
		cfg.Data.TransactionsPath = *transactions
	}
	if *out == "" {
		*out = filepath.Join(cfg.Data.OutputDir, pipeline.FeaturesFileName)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	feats, err := pipeline.BuildFeatures(cfg.Data.TransactionsPath, *out)
	if err != nil {
		log.Fatal("feature build failed", "error", err)
	}
	log.Info("features written", "customers", len(feats), "path", *out)
}
