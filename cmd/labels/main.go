// Package main assigns repeat-purchase labels against the global cutoff.
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
	horizon := flag.Int("horizon-days", 0, "Label horizon in days (overrides config)")
	out := flag.String("out", "", "Label CSV to write (default <output-dir>/labels.csv)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *transactions != "" {
		cfg.Data.TransactionsPath = *transactions
	}
	if *horizon > 0 {
		cfg.Labeling.HorizonDays = *horizon
	}
	if *out == "" {
		*out = filepath.Join(cfg.Data.OutputDir, pipeline.LabelsFileName)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	res, err := pipeline.BuildLabels(cfg.Data.TransactionsPath, *out, cfg.Labeling.HorizonDays)
	if err != nil {
		log.Fatal("labeling failed", "error", err)
	}
	log.Info("labels written",
		"cutoff", res.Cutoff.Format("2006-01-02"),
		"labeled", len(res.Labels),
		"positives", res.Positives(),
		"excluded", res.Excluded,
		"path", *out,
	)
}
