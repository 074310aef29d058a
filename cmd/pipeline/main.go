// Package main runs the end-to-end repeat-purchase pipeline:
// ingest → features → labels → train → score → report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/observability"
	"repeat-purchase-lab/internal/pipeline"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	configPath := flag.String("config", config.DefaultPath(), "Path to YAML config")
	transactions := flag.String("transactions", "", "Transaction CSV (overrides config)")
	outputDir := flag.String("output-dir", "", "Output directory (overrides config)")
	artifact := flag.String("artifact", "", "Model artifact path (overrides config)")
	horizon := flag.Int("horizon-days", 0, "Label horizon in days (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *transactions != "" {
		cfg.Data.TransactionsPath = *transactions
	}
	if *outputDir != "" {
		cfg.Data.OutputDir = *outputDir
	}
	if *artifact != "" {
		cfg.Model.ArtifactPath = *artifact
	}
	if *horizon > 0 {
		cfg.Labeling.HorizonDays = *horizon
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn("received signal, cancelling pipeline", "signal", sig.String())
		cancel()
	}()

	stores, cleanup, err := pipeline.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("failed to open stores", "error", err)
	}
	defer cleanup()

	p := pipeline.New(pipeline.Options{
		TransactionsPath: cfg.Data.TransactionsPath,
		OutputDir:        cfg.Data.OutputDir,
		ArtifactPath:     cfg.Model.ArtifactPath,
		HorizonDays:      cfg.Labeling.HorizonDays,
		Split:            cfg.SplitConfig(),
		Model:            cfg.ModelOptions(),
		Stores:           stores,
		Logger:           log,
		Metrics:          observability.DefaultMetrics,
	})

	result, err := p.Run(ctx)
	if err != nil {
		log.Error("pipeline failed", "error", err)
		cleanup()
		os.Exit(1)
	}

	fmt.Println("=== Pipeline Complete ===")
	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Data version:  %s\n", result.DataVersion)
	fmt.Printf("  Model ID:      %s\n", result.ModelID)
	fmt.Printf("  Cutoff:        %s\n", result.Cutoff.Format("2006-01-02"))
	fmt.Printf("  Holdout AUC:   %.4f\n", result.Metrics.AUC)
	fmt.Printf("  Holdout AP:    %.4f\n", result.Metrics.AveragePrecision)
	fmt.Printf("  Report:        %s\n", result.Files.Report)
}
