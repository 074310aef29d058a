// Package main replays a stored scoring run through a model artifact and
// reports customers whose stored scores cannot be reproduced.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/pipeline"
	"repeat-purchase-lab/internal/verification"
)

func main() {
	config.LoadEnvFile(".env")

	configPath := flag.String("config", config.DefaultPath(), "Path to YAML config")
	runID := flag.String("run-id", "", "Pipeline run id to verify (required)")
	artifact := flag.String("artifact", "", "Model artifact path (overrides config)")
	flag.Parse()

	if *runID == "" {
		fmt.Fprintln(os.Stderr, "--run-id is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *artifact != "" {
		cfg.Model.ArtifactPath = *artifact
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Storage.PostgresDSN == "" || cfg.Storage.ClickhouseDSN == "" {
		log.Fatal("verification reads persisted runs; set storage.postgres_dsn and storage.clickhouse_dsn")
	}

	ctx := context.Background()
	stores, cleanup, err := pipeline.OpenStores(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal("failed to open stores", "error", err)
	}
	defer cleanup()

	lr, err := model.LoadFile(cfg.Model.ArtifactPath)
	if err != nil {
		log.Fatal("failed to load model", "error", err)
	}

	v := verification.NewScoreVerifier(verification.ScoreVerifierOptions{
		FeatureStore: stores.Features,
		ScoreStore:   stores.Scores,
		Predictor:    lr,
	})
	report, err := v.VerifyRun(ctx, *runID)
	if err != nil {
		log.Fatal("verification failed", "error", err)
	}

	fmt.Printf("Run %s: %d customers, %d matched, %d divergent\n",
		report.RunID, report.TotalCustomers, report.MatchedCustomers, report.DivergentCustomers)
	for _, r := range report.Results {
		for _, d := range r.Divergences {
			fmt.Printf("  %s %s: stored=%v replayed=%v\n", r.CustomerID, d.Field, d.Expected, d.Actual)
		}
	}
	if len(report.MissingScores) > 0 {
		fmt.Printf("  missing scores: %v\n", report.MissingScores)
	}
	if len(report.UnexpectedScores) > 0 {
		fmt.Printf("  unexpected scores: %v\n", report.UnexpectedScores)
	}

	if !report.OK() {
		cleanup()
		os.Exit(1)
	}
}
