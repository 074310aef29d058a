// Package main serves repeat-purchase predictions from a trained model:
// /health, /predict, /predict/batch, /ws/predict and /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"repeat-purchase-lab/internal/config"
	"repeat-purchase-lab/internal/idhash"
	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/observability"
	"repeat-purchase-lab/internal/serving"
)

func main() {
	// Load .env file if exists
	config.LoadEnvFile(".env")

	configPath := flag.String("config", config.DefaultPath(), "Path to YAML config")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	artifact := flag.String("artifact", "", "Model artifact path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
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

	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	// The model is loaded once; a missing or corrupt artifact stops startup.
	srv, err := serving.NewServer(serving.Options{
		Cache:   model.NewCache(model.FileLoader(cfg.Model.ArtifactPath)),
		ModelID: modelID(cfg.Model.ArtifactPath),
		Logger:  log,
		Metrics: observability.DefaultMetrics,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		log.Fatal("failed to start server", "error", err, "artifact", cfg.Model.ArtifactPath)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router(),
	}
	httpServer.RegisterOnShutdown(srv.CloseStreams)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "addr", cfg.Server.Addr, "artifact", cfg.Model.ArtifactPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("HTTP server error", "error", err)
		}
	case <-ctx.Done():
		log.Info("received shutdown signal, draining connections", "timeout", cfg.Server.ShutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		return
	}
	log.Info("shutdown complete")
}

// modelID fingerprints the artifact bytes; empty when unreadable.
func modelID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return idhash.ComputeModelID(data)
}
