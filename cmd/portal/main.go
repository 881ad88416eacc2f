package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/feedlot-portal/internal/telemetry"
	"github.com/tjfontaine/feedlot-portal/pkg/portal"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional)")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := portal.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName, os.Stderr, logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	p, err := portal.New(
		portal.WithConfig(cfg),
		portal.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create portal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		log.Fatalf("Failed to start portal: %v", err)
	}

	logger.Info("Portal started successfully",
		slog.String("mode", string(p.Mode())),
		slog.String("addr", p.Addr()))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping portal...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := p.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Portal shutdown complete")
}
