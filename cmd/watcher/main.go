package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rankdelta/internal/config"
	"rankdelta/internal/infrastructure"
	"rankdelta/internal/pipeline"
	"rankdelta/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults apply when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := os.MkdirAll(cfg.Pipeline.DataDir, 0755); err != nil {
		logger.Error("Failed to create data directory",
			slog.String("data_dir", cfg.Pipeline.DataDir),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	runner := pipeline.NewRunner(cfg, logger)
	w, err := watcher.New(runner, cfg.Pipeline.DataDir, cfg.Watch.Debounce.Std(), logger)
	if err != nil {
		logger.Error("Failed to start watcher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Watch(ctx); err != nil {
		logger.Error("Watcher terminated", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("watcher stopped")
}
