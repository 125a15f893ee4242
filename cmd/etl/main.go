package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"rankdelta/internal/config"
	"rankdelta/internal/infrastructure"
	"rankdelta/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults apply when empty)")
	inputs := flag.String("inputs", "", "comma-separated snapshot paths; bypasses directory discovery")
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

	var explicit []string
	if *inputs != "" {
		for _, p := range strings.Split(*inputs, ",") {
			if p = strings.TrimSpace(p); p != "" {
				explicit = append(explicit, p)
			}
		}
	}

	runner := pipeline.NewRunner(cfg, logger)
	outputPath, err := runner.Run(context.Background(), explicit)
	if err != nil {
		logger.Error("pipeline run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println(outputPath)
}
