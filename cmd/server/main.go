package main

import (
	"log/slog"
	"os"

	"github.com/taskflow-ai/taskflow-api/internal/app"
	"github.com/taskflow-ai/taskflow-api/internal/config"
	"github.com/taskflow-ai/taskflow-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.GinMode)
	slog.SetDefault(log)

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Error("application stopped with error", "error", err)
		os.Exit(1)
	}
}
