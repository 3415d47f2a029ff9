package main

import (
	"context"
	"os"

	"SafetyDigest/internal/app"
	"SafetyDigest/internal/config"
	"SafetyDigest/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.Logging.Level)

	application := app.New(ctx, cfg, logger)

	if err := application.Run(ctx); err != nil {
		logger.Error("digest run failed", "error", err)
		os.Exit(1)
	}
}
