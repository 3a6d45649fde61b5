package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	expirychecker "github.com/magabrotheeeer/membership-registry/internal/app/expiry-checker"
	"github.com/magabrotheeeer/membership-registry/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting expiry-checker", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := expirychecker.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize expiry checker", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("expiry checker stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("expiry-checker stopped gracefully")
}
