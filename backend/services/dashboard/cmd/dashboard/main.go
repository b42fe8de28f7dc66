package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"equipviz/backend/libs/logging"
	"equipviz/backend/services/dashboard/internal/app"
	"equipviz/backend/services/dashboard/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init dashboard", zap.Error(err))
	}
	defer application.Close()

	logger.Info("dashboard configured",
		zap.String("addr", cfg.HTTPAddress()),
		zap.String("backend", cfg.BackendURL()),
		zap.String("auth_mode", cfg.Auth.Mode),
	)
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("dashboard stopped with error", zap.Error(err))
	}
}
