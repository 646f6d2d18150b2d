package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/chargeback/backend/internal/app"
	"github.com/vanshika/chargeback/backend/internal/config"
	"github.com/vanshika/chargeback/backend/internal/logging"
	"github.com/vanshika/chargeback/backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to initialise pipeline", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Warn("closing collaborators failed", "error", err)
		}
	}()

	apiHandlers := server.NewAPIHandlers(logger.With("component", "api"), application.Generator, application.Batch)
	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           application.Health,
		API:              apiHandlers,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins(),
		AllowCredentials: cfg.HTTP.AllowCredentials,
		JWTSecret:        cfg.HTTP.JWTSecret,
	})

	srv := server.New(logger, cfg.HTTP, router)
	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
