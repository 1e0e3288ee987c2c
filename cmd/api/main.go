package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propertydeals-backend/bootstrap"
	"propertydeals-backend/internal/config"
	"propertydeals-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Development: !cfg.IsProduction(), File: cfg.LogFile})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	rt, err := bootstrap.New(startCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("startup")
	}
	defer rt.Close()

	if err := rt.Rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")
	if rt.DB != nil {
		log.Info().Msg("Database connected")
	}

	app := rt.App()
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info().Str("port", cfg.Port).Str("ledger_mode", cfg.LedgerMode).
		Int("properties", rt.Coordinator.Registry.Len()).
		Msgf("Server running at http://localhost:%s (health: /health/json)", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
