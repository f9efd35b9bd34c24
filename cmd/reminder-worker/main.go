package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/hospital-portal/internal/app"
	"github.com/hackgods/hospital-portal/internal/config"
	"github.com/hackgods/hospital-portal/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("", "info", "reminder-worker")
		bootLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "reminder-worker")

	// A memory store lives inside the api-server; a separate worker would
	// sweep an empty store of its own.
	if cfg.NotificationBackend != config.NotificationBackendRedis {
		logger.Fatal().
			Str("notification_backend", cfg.NotificationBackend).
			Msg("reminder-worker requires NOTIFICATION_BACKEND=redis")
	}

	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("window", cfg.ReminderWindow).
		Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	a.Sweeper.Run(rootCtx, cfg.WorkerInterval, 20*time.Second)
	logger.Info().Msg("reminder-worker stopped")
}
