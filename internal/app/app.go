// Package app wires configuration, connections and services for the
// server and worker processes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-portal/internal/appointment"
	"github.com/hackgods/hospital-portal/internal/config"
	"github.com/hackgods/hospital-portal/internal/db"
	"github.com/hackgods/hospital-portal/internal/eventlog"
	"github.com/hackgods/hospital-portal/internal/notification"
	"github.com/hackgods/hospital-portal/internal/prescription"
	"github.com/hackgods/hospital-portal/internal/record"
	redisclient "github.com/hackgods/hospital-portal/internal/redis"
	"github.com/hackgods/hospital-portal/internal/room"
)

type App struct {
	Config config.Config
	Logger zerolog.Logger

	Pool  *pgxpool.Pool
	Store *db.Store
	Redis *redis.Client // nil when Redis is unreachable and not required

	Appointments  *appointment.Service
	Rooms         *room.Service
	Prescriptions *prescription.Service
	Records       *record.Service
	Notifications notification.Store
	Sweeper       *notification.Sweeper
}

// Build connects to Postgres and Redis and constructs every service. Redis
// is mandatory only for the redis notification backend; otherwise a failed
// connection falls back to database-only slot protection.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	cancelPg()
	if err != nil {
		return nil, err
	}
	logger.Info().Int32("max_conns", cfg.DBMaxConns).Msg("connected to Postgres")

	a := &App{
		Config: cfg,
		Logger: logger,
		Pool:   pool,
		Store:  db.NewStore(db.OpenSQL(pool), logger),
	}

	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	switch {
	case err == nil:
		a.Redis = rdb
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	case cfg.NotificationBackend == config.NotificationBackendRedis:
		a.Close()
		return nil, fmt.Errorf("redis is required by the redis notification backend: %w", err)
	default:
		logger.Warn().Err(err).Msg("redis unavailable, slot locking falls back to the database constraint")
	}

	var locker redisclient.Locker = redisclient.LocalLocker{}
	if a.Redis != nil {
		locker = redisclient.NewRedisLocker(a.Redis, cfg.LockTTL)
	}

	events := eventlog.NewPgRecorder(a.Store, logger)

	a.Appointments = appointment.NewService(appointment.NewPgRepository(a.Store), a.Store, locker, events, logger)
	a.Rooms = room.NewService(room.NewPgRepository(a.Store), a.Store, events, logger)
	a.Prescriptions = prescription.NewService(prescription.NewPgRepository(a.Store), a.Store, events, logger)
	a.Records = record.NewService(record.NewPgRepository(a.Store), a.Appointments, a.Prescriptions, logger)

	if cfg.NotificationBackend == config.NotificationBackendRedis {
		a.Notifications = notification.NewRedisStore(a.Redis, nil)
	} else {
		a.Notifications = notification.NewMemoryStore(nil)
	}

	a.Sweeper = &notification.Sweeper{
		Scheduler:  notification.NewReminderScheduler(a.Appointments, a.Notifications, cfg.ReminderWindow, loc, logger),
		Dispatcher: notification.NewDispatcher(a.Notifications, notification.LogSender{Logger: logger}, logger),
		Logger:     logger.With().Str("component", "sweeper").Logger(),
	}

	return a, nil
}

// Close releases Redis and the Postgres pool.
func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("error closing redis")
		}
	}
	if a.Store != nil {
		_ = a.Store.DB().Close()
	}
	a.Pool.Close()
}
