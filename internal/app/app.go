// Package app wires the scheduling services onto Postgres and Redis for the
// binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clock"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/identity"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/notify"
	redisclient "github.com/hackgods/clinic-scheduling/internal/redis"
	"github.com/hackgods/clinic-scheduling/internal/sweeper"
)

// App holds the connected stores and the services built on them.
type App struct {
	Config   config.Config
	Log      *logrus.Logger
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Registry *prometheus.Registry

	Directory    *identity.PgDirectory
	Schedule     *availability.PgRepository
	Appointments *appointment.PgRepository

	Dispatcher   *notify.Dispatcher
	Availability *availability.Service
	Booking      *appointment.Service
	Sweeper      *sweeper.Sweeper
}

// Connect opens Postgres and Redis and builds every service. appName tags the
// Postgres sessions. The notification dispatcher is created but not started;
// callers that want mail delivered call Start.
func Connect(ctx context.Context, appName string, cfg config.Config, log *logrus.Logger) (*App, error) {
	pgCtx, cancelPg := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
		AppName:  appName,
		MaxConns: cfg.PostgresMaxConns,
	})
	cancelPg()
	if err != nil {
		return nil, fmt.Errorf("postgres connection: %w", err)
	}
	log.Debug("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(ctx, redisclient.ClientOptions{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	log.Debug("connected to Redis")

	a := &App{
		Config:       cfg,
		Log:          log,
		Pool:         pool,
		Redis:        rdb,
		Registry:     prometheus.NewRegistry(),
		Directory:    identity.NewPgDirectory(pool),
		Schedule:     availability.NewPgRepository(pool),
		Appointments: appointment.NewPgRepository(pool),
	}
	a.wire()
	return a, nil
}

func (a *App) wire() {
	cfg := a.Config
	clk := clock.Real()
	locker := redisclient.NewRedisLocker(a.Redis, cfg.LockTTL)

	var sender notify.Sender
	if cfg.SMTPHost != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		sender = notify.NewLogSender(logger.Component(a.Log, "mail"))
	}

	a.Dispatcher = notify.NewDispatcher(a.Directory, sender, notify.NewMetrics(a.Registry), notify.Options{
		QueueSize: cfg.NotifyQueueSize,
		Workers:   cfg.NotifyWorkers,
		Rate:      cfg.NotifyRate,
		Burst:     cfg.NotifyBurst,
		Location:  cfg.Location,
	}, logger.Component(a.Log, "notify"))

	a.Availability = availability.NewService(a.Schedule, a.Directory, locker, clk, cfg.Location,
		logger.Component(a.Log, "availability"))

	a.Booking = appointment.NewService(a.Appointments, a.Schedule, a.Directory, a.Dispatcher, locker, clk,
		appointment.Options{Location: cfg.Location, DefaultSlotMinutes: cfg.DefaultSlotMinutes},
		logger.Component(a.Log, "appointment"))

	a.Sweeper = sweeper.New(a.Appointments, a.Booking, a.Dispatcher, redisclient.NewRedisMarker(a.Redis), clk,
		sweeper.NewMetrics(a.Registry), sweeper.Options{
			ReminderInterval:     cfg.ReminderInterval,
			PurgeInterval:        cfg.PurgeInterval,
			AutoCompleteInterval: cfg.AutoCompleteInterval,
			Timeout:              cfg.SweepTimeout,
		}, logger.Component(a.Log, "sweeper"))
}

// Migrate applies pending schema migrations and logs what ran.
func (a *App) Migrate(ctx context.Context) error {
	applied, err := db.Migrate(ctx, a.Pool)
	if err != nil {
		return err
	}
	for _, name := range applied {
		a.Log.WithField("migration", name).Info("migration applied")
	}
	return nil
}

// Close drains the dispatcher and releases the connections.
func (a *App) Close() {
	a.Dispatcher.Close()
	if err := a.Redis.Close(); err != nil {
		a.Log.WithError(err).Warn("error closing redis")
	}
	a.Pool.Close()
}
