package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load error")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{
		"env":                   cfg.Env,
		"http_port":             cfg.HTTPPort,
		"timezone":              cfg.Location.String(),
		"reminder_interval":     cfg.ReminderInterval.String(),
		"purge_interval":        cfg.PurgeInterval.String(),
		"autocomplete_interval": cfg.AutoCompleteInterval.String(),
	}).Info("scheduler-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Connect(rootCtx, "scheduler-worker", cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close()

	if err := a.Migrate(rootCtx); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	a.Dispatcher.Start(rootCtx)

	router := api.NewRouter(api.RouterConfig{
		Dependencies: []api.Dependency{
			{Name: "postgres", Pinger: a.Pool, Critical: true},
			{Name: "redis", Pinger: api.PingFunc(func(ctx context.Context) error {
				return a.Redis.Ping(ctx).Err()
			})},
		},
		Gatherer: a.Registry,
		Env:      cfg.Env,
		Version:  version,
		Log:      logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("ops endpoints listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server error")
			stop()
		}
	}()

	a.Sweeper.Run(rootCtx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown error")
	}

	log.Info("scheduler-worker stopped")
}
