package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/internal/cron"
	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db"
	"github.com/angelmondragon/yardops-backend/pkg/gcalendar"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/metrics"
	"github.com/angelmondragon/yardops-backend/pkg/migrate"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	yardMetrics := metrics.NewYardMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker", cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outboxRepo, logg)

	receivingService, err := receiving.NewService(receiving.ServiceParams{
		Repo:    receiving.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Outbox:  outboxService,
		Metrics: yardMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create receiving service", err)
		os.Exit(1)
	}

	calendarClient, err := gcalendar.NewClient(context.Background(), cfg.Calendar, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap calendar client", err)
		os.Exit(1)
	}
	calendarService, err := calendar.NewService(calendar.ServiceParams{
		Repo:       calendar.NewRepository(dbClient.DB()),
		Tx:         dbClient,
		Scheduler:  calendarClient,
		Outbox:     outboxService,
		Metrics:    yardMetrics,
		Logger:     logg,
		SlotLength: cfg.Calendar.DefaultSlot,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create calendar service", err)
		os.Exit(1)
	}

	settlementJob, err := cron.NewSettlementRecoveryJob(cron.SettlementRecoveryJobParams{
		Logger:    logg,
		Receiving: receivingService,
		Lookback:  cfg.Cron.RecoveryLookback,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement recovery job", err)
		os.Exit(1)
	}
	resyncJob, err := cron.NewCalendarResyncJob(cron.CalendarResyncJobParams{
		Logger:    logg,
		Calendar:  calendarService,
		BatchSize: cfg.Cron.BatchSize,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create calendar resync job", err)
		os.Exit(1)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:       logg,
		DB:           dbClient,
		Repository:   outboxRepo,
		DLQ:          outbox.NewDLQRepository(dbClient.DB()),
		Retention:    cfg.Outbox.Retention,
		DLQRetention: cfg.Outbox.DLQRetention,
		MinAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(settlementJob, resyncJob, retentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	stopMetrics := metrics.Serve(ctx, cfg.App.MetricsAddr, logg)
	defer stopMetrics()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
