package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/yardops-backend/api/routes"
	"github.com/angelmondragon/yardops-backend/internal/approvals"
	"github.com/angelmondragon/yardops-backend/internal/calendar"
	"github.com/angelmondragon/yardops-backend/internal/capacity"
	"github.com/angelmondragon/yardops-backend/internal/receiving"
	"github.com/angelmondragon/yardops-backend/internal/reservations"
	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db"
	"github.com/angelmondragon/yardops-backend/pkg/env"
	"github.com/angelmondragon/yardops-backend/pkg/gcalendar"
	"github.com/angelmondragon/yardops-backend/pkg/instance"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/metrics"
	"github.com/angelmondragon/yardops-backend/pkg/migrate"
	"github.com/angelmondragon/yardops-backend/pkg/outbox"
	"github.com/angelmondragon/yardops-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	calendarClient, err := gcalendar.NewClient(context.Background(), cfg.Calendar, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap calendar client", err)
		os.Exit(1)
	}

	yardMetrics := metrics.NewYardMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	reservationsRepo := reservations.NewRepository(dbClient.DB())
	reservationsService, err := reservations.NewService(reservationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservations service", err)
		os.Exit(1)
	}

	capacityService, err := capacity.NewService(capacity.NewRepository(dbClient.DB()), reservationsRepo, nil)
	if err != nil {
		logg.Error(context.Background(), "failed to create capacity service", err)
		os.Exit(1)
	}

	approvalsService, err := approvals.NewService(approvals.ServiceParams{
		Repo:     approvals.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Resolver: reservationsService,
		Outbox:   outboxService,
		Metrics:  yardMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create approvals service", err)
		os.Exit(1)
	}

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

	addr := ":" + env.Get("PORT", cfg.App.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			redisClient,
			promhttp.Handler(),
			capacityService,
			reservationsService,
			approvalsService,
			receivingService,
			calendarService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
