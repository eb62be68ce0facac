package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/yardops-backend/internal/notifications"
	"github.com/angelmondragon/yardops-backend/pkg/config"
	"github.com/angelmondragon/yardops-backend/pkg/db"
	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/pubsub"
	"github.com/angelmondragon/yardops-backend/pkg/redis"
)

type messageConsumer interface {
	Run(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

type namedPinger struct {
	name string
	dep  pinger
}

type ServiceParams struct {
	Config               *config.Config
	Logger               *logger.Logger
	DB                   *db.Client
	Redis                *redis.Client
	PubSub               *pubsub.Client
	NotificationConsumer *notifications.Consumer
}

// Service runs the Pub/Sub consumers of the worker process. One consumer
// failing stops the others so the platform restarts the whole process.
type Service struct {
	logg      *logger.Logger
	deps      []namedPinger
	consumers []messageConsumer
}

func NewService(params ServiceParams) (*Service, error) {
	var err error
	for _, missing := range []struct {
		name string
		nil  bool
	}{
		{"config", params.Config == nil},
		{"logger", params.Logger == nil},
		{"database client", params.DB == nil},
		{"redis client", params.Redis == nil},
		{"pubsub client", params.PubSub == nil},
		{"notification consumer", params.NotificationConsumer == nil},
	} {
		if missing.nil {
			err = multierr.Append(err, fmt.Errorf("%s is required", missing.name))
		}
	}
	if err != nil {
		return nil, err
	}

	return &Service{
		logg: params.Logger,
		deps: []namedPinger{
			{name: "database", dep: params.DB},
			{name: "redis", dep: params.Redis},
			{name: "pubsub", dep: params.PubSub},
		},
		consumers: []messageConsumer{params.NotificationConsumer},
	}, nil
}

// checkDependencies pings every dependency and reports all failures.
func (s *Service) checkDependencies(ctx context.Context) error {
	var err error
	for _, d := range s.deps {
		if pingErr := d.dep.Ping(ctx); pingErr != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", d.name), "worker.dependency_unavailable", pingErr)
			err = multierr.Append(err, fmt.Errorf("%s ping failed: %w", d.name, pingErr))
		}
	}
	return err
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.checkDependencies(ctx); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "consumers", len(s.consumers)), "worker.ready")

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		g.Go(func() error { return c.Run(gctx) })
	}
	err := g.Wait()
	switch {
	case ctx.Err() != nil:
		s.logg.Info(ctx, "worker.stopped")
		return ctx.Err()
	case err != nil && !errors.Is(err, context.Canceled):
		s.logg.Error(ctx, "worker.consumer_failed", err)
	}
	return err
}
