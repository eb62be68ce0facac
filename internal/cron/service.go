package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/yardops-backend/pkg/logger"
	"github.com/angelmondragon/yardops-backend/pkg/metrics"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultJobTimeout = 5 * time.Minute
)

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run within a cycle.
	JobTimeout time.Duration
}

// Service runs the registered jobs once per interval while holding the
// cluster-wide cron lock.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	s := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if s.registry == nil {
		s.registry = NewRegistry()
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.jobTimeout <= 0 {
		s.jobTimeout = defaultJobTimeout
	}
	return s, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ctx = s.logg.WithField(ctx, "interval", s.interval.String())
	s.logg.Info(s.logg.WithField(ctx, "jobs", s.registry.Names()), "cron.started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.runCycle(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", relErr)
		}
	}()

	jobs := s.registry.Jobs()
	failed := 0
	for i, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.runJob(ctx, job) {
			failed++
		}
		if i == len(jobs)-1 {
			break
		}
		held, err := s.lock.Extend(ctx)
		if err != nil {
			return fmt.Errorf("lock extend: %w", err)
		}
		if !held {
			s.logg.Warn(s.logg.WithField(ctx, "remaining_jobs", len(jobs)-i-1), "cron.lock_lost")
			return nil
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"jobs": len(jobs), "failed": failed}), "cron.cycle_complete")
	return nil
}

// runJob reports whether the job succeeded. A failing job never stops the
// remaining jobs in the cycle.
func (s *Service) runJob(ctx context.Context, job Job) bool {
	name := job.Name()
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", name), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	outcome := s.metrics.RecordRun(name, elapsed, err)

	jobCtx = s.logg.WithFields(jobCtx, map[string]any{"duration_ms": elapsed.Milliseconds(), "outcome": outcome})
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return false
	}
	s.logg.Info(jobCtx, "cron.job_completed")
	return true
}
