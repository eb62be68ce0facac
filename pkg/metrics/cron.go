package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yardops"

// Cron run outcomes.
const (
	CronOutcomeSuccess = "success"
	CronOutcomeFailure = "failure"
	CronOutcomeTimeout = "timeout"
)

// CronJobMetrics tracks each cron job run. A nil value records nothing.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall time of cron job runs.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run, for staleness alerts.",
		}, []string{"job"}),
		now: time.Now,
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess)
	return m
}

// RecordRun classifies err and records one run of job. Deadline errors
// count as timeouts.
func (c *CronJobMetrics) RecordRun(job string, elapsed time.Duration, err error) string {
	outcome := CronOutcomeSuccess
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = CronOutcomeTimeout
	case err != nil:
		outcome = CronOutcomeFailure
	}
	if c == nil {
		return outcome
	}
	job = normalizeLabel(job)
	c.runs.WithLabelValues(job, outcome).Inc()
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if outcome == CronOutcomeSuccess {
		c.lastSuccess.WithLabelValues(job).Set(float64(c.now().Unix()))
	}
	return outcome
}

// normalizeLabel maps an empty label value to "unknown" so series stay
// addressable.
func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
