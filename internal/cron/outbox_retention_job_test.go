package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

func TestOutboxRetentionJobPrunesEventsAndDeadLetters(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	dlq := &fakeDLQRetentionRepo{}
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{Repository: repo, DLQ: dlq, MinAttempts: 10})
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-defaultOutboxRetention), repo.lastCutoff)
	assert.Equal(t, 10, repo.minAttempts)
	assert.Equal(t, 1, repo.called)
	assert.Equal(t, now.Add(-defaultDLQRetention), dlq.lastCutoff)
}

func TestOutboxRetentionJobWithoutDLQ(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{}
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{Repository: repo, Retention: 48 * time.Hour})
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-48*time.Hour), repo.lastCutoff)
	assert.Equal(t, defaultMinAttempts, repo.minAttempts)
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	job := newOutboxRetentionJob(t, OutboxRetentionJobParams{
		Repository: &fakeOutboxRetentionRepo{},
		DLQ:        &fakeDLQRetentionRepo{err: errors.New("boom")},
	})
	assert.ErrorContains(t, job.Run(context.Background()), "outbox dlq")
}

func TestNewOutboxRetentionJobRequiresRepository(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger: logger.New(logger.Options{ServiceName: "test"}),
		DB:     outboxRetentionTxRunner{},
	})
	assert.Error(t, err)
}

func newOutboxRetentionJob(t *testing.T, params OutboxRetentionJobParams) *outboxRetentionJob {
	t.Helper()
	params.Logger = logger.New(logger.Options{ServiceName: "test"})
	params.DB = outboxRetentionTxRunner{}
	jobIface, err := NewOutboxRetentionJob(params)
	require.NoError(t, err)
	job, ok := jobIface.(*outboxRetentionJob)
	require.True(t, ok, "unexpected job type %T", jobIface)
	return job
}

type fakeOutboxRetentionRepo struct {
	lastCutoff  time.Time
	minAttempts int
	called      int
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	f.minAttempts = minAttemptCount
	return 7, nil
}

type fakeDLQRetentionRepo struct {
	lastCutoff time.Time
	err        error
}

func (f *fakeDLQRetentionRepo) DeleteFailedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time) (int64, error) {
	f.lastCutoff = cutoff
	return 2, f.err
}

type outboxRetentionTxRunner struct{}

func (outboxRetentionTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
