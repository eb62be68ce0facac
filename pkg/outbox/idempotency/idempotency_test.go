package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values   map[string]string
	setNXErr error
	lastTTL  time.Duration
}

func newFakeStore() *fakeStore { return &fakeStore{values: map[string]string{}} }

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setNXErr != nil {
		return false, f.setNXErr
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.lastTTL = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "yo:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func newTestManager(t *testing.T, store *fakeStore, owner string) *Manager {
	t.Helper()
	m, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)
	m.owner = owner
	m.now = func() time.Time { return time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC) }
	return m
}

func TestClaimFirstTimeWritesMarker(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store, "worker-a")
	eventID := uuid.New()

	claim, err := m.Claim(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)
	assert.True(t, claim.First)

	key := "yo:idempotency:evt:processed:notifications-worker:" + eventID.String()
	assert.Equal(t, "worker-a|2026-03-02T14:00:00Z", store.values[key])
	assert.Equal(t, 24*time.Hour, store.lastTTL)
}

func TestClaimDuplicateReportsEarlierOwner(t *testing.T) {
	store := newFakeStore()
	eventID := uuid.New()
	_, err := newTestManager(t, store, "worker-a").Claim(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)

	claim, err := newTestManager(t, store, "worker-b").Claim(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)
	assert.False(t, claim.First)
	assert.Equal(t, "worker-a", claim.Owner)
	assert.Equal(t, time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC), claim.ClaimedAt)
}

func TestClaimIsScopedPerConsumer(t *testing.T) {
	store := newFakeStore()
	m := newTestManager(t, store, "worker-a")
	eventID := uuid.New()

	first, err := m.Claim(context.Background(), "notifications-worker", eventID)
	require.NoError(t, err)
	other, err := m.Claim(context.Background(), "audit-worker", eventID)
	require.NoError(t, err)
	assert.True(t, first.First)
	assert.True(t, other.First)
}

func TestClaimErrors(t *testing.T) {
	store := newFakeStore()
	store.setNXErr = errors.New("redis down")
	m := newTestManager(t, store, "worker-a")

	_, err := m.Claim(context.Background(), "notifications-worker", uuid.New())
	assert.ErrorContains(t, err, "redis down")

	_, err = m.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = m.Claim(context.Background(), "notifications-worker", uuid.Nil)
	assert.Error(t, err)

	_, err = NewManager(nil, time.Hour)
	assert.Error(t, err)
}
