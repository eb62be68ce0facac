package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRedis struct {
	values map[string]string
	ttl    time.Duration
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttl = ttl
	return true, nil
}

func (m *memoryRedis) CompareAndExpire(_ context.Context, key, expected string, ttl time.Duration) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	m.ttl = ttl
	return true, nil
}

func (m *memoryRedis) CompareAndDelete(_ context.Context, key, expected string) (bool, error) {
	if m.values[key] != expected {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func TestRedisLockExclusiveAndOwnerRelease(t *testing.T) {
	store := &memoryRedis{values: map[string]string{}}
	first, err := NewRedisLock(store, "yo:lock:cron", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "yo:lock:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, store.ttl)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store.values, "yo:lock:cron")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store.values, "yo:lock:cron")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExtendDetectsLostOwnership(t *testing.T) {
	store := &memoryRedis{values: map[string]string{}}
	lock, err := NewRedisLock(store, "yo:lock:cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := lock.Extend(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "extend before acquire")

	ok, err = lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.ttl = 0
	ok, err = lock.Extend(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, store.ttl)

	store.values["yo:lock:cron"] = "someone-else"
	ok, err = lock.Extend(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx))
	assert.Equal(t, "someone-else", store.values["yo:lock:cron"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "key", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(&memoryRedis{values: map[string]string{}}, "", time.Minute)
	assert.Error(t, err)
}
