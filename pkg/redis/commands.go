package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// KEYS[1] is the key, ARGV[1] the value the caller expects to own.
var (
	compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)
	compareAndExpireScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errNotInitialized
	}
	return c.store.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errNotInitialized
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, keys...).Err()
}

// CompareAndDelete deletes key only while it still holds expected.
func (c *Client) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	return c.runOwned(ctx, compareAndDeleteScript, key, expected)
}

// CompareAndExpire resets the TTL of key only while it still holds expected.
func (c *Client) CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error) {
	return c.runOwned(ctx, compareAndExpireScript, key, expected, ttl.Milliseconds())
}

func (c *Client) runOwned(ctx context.Context, script *redis.Script, key, expected string, extra ...any) (bool, error) {
	if c.scripts == nil {
		return false, errNotInitialized
	}
	n, err := script.Run(ctx, c.scripts, []string{key}, append([]any{expected}, extra...)...).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
