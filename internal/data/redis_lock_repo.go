package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRunLocker implements core.RunLocker using Redis.
type RedisRunLocker struct {
	client redis.UniversalClient
}

// NewRedisRunLocker creates a RedisRunLocker with the given Redis client.
func NewRedisRunLocker(client redis.UniversalClient) *RedisRunLocker {
	return &RedisRunLocker{client: client}
}

// Acquire atomically sets key to token only if the key does not exist.
func (r *RedisRunLocker) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrLockKeyRequired
	}
	if token == "" {
		return false, ErrLockTokenRequired
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	// SETNX followed by EXPIRE is not atomic; SET with NX and a TTL is.
	status, err := r.client.SetArgs(ctx, key, token, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// An unmet NX condition comes back as a nil reply.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// Release deletes key if it still holds token and reports whether it did.
func (r *RedisRunLocker) Release(ctx context.Context, key, token string) (bool, error) {
	if key == "" {
		return false, ErrLockKeyRequired
	}
	n, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("redis release lock: %w", err)
	}
	return n > 0, nil
}

// Health checks the health of the Redis connection.
func (r *RedisRunLocker) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
