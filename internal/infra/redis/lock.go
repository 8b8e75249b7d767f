// File: internal/infra/redis/lock.go
package redis

import (
	"context"
	"time"

	"discord-membership-payments/internal/domain"
	"discord-membership-payments/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisLocker serializes webhook deliveries per correlation key. Keys look
// like "lock:sub:<subscriptionRef>" or "lock:member:<subject>:<tier>".
type RedisLocker struct {
	cli *redis.Client
}

var _ repository.Locker = (*RedisLocker)(nil)

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < 5; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if ok {
			return token, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return "", domain.ErrLockNotAcquired
}

// Unlock releases only when the token matches, so an expired lock taken over
// by another delivery is never deleted from under it.
var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
