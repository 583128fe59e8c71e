package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepLockKey = "matching:sweep:lease"

// releaseScript deletes the lease only when this instance still owns it,
// so a lease that expired and was re-acquired elsewhere is never released
// by the old owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSweepLock is a Redis-backed sweep lease for horizontally scaled
// deployments. At most one instance holds the lease at a time; the TTL
// bounds how long a crashed holder blocks other sweepers.
type RedisSweepLock struct {
	client *redis.Client
	logger *zap.Logger
	token  string
	ttl    time.Duration
}

func NewRedisSweepLock(client *redis.Client, logger *zap.Logger, ttl time.Duration) *RedisSweepLock {
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &RedisSweepLock{
		client: client,
		logger: logger,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the sweep lease. Returns false when another
// instance holds it.
func (l *RedisSweepLock) Acquire(ctx context.Context) (bool, error) {
	held, err := l.client.SetNX(ctx, sweepLockKey, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("sweep lease acquire failed: %w", err)
	}

	if held {
		l.logger.Debug("sweep lease acquired",
			zap.String("token", l.token),
			zap.Duration("ttl", l.ttl))
	}
	return held, nil
}

// Release gives the lease up if this instance still owns it.
func (l *RedisSweepLock) Release(ctx context.Context) error {
	released, err := releaseScript.Run(ctx, l.client, []string{sweepLockKey}, l.token).Int()
	if err != nil {
		return fmt.Errorf("sweep lease release failed: %w", err)
	}

	if released == 0 {
		l.logger.Warn("sweep lease was not owned at release",
			zap.String("token", l.token))
	}
	return nil
}
