package redis

import (
	"context"
	"fmt"
	"myPropertyHub/business/recommendation"
	"myPropertyHub/pkg/logger"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const generationLockKey = "reco:generate:%d"

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL expired cannot drop a lock taken by someone else.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

const releaseTimeout = time.Second

// LockClient is the subset of *redis.Client the lock uses.
type LockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// GenerationLock is a per-user SET NX lock with a TTL.
type GenerationLock struct {
	client LockClient
	ttl    time.Duration
}

var _ recommendation.GenerationGuard = (*GenerationLock)(nil)

func NewGenerationLock(client LockClient, ttl time.Duration) *GenerationLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &GenerationLock{
		client: client,
		ttl:    ttl,
	}
}

func (l *GenerationLock) Acquire(ctx context.Context, userID uint) (func(), bool, error) {
	key := fmt.Sprintf(generationLockKey, userID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire generation lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// the request context may already be done here
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		if err := l.client.Eval(rctx, releaseScript, []string{key}, token).Err(); err != nil {
			logger.Warn("generation_lock_release_failed",
				"key", key,
				"error", err,
			)
		}
	}

	return release, true, nil
}
