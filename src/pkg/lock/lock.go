package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock not acquired")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a keyed mutex backed by redis SET NX. It serializes
// balance-mutating operations per user across service instances.
type Locker struct {
	Redis redis.UniversalClient
}

func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{Redis: client}
}

// Acquire takes the lock for key, retrying until the context deadline or
// maxWait elapses. The returned release function is safe to call once.
func (l *Locker) Acquire(ctx context.Context, key string, ttl, maxWait time.Duration) (func(), error) {
	token := uuid.New().String()
	deadline := time.Now().Add(maxWait)

	for {
		ok, err := l.Redis.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.Redis, []string{key}, token).Err()
			}
			return release, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}
