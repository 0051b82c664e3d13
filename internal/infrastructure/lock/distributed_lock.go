package lock

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const unlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// DistributedLock is a Redis SET NX EX lease. It only keeps replicas from doing
// the same batch work at once; money movements never depend on holding it.
type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string // identifies the holder so a stale holder cannot delete a newer lease
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts the lease once without blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Unlock deletes the key only while it still holds our value.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	_, err := l.client.Eval(ctx, unlockScript, []string{l.key}, l.value).Result()
	return err
}

// NewSweepLock is the lease taken by the auto-complete sweeper. The ttl should
// exceed the longest expected sweep.
func NewSweepLock(client *redis.Client, holder string, ttl time.Duration) *DistributedLock {
	return NewDistributedLock(client, "market:lock:auto-complete-sweep", holder, ttl)
}
