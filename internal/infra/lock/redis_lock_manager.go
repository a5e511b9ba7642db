// Package lock implements the distributed scheduling lock manager (§4.B),
// grounded on original_source's consistency.rs
// (acquire_scheduling_lock/try_acquire_lock_once/
// check_and_cleanup_expired_lock/release_scheduling_lock). Two
// implementations satisfy ports.LockManager: a Redis-backed fast path
// used when a queue backend is configured, and a row-store-backed
// fallback that mirrors the Rust source's insert-as-CAS approach when it
// is not.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "telemed-booking-core/pkg/errors"
)

// RedisLockManager acquires locks with SET NX PX, letting Redis's own
// expiry do the work try_acquire_lock_once does by hand against a plain
// table: an expired key is simply gone, so there is no separate reclaim
// step here.
type RedisLockManager struct {
	client *redis.Client
}

func NewRedisLockManager(client *redis.Client) *RedisLockManager {
	return &RedisLockManager{client: client}
}

func (m *RedisLockManager) lockValueKey(lockKey string) string {
	return "scheduling_lock:" + lockKey
}

// AcquireOnce makes exactly one SET NX PX attempt, matching the "no
// recursion" constraint from try_acquire_lock_once.
func (m *RedisLockManager) AcquireOnce(ctx context.Context, lockKey, acquirerID string, ttlSeconds int) error {
	ok, err := m.client.SetNX(ctx, m.lockValueKey(lockKey), acquirerID, time.Duration(ttlSeconds)*time.Second).Result()
	if err != nil {
		return apperrors.NewExternalServiceError("redis lock acquire failed", err)
	}
	if !ok {
		return apperrors.ErrLockAlreadyHeld
	}
	return nil
}

// Release deletes the key only if it is still held by acquirerID, via a
// small Lua script, mirroring release_scheduling_lock's "only the holder
// may release" guard.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

func (m *RedisLockManager) Release(ctx context.Context, lockKey, acquirerID string) error {
	_, err := releaseScript.Run(ctx, m.client, []string{m.lockValueKey(lockKey)}, acquirerID).Result()
	if err != nil && err != redis.Nil {
		return apperrors.NewExternalServiceError("redis lock release failed", err)
	}
	return nil
}

// CleanupExpired is a no-op under Redis: PX already evicts expired keys,
// so there is nothing left to sweep. Kept to satisfy ports.LockManager
// and to match the periodic-sweep call site in the worker pool.
func (m *RedisLockManager) CleanupExpired(ctx context.Context) (int, error) {
	return 0, nil
}
