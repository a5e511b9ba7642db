package ports

import "context"

// LockManager implements the distributed scheduling lock (§4.B), grounded
// on consistency.rs's acquire_scheduling_lock/release_scheduling_lock.
// AcquireOnce makes exactly one attempt per call, including the single
// reclaim-on-expiry retry described there — it never recurses.
type LockManager interface {
	// AcquireOnce attempts to acquire lockKey for acquirerID, reclaiming an
	// expired holder's lock at most once before failing. Returns
	// apperrors.ErrLockAlreadyHeld if the lock is held and not expired.
	AcquireOnce(ctx context.Context, lockKey, acquirerID string, ttlSeconds int) error
	Release(ctx context.Context, lockKey, acquirerID string) error
	// CleanupExpired removes any expired locks and returns how many were
	// reclaimed, for the periodic sweep.
	CleanupExpired(ctx context.Context) (int, error)
}
