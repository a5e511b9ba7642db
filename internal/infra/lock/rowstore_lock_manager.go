package lock

import (
	"context"
	"time"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/infra/rowstore"
	apperrors "telemed-booking-core/pkg/errors"
)

const schedulingLocksTable = "scheduling_locks"

// RowStoreLockManager implements the lock manager directly against the
// row store, one-to-one with consistency.rs's approach: insert the lock
// row as a compare-and-set (the row store rejects a duplicate lock_key),
// and on conflict check whether the existing holder's lease has expired
// before giving up. Used when no queue backend (and thus no Redis) is
// configured.
type RowStoreLockManager struct {
	client *rowstore.Client
	clock  ports.Clock
}

func NewRowStoreLockManager(client *rowstore.Client, clock ports.Clock) *RowStoreLockManager {
	return &RowStoreLockManager{client: client, clock: clock}
}

// AcquireOnce mirrors try_acquire_lock_once: try to insert the lock row;
// if the key already exists, check_and_cleanup_expired_lock decides
// whether the holder has expired. An expired holder's row is deleted and
// exactly one fresh insert attempt is made — never a second round of
// expiry checking, matching the "no recursion" comment in the Rust
// source.
func (m *RowStoreLockManager) AcquireOnce(ctx context.Context, lockKey, acquirerID string, ttlSeconds int) error {
	now := m.clock.Now()
	lockRow := entities.SchedulingLock{
		LockKey:    lockKey,
		AcquirerID: acquirerID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(time.Duration(ttlSeconds) * time.Second),
	}

	_, err := rowstore.Insert(ctx, m.client, schedulingLocksTable, lockRow)
	if err == nil {
		return nil
	}

	existing, findErr := m.findLock(ctx, lockKey)
	if findErr != nil {
		return err
	}
	if existing == nil || !existing.IsExpired(now) {
		return apperrors.ErrLockAlreadyHeld
	}

	if delErr := m.deleteLock(ctx, lockKey); delErr != nil {
		return apperrors.ErrLockAlreadyHeld
	}

	_, retryErr := rowstore.Insert(ctx, m.client, schedulingLocksTable, lockRow)
	if retryErr != nil {
		return apperrors.ErrLockAlreadyHeld
	}
	return nil
}

func (m *RowStoreLockManager) Release(ctx context.Context, lockKey, acquirerID string) error {
	existing, err := m.findLock(ctx, lockKey)
	if err != nil || existing == nil {
		return nil
	}
	if existing.AcquirerID != acquirerID {
		return nil
	}
	return m.deleteLock(ctx, lockKey)
}

// CleanupExpired mirrors cleanup_expired_locks: delete every lock row
// whose expires_at has passed, for the periodic sweep.
func (m *RowStoreLockManager) CleanupExpired(ctx context.Context) (int, error) {
	now := m.clock.Now()
	q := rowstore.NewQuery().Where("expires_at", rowstore.OpLte, now.Format(time.RFC3339))
	locks, err := rowstore.Get[entities.SchedulingLock](ctx, m.client, schedulingLocksTable, q)
	if err != nil {
		return 0, err
	}
	if err := m.client.Delete(ctx, schedulingLocksTable, q); err != nil {
		return 0, err
	}
	return len(locks), nil
}

func (m *RowStoreLockManager) findLock(ctx context.Context, lockKey string) (*entities.SchedulingLock, error) {
	q := rowstore.NewQuery().Where("lock_key", rowstore.OpEq, lockKey).Limit(1)
	locks, err := rowstore.Get[entities.SchedulingLock](ctx, m.client, schedulingLocksTable, q)
	if err != nil {
		return nil, err
	}
	if len(locks) == 0 {
		return nil, nil
	}
	return &locks[0], nil
}

func (m *RowStoreLockManager) deleteLock(ctx context.Context, lockKey string) error {
	q := rowstore.NewQuery().Where("lock_key", rowstore.OpEq, lockKey)
	return m.client.Delete(ctx, schedulingLocksTable, q)
}
