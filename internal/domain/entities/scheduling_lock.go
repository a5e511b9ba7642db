package entities

import (
	"fmt"
	"time"
)

// SchedulingLock is a row-backed mutual-exclusion record. It exists only
// while held and is garbage-collected once ExpiresAt is in the past
// (§4.B).
type SchedulingLock struct {
	LockKey    string    `json:"lock_key" db:"lock_key"`
	AcquirerID string    `json:"acquirer_id" db:"acquirer_id"`
	AcquiredAt time.Time `json:"acquired_at" db:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired reports whether the lock has outlived its TTL as of now.
func (l *SchedulingLock) IsExpired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// SlotLockKey computes the deterministic lock key for a doctor's time
// window, per §4.B: "slot_" + doctor_id + "_" + start_unix + "_" + end_unix.
func SlotLockKey(doctorID string, start, end time.Time) string {
	return fmt.Sprintf("slot_%s_%d_%d", doctorID, start.Unix(), end.Unix())
}
