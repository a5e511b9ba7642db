// Package booking implements the atomic booking path (§4.F), grounded on
// original_source's consistency.rs (atomic_appointment_booking,
// try_atomic_booking). The bounded retry loop with per-attempt backoff is
// implemented with avast/retry-go rather than a hand-rolled loop.
package booking

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/ports/repositories"
	"telemed-booking-core/internal/domain/services/conflict"
	apperrors "telemed-booking-core/pkg/errors"
)

const maxRetryAttempts = 3

// Booker implements ports.Booker: acquire the slot's lock, re-check
// conflicts under the lock, create the appointment, release the lock —
// retrying the whole sequence up to maxRetryAttempts times on
// ErrConflictDetected with a 100ms*attempt backoff, matching
// atomic_appointment_booking exactly.
type Booker struct {
	locks        ports.LockManager
	conflicts    *conflict.Detector
	appointments repositories.AppointmentRepository
	clock        ports.Clock
	acquirerID   string
	lockTTL      int
}

func NewBooker(locks ports.LockManager, conflicts *conflict.Detector, appointments repositories.AppointmentRepository, clock ports.Clock, acquirerID string, lockTTLSeconds int) *Booker {
	return &Booker{
		locks:        locks,
		conflicts:    conflicts,
		appointments: appointments,
		clock:        clock,
		acquirerID:   acquirerID,
		lockTTL:      lockTTLSeconds,
	}
}

// BookSlot implements ports.Booker.
func (b *Booker) BookSlot(ctx context.Context, req entities.BookingRequest, slot entities.AvailableSlot, doctorID string) (*entities.Appointment, error) {
	doctorUUID, err := uuid.Parse(doctorID)
	if err != nil {
		return nil, apperrors.NewValidationError("doctor_id", "not a valid UUID")
	}

	lockKey := entities.SlotLockKey(doctorID, slot.Start, slot.End)

	var appt *entities.Appointment
	err = retry.Do(
		func() error {
			created, tryErr := b.tryAtomicBooking(ctx, lockKey, doctorUUID, req, slot)
			if tryErr != nil {
				return tryErr
			}
			appt = created
			return nil
		},
		retry.Attempts(maxRetryAttempts),
		retry.RetryIf(func(err error) bool { return apperrors.IsConflict(err) }),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(100*(n+1)) * time.Millisecond
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.NewDatabaseError("failed to book appointment after multiple attempts", err)
		}
		return nil, err
	}
	return appt, nil
}

// tryAtomicBooking is one pass of try_atomic_booking: lock, re-check,
// create, unlock. Any failure after acquiring the lock releases it
// before returning.
func (b *Booker) tryAtomicBooking(ctx context.Context, lockKey string, doctorID uuid.UUID, req entities.BookingRequest, slot entities.AvailableSlot) (*entities.Appointment, error) {
	if err := b.locks.AcquireOnce(ctx, lockKey, b.acquirerID, b.lockTTL); err != nil {
		return nil, apperrors.ErrConflictDetected
	}

	result, err := b.conflicts.Check(ctx, doctorID, slot.Start, slot.End, nil)
	if err != nil {
		b.locks.Release(ctx, lockKey, b.acquirerID)
		return nil, err
	}
	if result.HasConflict {
		b.locks.Release(ctx, lockKey, b.acquirerID)
		return nil, apperrors.ErrConflictDetected
	}

	now := b.clock.Now()
	appt := &entities.Appointment{
		ID:                 uuid.New(),
		PatientID:          req.PatientID,
		DoctorID:           doctorID,
		ScheduledStartTime: slot.Start,
		ScheduledEndTime:   slot.End,
		DurationMinutes:    slot.DurationMinutes,
		AppointmentType:    req.AppointmentType,
		Status:             entities.AppointmentStatusPending,
		Timezone:           slot.Start.Location().String(),
		Priority:           slot.Priority,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	created, err := b.appointments.Create(ctx, appt)
	if err != nil {
		b.locks.Release(ctx, lockKey, b.acquirerID)
		return nil, err
	}

	if relErr := b.locks.Release(ctx, lockKey, b.acquirerID); relErr != nil {
		return created, nil
	}
	return created, nil
}
