// Package lifecycle enforces the appointment status-transition DAG and its
// timing rules (§4.K), grounded on original_source's lifecycle.rs
// (validate_status_transition, can_start_appointment, should_mark_no_show,
// get_automatic_transitions, validate_appointment_timing).
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/ports/repositories"
	"telemed-booking-core/internal/infra/metrics"
	apperrors "telemed-booking-core/pkg/errors"
)

const (
	maxEarlyStart    = 15 * time.Minute
	maxLateStart     = 30 * time.Minute
	noShowThreshold  = 30 * time.Minute
	autoCompleteWait = 30 * time.Minute
)

// Rules validates status transitions and their timing, and records the
// prometheus counters that back this component's "metrics" responsibility.
type Rules struct {
	appointments repositories.AppointmentRepository
	clock        ports.Clock
	config       Config
	metrics      *metrics.Registry
}

// Config mirrors BookingConfig's timing parameters consumed by book_validate
// and reschedule validation.
type Config struct {
	MinAdvanceBookingHours int
	MaxAdvanceBookingDays  int
	MinDurationMinutes     int
	MaxDurationMinutes     int
	AllowWeekends          bool
	AllowedRescheduleHours int
	BusinessHourStart      int
	BusinessHourEnd        int
}

func NewRules(appointments repositories.AppointmentRepository, clock ports.Clock, cfg Config, reg *metrics.Registry) *Rules {
	return &Rules{appointments: appointments, clock: clock, config: cfg, metrics: reg}
}

// ValidateTransition reports whether moving from current to target is
// allowed by the DAG, recording the attempt either way.
func (r *Rules) ValidateTransition(current, target entities.AppointmentStatus) error {
	allowed := (&entities.Appointment{Status: current}).CanTransitionTo(target)
	if r.metrics != nil {
		r.metrics.RecordTransition(string(current), string(target), allowed)
	}
	if !allowed {
		return &apperrors.InvalidStatusTransition{From: string(current), To: string(target)}
	}
	return nil
}

// CanStart implements can_start_appointment: must be Confirmed and now
// within [start-15m, start+30m].
func (r *Rules) CanStart(appt *entities.Appointment) bool {
	if appt.Status != entities.AppointmentStatusConfirmed {
		return false
	}
	now := r.clock.Now()
	earliest := appt.ScheduledStartTime.Add(-maxEarlyStart)
	latest := appt.ScheduledStartTime.Add(maxLateStart)
	return !now.Before(earliest) && !now.After(latest)
}

// ShouldMarkNoShow implements should_mark_no_show: current in
// {Pending, Confirmed} and now more than 30 minutes past the scheduled
// start.
func (r *Rules) ShouldMarkNoShow(appt *entities.Appointment) bool {
	if appt.Status != entities.AppointmentStatusPending && appt.Status != entities.AppointmentStatusConfirmed {
		return false
	}
	return r.clock.Now().After(appt.ScheduledStartTime.Add(noShowThreshold))
}

// AutoCompleteDue implements the InProgress branch of
// get_automatic_transitions: auto-complete 30 minutes past scheduled end.
func (r *Rules) AutoCompleteDue(appt *entities.Appointment) bool {
	if appt.Status != entities.AppointmentStatusInProgress {
		return false
	}
	return r.clock.Now().After(appt.ScheduledEndTime.Add(autoCompleteWait))
}

// AutomaticTransition returns the status get_automatic_transitions would
// apply to appt right now, or "" if none applies.
func (r *Rules) AutomaticTransition(appt *entities.Appointment) entities.AppointmentStatus {
	switch appt.Status {
	case entities.AppointmentStatusConfirmed:
		if r.ShouldMarkNoShow(appt) {
			return entities.AppointmentStatusNoShow
		}
	case entities.AppointmentStatusInProgress:
		if r.AutoCompleteDue(appt) {
			return entities.AppointmentStatusCompleted
		}
	}
	return ""
}

// ValidateBooking implements book_validate: advance-notice window,
// duration bounds, weekend/Sunday restriction, and business hours.
func (r *Rules) ValidateBooking(start, end time.Time) error {
	now := r.clock.Now()

	minStart := now.Add(time.Duration(r.config.MinAdvanceBookingHours) * time.Hour)
	if start.Before(minStart) {
		return apperrors.NewValidationError("scheduled_start_time", "must be scheduled far enough in advance")
	}
	maxStart := now.AddDate(0, 0, r.config.MaxAdvanceBookingDays)
	if start.After(maxStart) {
		return apperrors.NewValidationError("scheduled_start_time", "too far in the future")
	}

	duration := end.Sub(start)
	if duration < time.Duration(r.config.MinDurationMinutes)*time.Minute ||
		duration > time.Duration(r.config.MaxDurationMinutes)*time.Minute {
		return apperrors.NewValidationError("duration_minutes", "outside the allowed range")
	}

	if !r.config.AllowWeekends && (start.Weekday() == time.Sunday || start.Weekday() == time.Saturday) {
		return apperrors.NewValidationError("scheduled_start_time", "weekend scheduling is disabled")
	}

	startHour, endHour := start.Hour(), end.Hour()
	if startHour < r.config.BusinessHourStart || startHour >= r.config.BusinessHourEnd || endHour > r.config.BusinessHourEnd {
		return apperrors.NewValidationError("scheduled_start_time", "outside business hours")
	}

	return nil
}

// ValidateReschedule enforces the minimum reschedule notice and that the
// new time is itself a valid future booking window; conflict-checking the
// new window is the caller's job (via the conflict detector), exactly as
// for a fresh booking.
func (r *Rules) ValidateReschedule(appt *entities.Appointment, newStart, newEnd time.Time) error {
	now := r.clock.Now()
	noticeDeadline := appt.ScheduledStartTime.Add(-time.Duration(r.config.AllowedRescheduleHours) * time.Hour)
	if now.After(noticeDeadline) {
		return apperrors.NewValidationError("scheduled_start_time", "too close to the current appointment time to reschedule")
	}
	if !newStart.After(now) {
		return apperrors.NewValidationError("scheduled_start_time", "new time must be in the future")
	}
	return r.ValidateBooking(newStart, newEnd)
}

// ApplyAutomaticTransitions scans a doctor's active appointments in
// [from, to) and persists any automatic transition that applies. Neither
// the worker pool nor the scheduler calls it.
func (r *Rules) ApplyAutomaticTransitions(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (int, error) {
	appts, err := r.appointments.FindActiveForDoctorInWindow(ctx, doctorID, from, to)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, appt := range appts {
		next := r.AutomaticTransition(appt)
		if next == "" {
			continue
		}
		if _, err := r.appointments.UpdateStatus(ctx, appt.ID, next); err != nil {
			continue
		}
		if r.metrics != nil {
			r.metrics.RecordTransition(string(appt.Status), string(next), true)
		}
		applied++
	}
	return applied, nil
}
