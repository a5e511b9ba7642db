// Package conflict implements the appointment conflict detector (§4.D),
// grounded on original_source's conflict.rs (check_conflicts,
// appointments_overlap, generate_alternative_slots,
// find_next_available_slot).
package conflict

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports/repositories"
)

const (
	alternativeSearchStep    = 30 * time.Minute
	maxSameDayAlternatives   = 3
	maxTotalAlternatives     = 5
	alternativeSearchDaysFwd = 3
	workingHourStart         = 8
	workingHourEnd           = 20
)

// CheckResult mirrors ConflictCheckResponse: whether a conflict exists,
// the conflicting appointments, and same/next-day alternatives when it does.
type CheckResult struct {
	HasConflict             bool
	ConflictingAppointments []*entities.Appointment
	SuggestedAlternatives   []entities.AvailableSlot
}

// Detector checks a candidate window against a doctor's existing active
// appointments.
type Detector struct {
	repo repositories.AppointmentRepository
}

func NewDetector(repo repositories.AppointmentRepository) *Detector {
	return &Detector{repo: repo}
}

// Check reports whether [start, end) collides with any active
// appointment for doctorID, excluding excludeID (used on reschedule).
// When a conflict is found it also generates up to 5 alternative slots,
// same day first then the following three days, matching
// generate_alternative_slots.
func (d *Detector) Check(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (*CheckResult, error) {
	existing, err := d.repo.FindActiveForDoctorInWindow(ctx, doctorID, start, end)
	if err != nil {
		return nil, err
	}

	var conflicting []*entities.Appointment
	for _, appt := range existing {
		if excludeID != nil && appt.ID == *excludeID {
			continue
		}
		if !appt.IsActive() {
			continue
		}
		if overlaps(start, end, appt.ScheduledStartTime, appt.ScheduledEndTime) {
			conflicting = append(conflicting, appt)
		}
	}

	result := &CheckResult{
		HasConflict:             len(conflicting) > 0,
		ConflictingAppointments: conflicting,
	}
	if result.HasConflict {
		alternatives, err := d.generateAlternatives(ctx, doctorID, start, end)
		if err == nil {
			result.SuggestedAlternatives = alternatives
		}
	}
	return result, nil
}

// BufferOK reports whether [start-buffer, end+buffer) is itself conflict
// free, implementing check_buffer_time_conflicts.
func (d *Detector) BufferOK(ctx context.Context, doctorID uuid.UUID, start, end time.Time, bufferMinutes int, excludeID *uuid.UUID) (bool, error) {
	buffer := time.Duration(bufferMinutes) * time.Minute
	result, err := d.Check(ctx, doctorID, start.Add(-buffer), end.Add(buffer), excludeID)
	if err != nil {
		return false, err
	}
	return !result.HasConflict, nil
}

// FindNextAvailable searches forward in 30-minute increments for a
// conflict-free, in-hours slot, matching find_next_available_slot.
func (d *Detector) FindNextAvailable(ctx context.Context, doctorID uuid.UUID, preferredStart time.Time, duration time.Duration, maxSearchDays int) (*entities.AvailableSlot, error) {
	searchEnd := preferredStart.AddDate(0, 0, maxSearchDays)
	for current := preferredStart; current.Before(searchEnd); current = current.Add(alternativeSearchStep) {
		slotEnd := current.Add(duration)
		result, err := d.Check(ctx, doctorID, current, slotEnd, nil)
		if err != nil {
			return nil, err
		}
		if !result.HasConflict && isWithinWorkingHours(current) {
			return &entities.AvailableSlot{
				Start:           current,
				End:             slotEnd,
				DurationMinutes: int(duration.Minutes()),
			}, nil
		}
	}
	return nil, nil
}

func (d *Detector) generateAlternatives(ctx context.Context, doctorID uuid.UUID, originalStart, originalEnd time.Time) ([]entities.AvailableSlot, error) {
	duration := originalEnd.Sub(originalStart)
	var suggestions []entities.AvailableSlot

	dayStart := time.Date(originalStart.Year(), originalStart.Month(), originalStart.Day(), workingHourStart, 0, 0, 0, originalStart.Location())
	dayEnd := time.Date(originalStart.Year(), originalStart.Month(), originalStart.Day(), workingHourEnd, 0, 0, 0, originalStart.Location())

	for current := dayStart; current.Before(dayEnd) && len(suggestions) < maxSameDayAlternatives; current = current.Add(alternativeSearchStep) {
		if current.Equal(originalStart) {
			continue
		}
		slotEnd := current.Add(duration)
		result, err := d.Check(ctx, doctorID, current, slotEnd, nil)
		if err != nil {
			return nil, err
		}
		if !result.HasConflict {
			suggestions = append(suggestions, entities.AvailableSlot{Start: current, End: slotEnd, DurationMinutes: int(duration.Minutes())})
		}
	}

	for dayOffset := 1; dayOffset <= alternativeSearchDaysFwd && len(suggestions) < maxTotalAlternatives; dayOffset++ {
		nextDay := originalStart.AddDate(0, 0, dayOffset)
		searchStart := time.Date(nextDay.Year(), nextDay.Month(), nextDay.Day(), workingHourStart, 0, 0, 0, nextDay.Location())
		slot, err := d.FindNextAvailable(ctx, doctorID, searchStart, duration, 1)
		if err == nil && slot != nil {
			suggestions = append(suggestions, *slot)
		}
	}

	return suggestions, nil
}

// overlaps implements the strict half-open interval collision predicate:
// start1 < end2 && start2 < end1.
func overlaps(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}

func isWithinWorkingHours(t time.Time) bool {
	hour := t.Hour()
	return hour >= workingHourStart && hour < workingHourEnd
}
