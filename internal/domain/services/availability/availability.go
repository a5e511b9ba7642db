// Package availability computes theoretical open slots from a doctor's
// recurring rules and date overrides (§4.C), grounded on
// original_source's availability.rs (calculate_theoretical_slots_for_schedule,
// generate_enhanced_slots_for_time_range, remove_overlapping_slots). It
// never checks real bookings — that is the conflict detector's job (§4.D).
package availability

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports/repositories"
	apperrors "telemed-booking-core/pkg/errors"
)

// Engine computes theoretical slots for a doctor on a given date.
type Engine struct {
	repo repositories.AvailabilityRepository
}

func NewEngine(repo repositories.AvailabilityRepository) *Engine {
	return &Engine{repo: repo}
}

// SlotsForDate returns the theoretical open slots for doctorID on date,
// honoring any override that blanks the whole day and deduping
// overlapping slots before returning, mirroring remove_overlapping_slots.
func (e *Engine) SlotsForDate(ctx context.Context, doctorID uuid.UUID, date time.Time, requestedDuration int, loc *time.Location) ([]entities.AvailableSlot, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	overrides, err := e.repo.OverridesForDoctor(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		if sameDay(o.OverrideDate, date) && !o.IsAvailable {
			return nil, nil
		}
	}

	rules, err := e.repo.RulesForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	var slots []entities.AvailableSlot
	for _, rule := range rules {
		if !rule.IsAvailable || !rule.AppliesToDate(date) {
			continue
		}
		duration := requestedDuration
		if duration <= 0 {
			duration = rule.DurationMinutes
		}
		for _, segment := range rule.Segments() {
			slots = append(slots, generateSlotsForSegment(rule, date, segment[0], segment[1], duration, loc)...)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return removeOverlapping(slots), nil
}

// generateSlotsForSegment steps across [start, end) by duration+buffer,
// emitting a slot while start+duration still fits before end (the last
// slot's trailing buffer may run past end) — the Go translation of
// generate_enhanced_slots_for_time_range's while loop.
func generateSlotsForSegment(rule *entities.AvailabilityRule, date time.Time, start, end entities.TimeOfDay, duration int, loc *time.Location) []entities.AvailableSlot {
	var slots []entities.AvailableSlot

	segmentStart := start.OnDate(date, loc)
	segmentEnd := end.OnDate(date, loc)
	step := time.Duration(duration+rule.BufferMinutes) * time.Minute

	for cursor := segmentStart; !cursor.Add(time.Duration(duration) * time.Minute).After(segmentEnd); cursor = cursor.Add(step) {
		slotEnd := cursor.Add(time.Duration(duration) * time.Minute)
		slots = append(slots, entities.AvailableSlot{
			Start:                 cursor,
			End:                   slotEnd,
			DurationMinutes:       duration,
			AppointmentType:       rule.AppointmentType,
			BufferMinutes:         rule.BufferMinutes,
			MaxConcurrentPatients: rule.MaxConcurrentAppointments,
			Priority:              priorityFor(rule.AppointmentType, cursor),
		})
	}
	return slots
}

// priorityFor mirrors calculate_slot_priority: emergency/initial/specialty
// types get a fixed priority, everything else is scored by time of day
// (morning preferred, lunch and edges limited).
func priorityFor(apptType entities.AppointmentType, slotTime time.Time) entities.SlotPriority {
	switch apptType {
	case entities.AppointmentTypeEmergencyConsultation:
		return entities.SlotPriorityEmergency
	case entities.AppointmentTypeInitialConsultation, entities.AppointmentTypeSpecialty:
		return entities.SlotPriorityPreferred
	default:
		hour := slotTime.Hour()
		switch {
		case hour < 9 || hour > 17:
			return entities.SlotPriorityLimited
		case hour >= 12 && hour <= 13:
			return entities.SlotPriorityLimited
		case hour >= 9 && hour <= 11:
			return entities.SlotPriorityPreferred
		default:
			return entities.SlotPriorityAvailable
		}
	}
}

// removeOverlapping keeps the first slot of any run of overlapping
// entries, requiring slots to already be sorted by start time.
func removeOverlapping(slots []entities.AvailableSlot) []entities.AvailableSlot {
	if len(slots) == 0 {
		return slots
	}
	var result []entities.AvailableSlot
	lastEnd := time.Time{}
	for _, s := range slots {
		if !s.Start.Before(lastEnd) {
			result = append(result, s)
			lastEnd = s.End
		}
	}
	return result
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ErrNoSlotsConfigured aliases ErrSlotNotAvailable. The engine does not
// return it: SlotsForDate yields an empty slot list and a nil error when a
// doctor has no rules.
var ErrNoSlotsConfigured = apperrors.ErrSlotNotAvailable
