package entities

import (
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a wall-clock time within a day, used for the morning/
// afternoon segment boundaries on an AvailabilityRule. Stored and compared
// as minutes-since-midnight so segment arithmetic never has to reason
// about a calendar date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// MinutesSinceMidnight returns t expressed as an integer offset from
// 00:00, used by the availability engine's slot-stepping loop (§4.C).
func (t TimeOfDay) MinutesSinceMidnight() int {
	return t.Hour*60 + t.Minute
}

// OnDate anchors t to the given calendar date in loc, yielding a concrete
// time.Time the availability engine can step across.
func (t TimeOfDay) OnDate(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.MinutesSinceMidnight() < other.MinutesSinceMidnight()
}

// AvailabilityRule is a recurring (or one-off, via SpecificDate) template
// describing when a doctor accepts appointments.
type AvailabilityRule struct {
	ID                        uuid.UUID       `json:"id" db:"id"`
	DoctorID                  uuid.UUID       `json:"doctor_id" db:"doctor_id"`
	DayOfWeek                 int             `json:"day_of_week" db:"day_of_week"` // 0=Sunday..6=Saturday
	SpecificDate              *time.Time      `json:"specific_date,omitempty" db:"specific_date"`
	MorningStart              *TimeOfDay      `json:"morning_start,omitempty" db:"morning_start"`
	MorningEnd                *TimeOfDay      `json:"morning_end,omitempty" db:"morning_end"`
	AfternoonStart            *TimeOfDay      `json:"afternoon_start,omitempty" db:"afternoon_start"`
	AfternoonEnd              *TimeOfDay      `json:"afternoon_end,omitempty" db:"afternoon_end"`
	DurationMinutes           int             `json:"duration_minutes" db:"duration_minutes"`
	BufferMinutes             int             `json:"buffer_minutes" db:"buffer_minutes"`
	MaxConcurrentAppointments int             `json:"max_concurrent_appointments" db:"max_concurrent_appointments"`
	AppointmentType           AppointmentType `json:"appointment_type" db:"appointment_type"`
	IsAvailable               bool            `json:"is_available" db:"is_available"`
	CreatedAt                 time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the invariants in SPEC_FULL §3: a valid day of week, at
// least one ordered morning/afternoon segment, and positive duration/
// concurrency bounds.
func (r *AvailabilityRule) Validate() error {
	if r.DoctorID == uuid.Nil {
		return ErrInvalidDoctorID
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if !r.hasValidSegment() {
		return ErrInvalidAvailabilityTime
	}
	if r.DurationMinutes < 1 {
		return ErrInvalidDurationMinutes
	}
	if r.BufferMinutes < 0 {
		return ErrInvalidBufferMinutes
	}
	if r.MaxConcurrentAppointments < 1 {
		return ErrInvalidMaxConcurrent
	}
	return nil
}

func (r *AvailabilityRule) hasValidSegment() bool {
	validMorning := r.MorningStart != nil && r.MorningEnd != nil && r.MorningStart.Before(*r.MorningEnd)
	validAfternoon := r.AfternoonStart != nil && r.AfternoonEnd != nil && r.AfternoonStart.Before(*r.AfternoonEnd)
	return validMorning || validAfternoon
}

// Segments returns the rule's non-null time segments in order
// (morning first, then afternoon), as used by the slot-generation loop.
func (r *AvailabilityRule) Segments() [][2]TimeOfDay {
	var segments [][2]TimeOfDay
	if r.MorningStart != nil && r.MorningEnd != nil {
		segments = append(segments, [2]TimeOfDay{*r.MorningStart, *r.MorningEnd})
	}
	if r.AfternoonStart != nil && r.AfternoonEnd != nil {
		segments = append(segments, [2]TimeOfDay{*r.AfternoonStart, *r.AfternoonEnd})
	}
	return segments
}

// AppliesToDate reports whether this rule should be considered for date:
// either it is a one-off rule pinned to that exact date, or it is a
// recurring rule whose day-of-week matches and which carries no
// SpecificDate of its own.
func (r *AvailabilityRule) AppliesToDate(date time.Time) bool {
	if r.SpecificDate != nil {
		return sameCalendarDay(*r.SpecificDate, date)
	}
	return int(date.Weekday()) == r.DayOfWeek
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// AvailabilityOverride suppresses or re-enables all rules for a given date.
type AvailabilityOverride struct {
	ID           uuid.UUID `json:"id" db:"id"`
	DoctorID     uuid.UUID `json:"doctor_id" db:"doctor_id"`
	OverrideDate time.Time `json:"override_date" db:"override_date"`
	IsAvailable  bool      `json:"is_available" db:"is_available"`
	Reason       *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
