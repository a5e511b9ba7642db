package entities

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment (§4.K).
type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "Pending"
	AppointmentStatusConfirmed   AppointmentStatus = "Confirmed"
	AppointmentStatusInProgress  AppointmentStatus = "InProgress"
	AppointmentStatusCompleted   AppointmentStatus = "Completed"
	AppointmentStatusCancelled   AppointmentStatus = "Cancelled"
	AppointmentStatusNoShow      AppointmentStatus = "NoShow"
	AppointmentStatusRescheduled AppointmentStatus = "Rescheduled"
)

// AppointmentType mirrors the Rust source's appointment type enum; a
// rule's type sets the priority of the slots the availability engine
// generates from it. The matching engine and the lifecycle rules do not
// read it.
type AppointmentType string

const (
	AppointmentTypeGeneralConsultation AppointmentType = "GeneralConsultation"
	AppointmentTypeFollowUpConsultation AppointmentType = "FollowUpConsultation"
	AppointmentTypeInitialConsultation  AppointmentType = "InitialConsultation"
	AppointmentTypeWomensHealth         AppointmentType = "WomensHealth"
	AppointmentTypeEmergencyConsultation AppointmentType = "EmergencyConsultation"
	AppointmentTypeSpecialty           AppointmentType = "Specialty"
)

// allowedAppointmentTransitions encodes the DAG in §4.K. Completed,
// Cancelled and NoShow are terminal (absent as keys).
var allowedAppointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:     {AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed:   {AppointmentStatusInProgress, AppointmentStatusCancelled, AppointmentStatusNoShow, AppointmentStatusRescheduled},
	AppointmentStatusInProgress:  {AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusRescheduled: {AppointmentStatusConfirmed, AppointmentStatusCancelled},
}

// activeAppointmentStatuses are the statuses the conflict detector (§4.D)
// and the no-overlap invariant (§8) treat as occupying the doctor's
// timeline.
var activeAppointmentStatuses = map[AppointmentStatus]bool{
	AppointmentStatusPending:    true,
	AppointmentStatusConfirmed:  true,
	AppointmentStatusInProgress: true,
}

// Appointment represents a scheduled clinician-patient meeting.
type Appointment struct {
	ID                  uuid.UUID         `json:"id" db:"id"`
	PatientID           uuid.UUID         `json:"patient_id" db:"patient_id"`
	DoctorID            uuid.UUID         `json:"doctor_id" db:"doctor_id"`
	ScheduledStartTime  time.Time         `json:"scheduled_start_time" db:"scheduled_start_time"`
	ScheduledEndTime    time.Time         `json:"scheduled_end_time" db:"scheduled_end_time"`
	DurationMinutes     int               `json:"duration_minutes" db:"duration_minutes"`
	AppointmentType     AppointmentType   `json:"appointment_type" db:"appointment_type"`
	Status              AppointmentStatus `json:"status" db:"status"`
	Timezone            string            `json:"timezone" db:"timezone"`
	ActualStartTime     *time.Time        `json:"actual_start_time,omitempty" db:"actual_start_time"`
	ActualEndTime       *time.Time        `json:"actual_end_time,omitempty" db:"actual_end_time"`
	ConsultationFee     float64           `json:"consultation_fee" db:"consultation_fee"`
	Notes               *string           `json:"notes,omitempty" db:"notes"`
	CancellationReason  *string           `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	Priority            SlotPriority      `json:"priority" db:"priority"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" db:"updated_at"`
}

// Validate checks the structural invariants from SPEC_FULL §3: required
// references, strictly-ordered time window, known status.
func (a *Appointment) Validate() error {
	if a.PatientID == uuid.Nil {
		return ErrInvalidPatientID
	}
	if a.DoctorID == uuid.Nil {
		return ErrInvalidDoctorID
	}
	if a.ScheduledStartTime.IsZero() || a.ScheduledEndTime.IsZero() {
		return ErrInvalidAppointmentTime
	}
	if !a.ScheduledEndTime.After(a.ScheduledStartTime) {
		return ErrEndTimeBeforeStartTime
	}
	if !IsValidAppointmentStatus(a.Status) {
		return ErrInvalidAppointmentStatusValue
	}
	return nil
}

// Duration returns the scheduled duration of the appointment.
func (a *Appointment) Duration() time.Duration {
	return a.ScheduledEndTime.Sub(a.ScheduledStartTime)
}

// IsActive reports whether the appointment currently occupies the
// doctor's timeline for conflict-detection purposes (§4.D).
func (a *Appointment) IsActive() bool {
	return activeAppointmentStatuses[a.Status]
}

// Overlaps reports whether this appointment's half-open interval
// [start, end) overlaps another window using the strict predicate from
// §4.D: s1 < e2 && s2 < e1.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.ScheduledStartTime.Before(end) && start.Before(a.ScheduledEndTime)
}

// IsValidAppointmentStatus reports whether status is one of the seven
// lifecycle states in §3/§4.K.
func IsValidAppointmentStatus(status AppointmentStatus) bool {
	switch status {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow,
		AppointmentStatusRescheduled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from the appointment's current
// status to target is allowed by the DAG in §4.K.
func (a *Appointment) CanTransitionTo(target AppointmentStatus) bool {
	for _, allowed := range allowedAppointmentTransitions[a.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the appointment's status is one of the three
// terminal states.
func (a *Appointment) IsTerminal() bool {
	switch a.Status {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}
