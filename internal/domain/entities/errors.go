package entities

import "errors"

// Entity-level validation errors. These guard struct invariants before a
// record ever reaches the row-store gateway; taxonomized booking-flow
// errors (NotFound, ConflictDetected, InvalidStatusTransition, ...) live in
// pkg/errors instead, since those carry data and cross service boundaries.
var (
	// Doctor errors
	ErrInvalidDoctorName        = errors.New("doctor name is required")
	ErrInvalidDoctorSpecialty   = errors.New("doctor specialty is required")
	ErrInvalidDoctorRating      = errors.New("doctor rating must be between 0.0 and 5.0")
	ErrInvalidConsultationCount = errors.New("total consultations cannot be negative")
	ErrInvalidYearsExperience   = errors.New("years of experience cannot be negative")

	// Appointment errors
	ErrInvalidPatientID       = errors.New("patient ID is required")
	ErrInvalidDoctorID        = errors.New("doctor ID is required")
	ErrInvalidAppointmentTime = errors.New("invalid appointment time")
	ErrEndTimeBeforeStartTime = errors.New("end time must be after start time")
	ErrInvalidAppointmentType = errors.New("invalid appointment type")
	ErrInvalidAppointmentStatusValue = errors.New("invalid appointment status")

	// Availability errors
	ErrInvalidAvailabilityTime  = errors.New("at least one of morning or afternoon window must be set, with start < end")
	ErrInvalidDayOfWeek         = errors.New("day of week must be between 0 and 6")
	ErrInvalidDurationMinutes   = errors.New("duration minutes must be at least 1")
	ErrInvalidBufferMinutes     = errors.New("buffer minutes cannot be negative")
	ErrInvalidMaxConcurrent     = errors.New("max concurrent appointments must be at least 1")

	// Scheduling lock errors
	ErrInvalidLockKey = errors.New("lock key is required")

	// Booking job errors
	ErrInvalidJobID      = errors.New("job ID is required")
	ErrRetryCountExceeded = errors.New("retry count cannot exceed max retries")

	// Video session errors
	ErrInvalidAppointmentRef = errors.New("appointment ID is required")
	ErrInvalidRoomID         = errors.New("room ID is required")
)
