package entities

import (
	"time"

	"github.com/google/uuid"
)

// BookingJobStatus is the job's position in the processing pipeline (§4.G).
type BookingJobStatus string

const (
	BookingJobStatusQueued              BookingJobStatus = "Queued"
	BookingJobStatusProcessing          BookingJobStatus = "Processing"
	BookingJobStatusDoctorMatching      BookingJobStatus = "DoctorMatching"
	BookingJobStatusAvailabilityCheck   BookingJobStatus = "AvailabilityCheck"
	BookingJobStatusSlotSelection       BookingJobStatus = "SlotSelection"
	BookingJobStatusAppointmentCreation BookingJobStatus = "AppointmentCreation"
	BookingJobStatusAlternativeGeneration BookingJobStatus = "AlternativeGeneration"
	BookingJobStatusCompleted           BookingJobStatus = "Completed"
	BookingJobStatusFailed              BookingJobStatus = "Failed"
	BookingJobStatusRetrying            BookingJobStatus = "Retrying"
	BookingJobStatusCancelled           BookingJobStatus = "Cancelled"
)

// JobPriority orders pending jobs per §5: a lower rank dequeues first, and
// jobs of equal rank keep FIFO enqueue order.
type JobPriority string

const (
	JobPriorityEmergency JobPriority = "Emergency"
	JobPriorityUrgent    JobPriority = "Urgent"
	JobPriorityStandard  JobPriority = "Standard"
	JobPriorityFlexible  JobPriority = "Flexible"
)

// PriorityRank returns the primary sort key of the pending index, ahead of
// enqueue order: {Emergency=0, Urgent=1, Standard=2, Flexible=3}.
func (p JobPriority) PriorityRank() int {
	switch p {
	case JobPriorityEmergency:
		return 0
	case JobPriorityUrgent:
		return 1
	case JobPriorityStandard:
		return 2
	case JobPriorityFlexible:
		return 3
	default:
		return 2
	}
}

// bookingJobTransitions encodes the DAG in §4.G, including the branches
// reachable from any non-terminal state (Failed/Cancelled) and the
// Failed->Retrying->Queued / Retrying->Processing recovery path.
var bookingJobTransitions = map[BookingJobStatus][]BookingJobStatus{
	BookingJobStatusQueued:                {BookingJobStatusProcessing, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusProcessing:             {BookingJobStatusDoctorMatching, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusDoctorMatching:         {BookingJobStatusAvailabilityCheck, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusAvailabilityCheck:      {BookingJobStatusSlotSelection, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusSlotSelection:          {BookingJobStatusAppointmentCreation, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusAppointmentCreation:    {BookingJobStatusAlternativeGeneration, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusAlternativeGeneration:  {BookingJobStatusCompleted, BookingJobStatusFailed, BookingJobStatusCancelled},
	BookingJobStatusFailed:                 {BookingJobStatusRetrying},
	BookingJobStatusRetrying:               {BookingJobStatusQueued, BookingJobStatusProcessing, BookingJobStatusCancelled},
}

// terminalBookingJobStatuses are the statuses that end a job's run
// (§8 "terminal closure"). Completed and Cancelled accept no further
// transition; Failed still accepts the Failed->Retrying recovery move.
var terminalBookingJobStatuses = map[BookingJobStatus]bool{
	BookingJobStatusCompleted: true,
	BookingJobStatusFailed:    true,
	BookingJobStatusCancelled: true,
}

// BookingRequest is the embedded smart-booking request carried by a
// BookingJob through the pipeline.
type BookingRequest struct {
	PatientID          uuid.UUID       `json:"patient_id"`
	Specialty          string          `json:"specialty"`
	PreferredDoctorID  *uuid.UUID      `json:"preferred_doctor_id,omitempty"`
	PreferredDate      time.Time       `json:"preferred_date"`
	PreferredTimeStart *TimeOfDay      `json:"preferred_time_start,omitempty"`
	PreferredTimeEnd   *TimeOfDay      `json:"preferred_time_end,omitempty"`
	DurationMinutes    int             `json:"duration_minutes"`
	AppointmentType    AppointmentType `json:"appointment_type"`
	// Timezone is the IANA zone the requesting client displays times in;
	// purely presentational, never used by the matching/availability
	// engines, which reason in the location the worker pool is built with.
	Timezone string `json:"timezone,omitempty"`
}

// BookingJob is a durable, asynchronously-processed booking request.
type BookingJob struct {
	JobID        uuid.UUID        `json:"job_id" db:"job_id"`
	PatientID    uuid.UUID        `json:"patient_id" db:"patient_id"`
	Request      BookingRequest   `json:"request" db:"request"`
	Status       BookingJobStatus `json:"status" db:"status"`
	Priority     JobPriority      `json:"priority" db:"priority"`
	RetryCount   int              `json:"retry_count" db:"retry_count"`
	MaxRetries   int              `json:"max_retries" db:"max_retries"`
	WorkerID     *string          `json:"worker_id,omitempty" db:"worker_id"`
	ErrorMessage *string          `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
}

// CanTransitionTo reports whether the DAG in §4.G allows moving from the
// job's current status to target.
func (j *BookingJob) CanTransitionTo(target BookingJobStatus) bool {
	for _, allowed := range bookingJobTransitions[j.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the job is Completed, Failed or Cancelled.
func (j *BookingJob) IsTerminal() bool {
	return terminalBookingJobStatuses[j.Status]
}

// CanRetry reports whether retry(job_id) is allowed: status is Failed and
// retry_count < max_retries.
func (j *BookingJob) CanRetry() bool {
	return j.Status == BookingJobStatusFailed && j.RetryCount < j.MaxRetries
}
