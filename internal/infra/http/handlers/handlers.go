// Package handlers implements the booking core's ops surface: health,
// readiness, metrics, and booking submission/status endpoints. Adapted
// from the teacher's internal/http/handlers package (one handler struct
// per resource, constructed with its use case/service and a logger,
// responses via pkg/utils/response's envelope).
package handlers

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"telemed-booking-core/internal/app/queue"
	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	apperrors "telemed-booking-core/pkg/errors"
	"telemed-booking-core/pkg/timeutil"
	"telemed-booking-core/pkg/utils/response"
)

// HealthHandler reports basic liveness.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// ReadinessHandler checks the row store and media gateway breakers before
// reporting ready, so a load balancer stops routing traffic to an
// instance whose dependencies are down.
type ReadinessHandler struct {
	checks map[string]func() error
}

func NewReadinessHandler(checks map[string]func() error) *ReadinessHandler {
	return &ReadinessHandler{checks: checks}
}

func (h *ReadinessHandler) Readiness(c *gin.Context) {
	failures := gin.H{}
	for name, check := range h.checks {
		if err := check(); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		response.ErrorWithDetails(c, http.StatusServiceUnavailable, "NOT_READY", "one or more dependencies are unavailable", "")
		return
	}
	response.Success(c, gin.H{"status": "ready"})
}

// submitBookingRequest is the wire shape accepted by POST /bookings.
type submitBookingRequest struct {
	PatientID          uuid.UUID            `json:"patient_id" binding:"required"`
	Specialty          string               `json:"specialty"`
	PreferredDoctorID  *uuid.UUID           `json:"preferred_doctor_id"`
	PreferredDate      time.Time            `json:"preferred_date" binding:"required"`
	PreferredTimeStart *entities.TimeOfDay  `json:"preferred_time_start"`
	PreferredTimeEnd   *entities.TimeOfDay  `json:"preferred_time_end"`
	DurationMinutes    int                  `json:"duration_minutes" binding:"required"`
	AppointmentType    entities.AppointmentType `json:"appointment_type" binding:"required"`
	Priority           entities.JobPriority `json:"priority"`
	Timezone           string               `json:"timezone"`
}

// BookingHandler exposes the asynchronous booking pipeline (§4.G/§4.H)
// over HTTP: submit a job, poll its status, and drain its progress
// events.
type BookingHandler struct {
	queue      *queue.Service
	hub        ports.ProgressHub
	maxRetries int
}

func NewBookingHandler(q *queue.Service, hub ports.ProgressHub, maxRetries int) *BookingHandler {
	return &BookingHandler{queue: q, hub: hub, maxRetries: maxRetries}
}

// Submit enqueues a new booking job and returns its id immediately;
// clients track progress via GetStatus or the progress hub.
func (h *BookingHandler) Submit(c *gin.Context) {
	var req submitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = entities.JobPriorityStandard
	}

	bookingReq := entities.BookingRequest{
		PatientID:          req.PatientID,
		Specialty:          req.Specialty,
		PreferredDoctorID:  req.PreferredDoctorID,
		PreferredDate:      req.PreferredDate,
		PreferredTimeStart: req.PreferredTimeStart,
		PreferredTimeEnd:   req.PreferredTimeEnd,
		DurationMinutes:    req.DurationMinutes,
		AppointmentType:    req.AppointmentType,
		Timezone:           req.Timezone,
	}

	job, err := h.queue.Submit(c.Request.Context(), bookingReq, priority, h.maxRetries)
	if err != nil {
		response.InternalServerError(c, "failed to submit booking job")
		return
	}
	response.Created(c, gin.H{"job_id": job.JobID, "status": job.Status})
}

// GetStatus returns a job's current persisted state. Timestamps are
// rendered in the request's own timezone when it set one, otherwise UTC.
func (h *BookingHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.queue.Load(c.Request.Context(), jobID)
	if err != nil {
		var notFound *apperrors.NotFound
		if stderrors.As(err, &notFound) {
			response.NotFound(c, "booking job not found")
			return
		}
		response.InternalServerError(c, "failed to load booking job")
		return
	}

	createdAt, updatedAt := job.CreatedAt, job.UpdatedAt
	if job.Request.Timezone != "" {
		if converted, convertedUpdated, err := timeutil.ConvertTimesToTimezone(job.CreatedAt, job.UpdatedAt, job.Request.Timezone); err == nil {
			createdAt, updatedAt = converted, convertedUpdated
		}
	}

	response.Success(c, gin.H{
		"job_id":        job.JobID,
		"status":        job.Status,
		"priority":      job.Priority,
		"retry_count":   job.RetryCount,
		"max_retries":   job.MaxRetries,
		"error_message": job.ErrorMessage,
		"created_at":    createdAt,
		"updated_at":    updatedAt,
		"completed_at":  job.CompletedAt,
	})
}

// Cancel transitions a non-terminal job to Cancelled and removes it from
// the pending index (§4.G cancel, §8 Scenario 6).
func (h *BookingHandler) Cancel(c *gin.Context) {
	jobID := c.Param("job_id")
	if err := h.queue.Cancel(c.Request.Context(), jobID); err != nil {
		var notFound *apperrors.NotFound
		if stderrors.As(err, &notFound) {
			response.NotFound(c, "booking job not found")
			return
		}
		var validation *apperrors.ValidationError
		if stderrors.As(err, &validation) {
			response.ValidationError(c, err.Error())
			return
		}
		response.InternalServerError(c, "failed to cancel booking job")
		return
	}
	response.Success(c, gin.H{"job_id": jobID, "status": entities.BookingJobStatusCancelled})
}

// Events drains whatever progress events are currently buffered for a
// job, non-blocking, matching the hub's best-effort delivery semantics;
// clients poll this endpoint rather than holding a long-lived connection.
func (h *BookingHandler) Events(c *gin.Context) {
	jobID := c.Param("job_id")
	ch, cancel := h.hub.Subscribe(jobID)
	defer cancel()

	var events []ports.ProgressEvent
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				response.Success(c, events)
				return
			}
			events = append(events, ev)
		default:
			response.Success(c, events)
			return
		}
	}
}
