// Package video coordinates the video session lifecycle that shadows an
// appointment's status changes (§4.J), grounded on original_source's
// video_lifecycle.rs (handle_appointment_status_change's transition
// matrix, create/activate/start/end/cancel/recreate) and on
// video-conferencing-cell's session/cloudflare clients for the shape of
// the external media-plane call, reached here through
// internal/infra/mediagw instead of a Cloudflare-specific client.
package video

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/ports/repositories"
	"telemed-booking-core/internal/infra/logger"
	"telemed-booking-core/internal/infra/metrics"
	apperrors "telemed-booking-core/pkg/errors"
)

// Action is one cell of the transition matrix in §4.J.
type Action string

const (
	ActionNoAction Action = "NoAction"
	ActionCreate   Action = "Create"
	ActionActivate Action = "Activate"
	ActionStart    Action = "Start"
	ActionEnd      Action = "End"
	ActionCancel   Action = "Cancel"
	ActionRecreate Action = "Recreate"
)

const joinURLExpiry = 2 * time.Hour

// ActionFor returns the video session action the transition matrix
// assigns to an appointment moving from previous to next, matching
// get_video_session_action.
func ActionFor(previous, next entities.AppointmentStatus) Action {
	switch {
	case next == entities.AppointmentStatusConfirmed:
		return ActionCreate
	case previous == entities.AppointmentStatusConfirmed && next == entities.AppointmentStatusInProgress:
		// "Ready -> InProgress" in the Rust source maps to our direct
		// Confirmed -> InProgress transition, since this port's DAG has
		// no separate Ready appointment status.
		return ActionStart
	case next == entities.AppointmentStatusCompleted:
		return ActionEnd
	case next == entities.AppointmentStatusCancelled:
		return ActionCancel
	case next == entities.AppointmentStatusRescheduled:
		return ActionRecreate
	default:
		return ActionNoAction
	}
}

// Coordinator applies video session actions triggered by appointment
// status changes, and runs the periodic sweep described in §4.J.
type Coordinator struct {
	videos       repositories.VideoRepository
	appointments repositories.AppointmentRepository
	gateway      ports.MediaGateway
	clock        ports.Clock
	baseURL      string
	log          *logger.Logger
	metrics      *metrics.Registry
}

func NewCoordinator(videos repositories.VideoRepository, appointments repositories.AppointmentRepository, gateway ports.MediaGateway, clock ports.Clock, baseURL string, log *logger.Logger, reg *metrics.Registry) *Coordinator {
	return &Coordinator{
		videos:       videos,
		appointments: appointments,
		gateway:      gateway,
		clock:        clock,
		baseURL:      baseURL,
		log:          log,
		metrics:      reg,
	}
}

// HandleStatusChange applies the transition matrix's action for an
// appointment moving from previous to next. A VideoServiceUnavailable or
// any other gateway failure is tolerated locally (§7): it is logged and
// recorded as a failed lifecycle event, and never bubbles to the caller,
// so a degraded media plane never blocks the appointment transition
// itself.
func (c *Coordinator) HandleStatusChange(ctx context.Context, appt *entities.Appointment, previous entities.AppointmentStatus) {
	action := ActionFor(previous, appt.Status)
	var err error
	switch action {
	case ActionNoAction:
		return
	case ActionCreate:
		err = c.create(ctx, appt)
	case ActionActivate:
		err = c.activate(ctx, appt)
	case ActionStart:
		err = c.start(ctx, appt)
	case ActionEnd:
		err = c.end(ctx, appt)
	case ActionCancel:
		err = c.cancel(ctx, appt)
	case ActionRecreate:
		err = c.recreate(ctx, appt)
	}

	success := err == nil
	if c.metrics != nil {
		c.metrics.RecordVideoEvent(string(action), success)
	}
	if err != nil {
		c.log.WithFields(map[string]interface{}{
			"appointment_id": appt.ID.String(),
			"action":         string(action),
		}).Warn("video session lifecycle action failed, appointment transition unaffected")
	}
}

func (c *Coordinator) create(ctx context.Context, appt *entities.Appointment) error {
	existing, err := c.videos.FindByAppointment(ctx, appt.ID)
	if err == nil && existing != nil && !existing.IsConcluded() {
		return nil
	}

	roomID := deterministicRoomID(appt.ID)
	handle, err := c.gateway.CreateRoom(ctx, ports.MediaRoomRequest{AppointmentID: appt.ID.String(), RoomID: roomID})
	if err != nil {
		return c.recordEvent(ctx, uuid.Nil, appt.ID, "Create", false, err)
	}

	now := c.clock.Now()
	session := &entities.VideoSession{
		ID:                   uuid.New(),
		AppointmentID:        appt.ID,
		RoomID:               roomID,
		MediaPlaneSessionID:  &handle.MediaPlaneSessionID,
		Status:               entities.VideoSessionStatusCreated,
		ScheduledStartTime:   appt.ScheduledStartTime,
		ScheduledEndTime:     appt.ScheduledEndTime,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	created, err := c.videos.Create(ctx, session)
	if err != nil {
		return c.recordEvent(ctx, uuid.Nil, appt.ID, "Create", false, err)
	}

	return c.recordEvent(ctx, created.ID, appt.ID, "Create", true, nil)
}

func (c *Coordinator) activate(ctx context.Context, appt *entities.Appointment) error {
	session, err := c.videos.FindByAppointment(ctx, appt.ID)
	if err != nil {
		return err
	}

	session.Status = entities.VideoSessionStatusReady
	session.UpdatedAt = c.clock.Now()
	if _, err := c.videos.Update(ctx, session); err != nil {
		return c.recordEvent(ctx, session.ID, appt.ID, "Activate", false, err)
	}

	expiresAt := c.clock.Now().Add(joinURLExpiry)
	patientURL := joinURL(c.baseURL, session.RoomID, entities.ParticipantTypePatient, appt.ID)
	doctorURL := joinURL(c.baseURL, session.RoomID, entities.ParticipantTypeDoctor, appt.ID)

	for _, u := range []*entities.VideoSessionURL{
		{ID: uuid.New(), VideoSessionID: session.ID, ParticipantType: entities.ParticipantTypePatient, URL: patientURL, ExpiresAt: expiresAt, CreatedAt: c.clock.Now()},
		{ID: uuid.New(), VideoSessionID: session.ID, ParticipantType: entities.ParticipantTypeDoctor, URL: doctorURL, ExpiresAt: expiresAt, CreatedAt: c.clock.Now()},
	} {
		if _, err := c.videos.SaveURL(ctx, u); err != nil {
			return c.recordEvent(ctx, session.ID, appt.ID, "Activate", false, err)
		}
	}

	return c.recordEvent(ctx, session.ID, appt.ID, "Activate", true, nil)
}

func (c *Coordinator) start(ctx context.Context, appt *entities.Appointment) error {
	session, err := c.videos.FindByAppointment(ctx, appt.ID)
	if err != nil {
		return err
	}
	now := c.clock.Now()
	session.Status = entities.VideoSessionStatusActive
	session.ActualStartTime = &now
	session.UpdatedAt = now
	if _, err := c.videos.Update(ctx, session); err != nil {
		return c.recordEvent(ctx, session.ID, appt.ID, "Start", false, err)
	}
	return c.recordEvent(ctx, session.ID, appt.ID, "Start", true, nil)
}

func (c *Coordinator) end(ctx context.Context, appt *entities.Appointment) error {
	session, err := c.videos.FindByAppointment(ctx, appt.ID)
	if err != nil {
		return err
	}

	if session.MediaPlaneSessionID != nil {
		if err := c.gateway.EndRoom(ctx, *session.MediaPlaneSessionID); err != nil {
			c.log.WithFields(map[string]interface{}{"video_session_id": session.ID.String()}).Warn("media gateway room end failed, continuing with local cleanup")
		}
	}

	now := c.clock.Now()
	session.Status = entities.VideoSessionStatusEnded
	session.ActualEndTime = &now
	if session.ActualStartTime != nil {
		minutes := int(now.Sub(*session.ActualStartTime).Minutes())
		session.SessionDurationMinutes = &minutes
	}
	session.UpdatedAt = now
	if _, err := c.videos.Update(ctx, session); err != nil {
		return c.recordEvent(ctx, session.ID, appt.ID, "End", false, err)
	}

	return c.recordEvent(ctx, session.ID, appt.ID, "End", true, nil)
}

func (c *Coordinator) cancel(ctx context.Context, appt *entities.Appointment) error {
	session, err := c.videos.FindByAppointment(ctx, appt.ID)
	if err != nil {
		return nil
	}

	if session.MediaPlaneSessionID != nil {
		if err := c.gateway.EndRoom(ctx, *session.MediaPlaneSessionID); err != nil {
			c.log.WithFields(map[string]interface{}{"video_session_id": session.ID.String()}).Warn("media gateway room cancel failed, continuing with local cleanup")
		}
	}

	session.Status = entities.VideoSessionStatusCancelled
	session.UpdatedAt = c.clock.Now()
	if _, err := c.videos.Update(ctx, session); err != nil {
		return c.recordEvent(ctx, session.ID, appt.ID, "Cancel", false, err)
	}

	return c.recordEvent(ctx, session.ID, appt.ID, "Cancel", true, nil)
}

func (c *Coordinator) recreate(ctx context.Context, appt *entities.Appointment) error {
	if err := c.cancel(ctx, appt); err != nil {
		return err
	}
	return c.create(ctx, appt)
}

func (c *Coordinator) recordEvent(ctx context.Context, sessionID, appointmentID uuid.UUID, action string, success bool, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	event := &entities.VideoSessionLifecycleEvent{
		ID:             uuid.New(),
		VideoSessionID: sessionID,
		Action:         action,
		Success:        success,
		Detail:         detail,
		OccurredAt:     c.clock.Now(),
	}
	if err := c.videos.RecordEvent(ctx, event); err != nil {
		c.log.Warn("failed to record video session lifecycle event")
	}
	return cause
}

func deterministicRoomID(appointmentID uuid.UUID) string {
	return fmt.Sprintf("room_%s", appointmentID.String())
}

func joinURL(baseURL, roomID string, participant entities.ParticipantType, appointmentID uuid.UUID) string {
	return fmt.Sprintf("%s/video/rooms/%s/join?role=%s&appointment_id=%s", baseURL, roomID, string(participant), appointmentID.String())
}
