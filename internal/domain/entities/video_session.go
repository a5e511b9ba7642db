package entities

import (
	"time"

	"github.com/google/uuid"
)

// VideoSessionStatus mirrors the WebRTC session's lifecycle state (§4.J).
type VideoSessionStatus string

const (
	VideoSessionStatusCreated   VideoSessionStatus = "Created"
	VideoSessionStatusReady     VideoSessionStatus = "Ready"
	VideoSessionStatusActive    VideoSessionStatus = "Active"
	VideoSessionStatusEnded     VideoSessionStatus = "Ended"
	VideoSessionStatusCancelled VideoSessionStatus = "Cancelled"
	VideoSessionStatusFailed    VideoSessionStatus = "Failed"
)

// ParticipantType distinguishes the two join-URL holders of a session.
type ParticipantType string

const (
	ParticipantTypePatient ParticipantType = "Patient"
	ParticipantTypeDoctor  ParticipantType = "Doctor"
)

// concludedVideoSessionStatuses are statuses that no longer count toward
// the "at most one non-concluded session per appointment" invariant (§3).
var concludedVideoSessionStatuses = map[VideoSessionStatus]bool{
	VideoSessionStatusEnded:     true,
	VideoSessionStatusCancelled: true,
	VideoSessionStatusFailed:    true,
}

// VideoSession is a dependent child of Appointment, destroyed/cancelled
// when the parent terminates.
type VideoSession struct {
	ID                     uuid.UUID          `json:"id" db:"id"`
	AppointmentID          uuid.UUID          `json:"appointment_id" db:"appointment_id"`
	RoomID                 string             `json:"room_id" db:"room_id"`
	MediaPlaneSessionID    *string            `json:"media_plane_session_id,omitempty" db:"media_plane_session_id"`
	Status                 VideoSessionStatus `json:"status" db:"status"`
	ScheduledStartTime     time.Time          `json:"scheduled_start_time" db:"scheduled_start_time"`
	ScheduledEndTime       time.Time          `json:"scheduled_end_time" db:"scheduled_end_time"`
	ActualStartTime        *time.Time         `json:"actual_start_time,omitempty" db:"actual_start_time"`
	ActualEndTime          *time.Time         `json:"actual_end_time,omitempty" db:"actual_end_time"`
	SessionDurationMinutes *int               `json:"session_duration_minutes,omitempty" db:"session_duration_minutes"`
	QualityScore           *float64           `json:"quality_score,omitempty" db:"quality_score"`
	ConnectionIssuesCount  int                `json:"connection_issues_count" db:"connection_issues_count"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at" db:"updated_at"`
}

// IsConcluded reports whether the session no longer occupies the "at most
// one non-concluded session per appointment" slot.
func (v *VideoSession) IsConcluded() bool {
	return concludedVideoSessionStatuses[v.Status]
}

// VideoSessionURL is a time-bounded join URL issued to one participant of
// a video session (2-hour expiry per §4.J Activate).
type VideoSessionURL struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	VideoSessionID  uuid.UUID       `json:"video_session_id" db:"video_session_id"`
	ParticipantType ParticipantType `json:"participant_type" db:"participant_type"`
	URL             string          `json:"url" db:"url"`
	ExpiresAt       time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	RevokedAt       *time.Time      `json:"revoked_at,omitempty" db:"revoked_at"`
}

// IsExpired reports whether the join URL has outlived its expiry or was
// explicitly revoked.
func (u *VideoSessionURL) IsExpired(now time.Time) bool {
	return u.RevokedAt != nil || u.ExpiresAt.Before(now)
}

// VideoSessionLifecycleEvent records one transition-matrix action (§4.J)
// applied to a session, including tolerated failures (success=false).
type VideoSessionLifecycleEvent struct {
	ID             uuid.UUID `json:"id" db:"id"`
	VideoSessionID uuid.UUID `json:"video_session_id" db:"video_session_id"`
	Action         string    `json:"action" db:"action"`
	Success        bool      `json:"success" db:"success"`
	Detail         string    `json:"detail,omitempty" db:"detail"`
	OccurredAt     time.Time `json:"occurred_at" db:"occurred_at"`
}
