package rowstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	apperrors "telemed-booking-core/pkg/errors"
)

const (
	videoSessionsTable = "video_sessions"
	videoURLsTable     = "video_session_urls"
	videoEventsTable   = "video_session_events"
)

// VideoRepository implements repositories.VideoRepository over the row
// store client.
type VideoRepository struct {
	client *Client
}

func NewVideoRepository(client *Client) *VideoRepository {
	return &VideoRepository{client: client}
}

func (r *VideoRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entities.VideoSession, error) {
	q := NewQuery().Where("appointment_id", OpEq, appointmentID.String()).Limit(1)
	records, err := Get[entities.VideoSession](ctx, r.client, videoSessionsTable, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.ErrVideoSessionNotFound
	}
	return &records[0], nil
}

func (r *VideoRepository) Create(ctx context.Context, session *entities.VideoSession) (*entities.VideoSession, error) {
	created, err := Insert(ctx, r.client, videoSessionsTable, *session)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *VideoRepository) Update(ctx context.Context, session *entities.VideoSession) (*entities.VideoSession, error) {
	q := NewQuery().Where("id", OpEq, session.ID.String())
	patch := map[string]any{
		"status":                   session.Status,
		"actual_start_time":        session.ActualStartTime,
		"actual_end_time":          session.ActualEndTime,
		"session_duration_minutes": session.SessionDurationMinutes,
		"quality_score":            session.QualityScore,
		"connection_issues_count":  session.ConnectionIssuesCount,
		"updated_at":               time.Now().UTC(),
	}
	updated, err := Patch[entities.VideoSession](ctx, r.client, videoSessionsTable, q, patch)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *VideoRepository) SaveURL(ctx context.Context, url *entities.VideoSessionURL) (*entities.VideoSessionURL, error) {
	created, err := Insert(ctx, r.client, videoURLsTable, *url)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *VideoRepository) RecordEvent(ctx context.Context, event *entities.VideoSessionLifecycleEvent) error {
	_, err := Insert(ctx, r.client, videoEventsTable, *event)
	return err
}

// ListStale mirrors cleanup_expired_sessions's query:
// status=in.(Created,Ready)&scheduled_start_time=lte.<threshold>.
func (r *VideoRepository) ListStale(ctx context.Context, threshold time.Time) ([]*entities.VideoSession, error) {
	q := NewQuery().
		Where("status", OpIn, fmt.Sprintf("(%s,%s)", entities.VideoSessionStatusCreated, entities.VideoSessionStatusReady)).
		Where("scheduled_start_time", OpLte, threshold.Format(time.RFC3339))
	records, err := Get[entities.VideoSession](ctx, r.client, videoSessionsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}
