package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

// VideoRepository persists video sessions, join URLs, and lifecycle
// events for the video coordinator (J).
type VideoRepository interface {
	FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*entities.VideoSession, error)
	Create(ctx context.Context, session *entities.VideoSession) (*entities.VideoSession, error)
	Update(ctx context.Context, session *entities.VideoSession) (*entities.VideoSession, error)
	SaveURL(ctx context.Context, url *entities.VideoSessionURL) (*entities.VideoSessionURL, error)
	RecordEvent(ctx context.Context, event *entities.VideoSessionLifecycleEvent) error
	// ListStale returns Created/Ready sessions whose scheduled start is
	// at or before threshold, used by the periodic timeout-fail sweep (§4.J),
	// mirroring cleanup_expired_sessions's query.
	ListStale(ctx context.Context, threshold time.Time) ([]*entities.VideoSession, error)
}
