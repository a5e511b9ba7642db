package video

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/infra/logger"
)

type fakeConfirmedAppointmentRepo struct {
	fakeAppointmentRepo
	confirmed []*entities.Appointment
}

func (f *fakeConfirmedAppointmentRepo) FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error) {
	return f.confirmed, nil
}

func TestSweepAutoActivatesNearingSessions(t *testing.T) {
	videos := newFakeVideoRepo()
	apptID := uuid.New()
	videos.byAppointment[apptID] = &entities.VideoSession{ID: uuid.New(), AppointmentID: apptID, Status: entities.VideoSessionStatusCreated}

	appointments := &fakeConfirmedAppointmentRepo{confirmed: []*entities.Appointment{{ID: apptID, Status: entities.AppointmentStatusConfirmed}}}
	coordinator := NewCoordinator(videos, appointments, &fakeGateway{}, fakeClock{now: time.Now()}, "https://video.example.com", logger.NewLogger("error"), nil)

	coordinator.Sweep(context.Background())

	if videos.byAppointment[apptID].Status != entities.VideoSessionStatusReady {
		t.Fatalf("expected sweep to activate the session, got %s", videos.byAppointment[apptID].Status)
	}
}

func TestSweepFailsExpiredSessions(t *testing.T) {
	videos := newFakeVideoRepo()
	stale := &entities.VideoSession{ID: uuid.New(), Status: entities.VideoSessionStatusCreated}
	videos.stale = []*entities.VideoSession{stale}

	coordinator := NewCoordinator(videos, &fakeAppointmentRepo{}, &fakeGateway{}, fakeClock{now: time.Now()}, "https://video.example.com", logger.NewLogger("error"), nil)
	coordinator.Sweep(context.Background())

	if stale.Status != "Failed" {
		t.Fatalf("expected stale session to be marked Failed, got %s", stale.Status)
	}
}
