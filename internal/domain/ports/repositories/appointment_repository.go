package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

// AppointmentRepository is the row-store-backed persistence surface for
// appointments, used by the conflict detector (D) and the atomic booking
// path (F).
type AppointmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error)
	FindActiveForDoctorInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.Appointment, error)
	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Appointment, error)
	Create(ctx context.Context, appt *entities.Appointment) (*entities.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.AppointmentStatus) (*entities.Appointment, error)
	// FindConfirmedStartingBefore lists Confirmed appointments whose
	// scheduled start is at or before threshold, used by the video
	// coordinator's periodic auto-activate sweep (§4.J).
	FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error)
}
