package rowstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	apperrors "telemed-booking-core/pkg/errors"
)

const appointmentsTable = "appointments"

// AppointmentRepository implements repositories.AppointmentRepository
// over the row store client.
type AppointmentRepository struct {
	client *Client
}

func NewAppointmentRepository(client *Client) *AppointmentRepository {
	return &AppointmentRepository{client: client}
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	q := NewQuery().Where("id", OpEq, id.String()).Limit(1)
	records, err := Get[entities.Appointment](ctx, r.client, appointmentsTable, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFound("appointment", id.String())
	}
	return &records[0], nil
}

// FindActiveForDoctorInWindow fetches the appointments a conflict check
// (§4.D) must compare against: active statuses only, overlapping a
// generous [from, to) window so the caller can re-check exact overlap
// in-process.
func (r *AppointmentRepository) FindActiveForDoctorInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.Appointment, error) {
	q := NewQuery().
		Where("doctor_id", OpEq, doctorID.String()).
		Where("scheduled_start_time", OpLte, to.Format(time.RFC3339)).
		Where("scheduled_end_time", OpGte, from.Format(time.RFC3339)).
		Where("status", OpIn, fmt.Sprintf("(%s,%s,%s)",
			entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed, entities.AppointmentStatusInProgress))
	records, err := Get[entities.Appointment](ctx, r.client, appointmentsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *AppointmentRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Appointment, error) {
	q := NewQuery().Where("patient_id", OpEq, patientID.String()).OrderBy("scheduled_start_time", true)
	records, err := Get[entities.Appointment](ctx, r.client, appointmentsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *AppointmentRepository) Create(ctx context.Context, appt *entities.Appointment) (*entities.Appointment, error) {
	created, err := Insert(ctx, r.client, appointmentsTable, *appt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindConfirmedStartingBefore mirrors auto_activate_sessions_ready_for_joining's
// query (status=eq.confirmed&appointment_date=lte.<threshold>).
func (r *AppointmentRepository) FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error) {
	q := NewQuery().
		Where("status", OpEq, string(entities.AppointmentStatusConfirmed)).
		Where("scheduled_start_time", OpLte, threshold.Format(time.RFC3339))
	records, err := Get[entities.Appointment](ctx, r.client, appointmentsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.AppointmentStatus) (*entities.Appointment, error) {
	q := NewQuery().Where("id", OpEq, id.String())
	patch := map[string]any{"status": status, "updated_at": time.Now().UTC()}
	updated, err := Patch[entities.Appointment](ctx, r.client, appointmentsTable, q, patch)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
