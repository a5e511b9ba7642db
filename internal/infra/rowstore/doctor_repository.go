package rowstore

import (
	"context"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	apperrors "telemed-booking-core/pkg/errors"
)

const doctorsTable = "doctors"

// DoctorRepository implements repositories.DoctorRepository over the row
// store client.
type DoctorRepository struct {
	client *Client
}

func NewDoctorRepository(client *Client) *DoctorRepository {
	return &DoctorRepository{client: client}
}

func (r *DoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Doctor, error) {
	q := NewQuery().Where("id", OpEq, id.String()).Limit(1)
	records, err := Get[entities.Doctor](ctx, r.client, doctorsTable, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewDoctorNotFound(id.String())
	}
	return &records[0], nil
}

func (r *DoctorRepository) FindBySpecialty(ctx context.Context, specialty string) ([]*entities.Doctor, error) {
	q := NewQuery().
		Where("specialty", OpIlike, "%"+specialty+"%").
		Where("is_verified", OpEq, "true").
		Where("is_available", OpEq, "true")
	records, err := Get[entities.Doctor](ctx, r.client, doctorsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *DoctorRepository) ListAvailable(ctx context.Context) ([]*entities.Doctor, error) {
	q := NewQuery().Where("is_available", OpEq, "true")
	records, err := Get[entities.Doctor](ctx, r.client, doctorsTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *DoctorRepository) Update(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error) {
	q := NewQuery().Where("id", OpEq, doctor.ID.String())
	patch := map[string]any{
		"is_available":        doctor.IsAvailable,
		"is_verified":         doctor.IsVerified,
		"rating":              doctor.Rating,
		"total_consultations": doctor.TotalConsultations,
		"updated_at":          doctor.UpdatedAt,
	}
	updated, err := Patch[entities.Doctor](ctx, r.client, doctorsTable, q, patch)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func toPointers[T any](records []T) []*T {
	out := make([]*T, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out
}
