package repositories

import (
	"context"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

// DoctorRepository is the row-store-backed read/write surface the
// matching engine (E) and availability engine (C) use to look up
// clinicians. Implemented by internal/infra/rowstore.
type DoctorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Doctor, error)
	FindBySpecialty(ctx context.Context, specialty string) ([]*entities.Doctor, error)
	ListAvailable(ctx context.Context) ([]*entities.Doctor, error)
	Update(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error)
}
