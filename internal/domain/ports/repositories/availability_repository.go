package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

// AvailabilityRepository exposes a doctor's recurring rules and date
// overrides to the availability engine (C).
type AvailabilityRepository interface {
	RulesForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entities.AvailabilityRule, error)
	OverridesForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.AvailabilityOverride, error)
}
