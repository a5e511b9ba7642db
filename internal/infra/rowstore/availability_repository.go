package rowstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

const (
	availabilityRulesTable     = "availability_rules"
	availabilityOverridesTable = "availability_overrides"
)

// AvailabilityRepository implements repositories.AvailabilityRepository
// over the row store client. It always reads the tables named by the
// constants above; the row_store.availability_table_name config key is
// not consulted.
type AvailabilityRepository struct {
	client *Client
}

func NewAvailabilityRepository(client *Client) *AvailabilityRepository {
	return &AvailabilityRepository{client: client}
}

func (r *AvailabilityRepository) RulesForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entities.AvailabilityRule, error) {
	q := NewQuery().Where("doctor_id", OpEq, doctorID.String()).Where("is_available", OpEq, "true")
	records, err := Get[entities.AvailabilityRule](ctx, r.client, availabilityRulesTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}

func (r *AvailabilityRepository) OverridesForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.AvailabilityOverride, error) {
	q := NewQuery().
		Where("doctor_id", OpEq, doctorID.String()).
		Where("override_date", OpGte, from.Format(time.RFC3339)).
		Where("override_date", OpLte, to.Format(time.RFC3339))
	records, err := Get[entities.AvailabilityOverride](ctx, r.client, availabilityOverridesTable, q)
	if err != nil {
		return nil, err
	}
	return toPointers(records), nil
}
