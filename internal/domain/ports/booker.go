package ports

import (
	"context"

	"telemed-booking-core/internal/domain/entities"
)

// Booker is the atomic booking path (F), called in-process by the worker
// pool (open question (c) in spec.md §9: no HTTP hop).
type Booker interface {
	BookSlot(ctx context.Context, req entities.BookingRequest, slot entities.AvailableSlot, doctorID string) (*entities.Appointment, error)
}
