package entities

import "time"

// SlotPriority classifies a theoretical slot's desirability, assigned by
// the availability engine's policy (§4.C step 5) and consumed by the
// worker pool's scoring formula (§4.H step 3).
type SlotPriority string

const (
	SlotPriorityEmergency SlotPriority = "Emergency"
	SlotPriorityPreferred SlotPriority = "Preferred"
	SlotPriorityAvailable SlotPriority = "Available"
	SlotPriorityLimited   SlotPriority = "Limited"
	SlotPriorityWaitList  SlotPriority = "WaitList"
)

// AvailableSlot is a value object: a theoretical bookable interval derived
// from availability rules, never persisted on its own.
type AvailableSlot struct {
	Start                 time.Time
	End                   time.Time
	DurationMinutes       int
	AppointmentType       AppointmentType
	BufferMinutes         int
	MaxConcurrentPatients int
	Priority              SlotPriority
}
