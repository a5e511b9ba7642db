package conflict

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports/repositories"
)

type fakeAppointmentRepo struct {
	active []*entities.Appointment
}

func (f *fakeAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) FindActiveForDoctorInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.Appointment, error) {
	return f.active, nil
}

func (f *fakeAppointmentRepo) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, appt *entities.Appointment) (*entities.Appointment, error) {
	return appt, nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.AppointmentStatus) (*entities.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error) {
	return nil, nil
}

var _ repositories.AppointmentRepository = (*fakeAppointmentRepo)(nil)

func TestCheckDetectsOverlap(t *testing.T) {
	doctorID := uuid.New()
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	existing := &entities.Appointment{
		ID:                 uuid.New(),
		DoctorID:           doctorID,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
		Status:             entities.AppointmentStatusConfirmed,
	}
	repo := &fakeAppointmentRepo{active: []*entities.Appointment{existing}}
	detector := NewDetector(repo)

	result, err := detector.Check(context.Background(), doctorID, start.Add(10*time.Minute), end.Add(10*time.Minute), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasConflict {
		t.Fatal("expected overlapping windows to conflict")
	}
	if len(result.ConflictingAppointments) != 1 {
		t.Fatalf("expected 1 conflicting appointment, got %d", len(result.ConflictingAppointments))
	}
}

func TestCheckExcludesGivenAppointmentID(t *testing.T) {
	doctorID := uuid.New()
	apptID := uuid.New()
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	existing := &entities.Appointment{
		ID:                 apptID,
		DoctorID:           doctorID,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
		Status:             entities.AppointmentStatusConfirmed,
	}
	repo := &fakeAppointmentRepo{active: []*entities.Appointment{existing}}
	detector := NewDetector(repo)

	result, err := detector.Check(context.Background(), doctorID, start, end, &apptID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HasConflict {
		t.Fatal("expected the excluded appointment to not count as a conflict")
	}
}

func TestCheckIgnoresInactiveAppointments(t *testing.T) {
	doctorID := uuid.New()
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	cancelled := &entities.Appointment{
		ID:                 uuid.New(),
		DoctorID:           doctorID,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
		Status:             entities.AppointmentStatusCancelled,
	}
	repo := &fakeAppointmentRepo{active: []*entities.Appointment{cancelled}}
	detector := NewDetector(repo)

	result, err := detector.Check(context.Background(), doctorID, start, end, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HasConflict {
		t.Fatal("expected a cancelled appointment to not block the window")
	}
}

func TestCheckGeneratesSameDayAlternatives(t *testing.T) {
	doctorID := uuid.New()
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	existing := &entities.Appointment{
		ID:                 uuid.New(),
		DoctorID:           doctorID,
		ScheduledStartTime: start,
		ScheduledEndTime:   end,
		Status:             entities.AppointmentStatusConfirmed,
	}
	repo := &fakeAppointmentRepo{active: []*entities.Appointment{existing}}
	detector := NewDetector(repo)

	result, err := detector.Check(context.Background(), doctorID, start, end, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.HasConflict {
		t.Fatal("expected a conflict")
	}
	if len(result.SuggestedAlternatives) == 0 {
		t.Fatal("expected at least one suggested alternative when a conflict is found")
	}
	for _, alt := range result.SuggestedAlternatives {
		if !alt.Start.Before(start) && alt.Start.Equal(start) {
			t.Fatal("expected alternatives to never equal the original conflicting start")
		}
	}
}

func TestFindNextAvailableSkipsOutOfHours(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeAppointmentRepo{}
	detector := NewDetector(repo)

	// Start the search at 23:30, well outside [8,20) working hours.
	preferred := time.Date(2026, 7, 30, 23, 30, 0, 0, time.UTC)
	slot, err := detector.FindNextAvailable(context.Background(), doctorID, preferred, 30*time.Minute, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot == nil {
		t.Fatal("expected a slot once the search crosses into working hours")
	}
	if slot.Start.Hour() < workingHourStart || slot.Start.Hour() >= workingHourEnd {
		t.Fatalf("expected the found slot to be within working hours, got hour %d", slot.Start.Hour())
	}
}
