package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

type fakeAppointmentRepo struct {
	active  []*entities.Appointment
	updated map[uuid.UUID]entities.AppointmentStatus
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
	if f.updated == nil {
		f.updated = map[uuid.UUID]entities.AppointmentStatus{}
	}
	f.updated[id] = status
	return &entities.Appointment{ID: id, Status: status}, nil
}

func (f *fakeAppointmentRepo) FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error) {
	return nil, nil
}

func newTestRules(now time.Time, repo *fakeAppointmentRepo) *Rules {
	return NewRules(repo, fakeClock{now: now}, Config{
		MinAdvanceBookingHours: 2,
		MaxAdvanceBookingDays:  90,
		MinDurationMinutes:     15,
		MaxDurationMinutes:     180,
		AllowWeekends:          false,
		AllowedRescheduleHours: 4,
		BusinessHourStart:      8,
		BusinessHourEnd:        20,
	}, nil)
}

func TestValidateTransitionAllowed(t *testing.T) {
	r := newTestRules(time.Now(), &fakeAppointmentRepo{})
	if err := r.ValidateTransition(entities.AppointmentStatusPending, entities.AppointmentStatusConfirmed); err != nil {
		t.Fatalf("expected Pending->Confirmed to be allowed, got %v", err)
	}
}

func TestValidateTransitionRejected(t *testing.T) {
	r := newTestRules(time.Now(), &fakeAppointmentRepo{})
	if err := r.ValidateTransition(entities.AppointmentStatusCompleted, entities.AppointmentStatusConfirmed); err == nil {
		t.Fatal("expected Completed->Confirmed to be rejected")
	}
}

func TestCanStartWithinWindow(t *testing.T) {
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	r := newTestRules(start.Add(10*time.Minute), &fakeAppointmentRepo{})
	appt := &entities.Appointment{Status: entities.AppointmentStatusConfirmed, ScheduledStartTime: start}
	if !r.CanStart(appt) {
		t.Fatal("expected CanStart to be true within the early/late window")
	}
}

func TestCanStartOutsideWindow(t *testing.T) {
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	r := newTestRules(start.Add(time.Hour), &fakeAppointmentRepo{})
	appt := &entities.Appointment{Status: entities.AppointmentStatusConfirmed, ScheduledStartTime: start}
	if r.CanStart(appt) {
		t.Fatal("expected CanStart to be false an hour past scheduled start")
	}
}

func TestShouldMarkNoShow(t *testing.T) {
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	r := newTestRules(start.Add(31*time.Minute), &fakeAppointmentRepo{})
	appt := &entities.Appointment{Status: entities.AppointmentStatusConfirmed, ScheduledStartTime: start}
	if !r.ShouldMarkNoShow(appt) {
		t.Fatal("expected no-show 31 minutes past scheduled start")
	}
}

func TestAutoCompleteDue(t *testing.T) {
	end := time.Date(2026, 7, 30, 11, 0, 0, 0, time.UTC)
	r := newTestRules(end.Add(31*time.Minute), &fakeAppointmentRepo{})
	appt := &entities.Appointment{Status: entities.AppointmentStatusInProgress, ScheduledEndTime: end}
	if !r.AutoCompleteDue(appt) {
		t.Fatal("expected auto-complete 31 minutes past scheduled end")
	}
}

func TestValidateBookingRejectsWeekend(t *testing.T) {
	r := newTestRules(time.Date(2026, 7, 25, 9, 0, 0, 0, time.UTC), &fakeAppointmentRepo{})
	saturday := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	if err := r.ValidateBooking(saturday, saturday.Add(30*time.Minute)); err == nil {
		t.Fatal("expected weekend booking to be rejected")
	}
}

func TestValidateBookingRejectsTooSoon(t *testing.T) {
	now := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC)
	r := newTestRules(now, &fakeAppointmentRepo{})
	start := now.Add(30 * time.Minute)
	if err := r.ValidateBooking(start, start.Add(30*time.Minute)); err == nil {
		t.Fatal("expected a booking inside the minimum advance-notice window to be rejected")
	}
}

func TestValidateBookingAcceptsValidWindow(t *testing.T) {
	now := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC) // a Monday
	r := newTestRules(now, &fakeAppointmentRepo{})
	start := now.Add(48 * time.Hour)
	if err := r.ValidateBooking(start, start.Add(30*time.Minute)); err != nil {
		t.Fatalf("expected valid booking window to pass, got %v", err)
	}
}

func TestApplyAutomaticTransitions(t *testing.T) {
	start := time.Date(2026, 7, 30, 10, 0, 0, 0, time.UTC)
	appt := &entities.Appointment{ID: uuid.New(), Status: entities.AppointmentStatusConfirmed, ScheduledStartTime: start}
	repo := &fakeAppointmentRepo{active: []*entities.Appointment{appt}}
	r := newTestRules(start.Add(45*time.Minute), repo)

	applied, err := r.ApplyAutomaticTransitions(context.Background(), uuid.New(), start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 automatic transition, got %d", applied)
	}
	if repo.updated[appt.ID] != entities.AppointmentStatusNoShow {
		t.Fatalf("expected appointment to be marked NoShow, got %v", repo.updated[appt.ID])
	}
}
