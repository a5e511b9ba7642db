package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/app/progress"
	"telemed-booking-core/internal/app/queue"
	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports/repositories"
	"telemed-booking-core/internal/domain/services/availability"
	"telemed-booking-core/internal/domain/services/lifecycle"
	"telemed-booking-core/internal/domain/services/matching"
	"telemed-booking-core/internal/infra/logger"
	"telemed-booking-core/internal/infra/queuebackend"
)

type processFakeClock struct{ now time.Time }

func (f processFakeClock) Now() time.Time { return f.now }

type processFakeDoctorRepo struct{ doctors []*entities.Doctor }

func (f *processFakeDoctorRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Doctor, error) {
	return nil, nil
}
func (f *processFakeDoctorRepo) FindBySpecialty(ctx context.Context, specialty string) ([]*entities.Doctor, error) {
	return f.doctors, nil
}
func (f *processFakeDoctorRepo) ListAvailable(ctx context.Context) ([]*entities.Doctor, error) {
	return f.doctors, nil
}
func (f *processFakeDoctorRepo) Update(ctx context.Context, doctor *entities.Doctor) (*entities.Doctor, error) {
	return doctor, nil
}

type processFakeAvailabilityRepo struct{ rules []*entities.AvailabilityRule }

func (f *processFakeAvailabilityRepo) RulesForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*entities.AvailabilityRule, error) {
	return f.rules, nil
}
func (f *processFakeAvailabilityRepo) OverridesForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.AvailabilityOverride, error) {
	return nil, nil
}

type processFakeAppointmentRepo struct{}

func (f *processFakeAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Appointment, error) {
	return nil, nil
}
func (f *processFakeAppointmentRepo) FindActiveForDoctorInWindow(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*entities.Appointment, error) {
	return nil, nil
}
func (f *processFakeAppointmentRepo) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*entities.Appointment, error) {
	return nil, nil
}
func (f *processFakeAppointmentRepo) Create(ctx context.Context, appt *entities.Appointment) (*entities.Appointment, error) {
	return appt, nil
}
func (f *processFakeAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.AppointmentStatus) (*entities.Appointment, error) {
	return nil, nil
}
func (f *processFakeAppointmentRepo) FindConfirmedStartingBefore(ctx context.Context, threshold time.Time) ([]*entities.Appointment, error) {
	return nil, nil
}

var _ repositories.AppointmentRepository = (*processFakeAppointmentRepo)(nil)

type processFakeBooker struct {
	booked *entities.Appointment
	err    error
}

func (f *processFakeBooker) BookSlot(ctx context.Context, req entities.BookingRequest, slot entities.AvailableSlot, doctorID string) (*entities.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.booked = &entities.Appointment{ID: uuid.New(), DoctorID: uuid.MustParse(doctorID), ScheduledStartTime: slot.Start, ScheduledEndTime: slot.End}
	return f.booked, nil
}

func newTestPool(t *testing.T, now time.Time, booker *processFakeBooker, rules *lifecycle.Rules) (*Pool, *queue.Service) {
	t.Helper()
	morningStart := entities.TimeOfDay{Hour: 9, Minute: 0}
	morningEnd := entities.TimeOfDay{Hour: 11, Minute: 0}
	doctorID := uuid.New()
	doctor := &entities.Doctor{ID: doctorID, Name: "Dr. Test", Specialty: "Cardiology", IsVerified: true, IsAvailable: true, Rating: 4.5, YearsExperience: 10}
	rule := &entities.AvailabilityRule{
		ID: uuid.New(), DoctorID: doctorID, DayOfWeek: int(now.Weekday()),
		MorningStart: &morningStart, MorningEnd: &morningEnd,
		DurationMinutes: 30, MaxConcurrentAppointments: 1,
		AppointmentType: entities.AppointmentTypeGeneralConsultation, IsAvailable: true,
	}

	availEngine := availability.NewEngine(&processFakeAvailabilityRepo{rules: []*entities.AvailabilityRule{rule}})
	matchEngine := matching.NewEngine(&processFakeDoctorRepo{doctors: []*entities.Doctor{doctor}}, availEngine)

	backend := queuebackend.NewInProcessBackend()
	clock := processFakeClock{now: now}
	queueService := queue.NewService(backend, clock)
	hub := progress.NewHub()
	log := logger.NewLogger("error")

	pool := NewPool(queueService, matchEngine, booker, rules, hub, clock, time.UTC, Config{
		MaxConcurrentJobs: 1,
		JobTimeout:        time.Second,
		RetryDelay:        time.Millisecond,
		PollInterval:      time.Millisecond,
		GracefulShutdown:  time.Second,
	}, log, nil)
	return pool, queueService
}

func TestProcessCompletesHappyPath(t *testing.T) {
	now := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC) // Thursday
	rules := lifecycle.NewRules(&processFakeAppointmentRepo{}, processFakeClock{now: now}, lifecycle.Config{
		MinAdvanceBookingHours: 0,
		MaxAdvanceBookingDays:  30,
		MinDurationMinutes:     15,
		MaxDurationMinutes:     60,
		AllowWeekends:          true,
		BusinessHourStart:      0,
		BusinessHourEnd:        23,
	}, nil)

	booker := &processFakeBooker{}
	pool, queueService := newTestPool(t, now, booker, rules)

	job, err := queueService.Submit(context.Background(), entities.BookingRequest{
		PatientID: uuid.New(), Specialty: "Cardiology", PreferredDate: now,
		DurationMinutes: 30, AppointmentType: entities.AppointmentTypeGeneralConsultation,
	}, entities.JobPriorityStandard, 3)
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	pool.process(context.Background(), job, "test-worker")

	loaded, err := queueService.Load(context.Background(), job.JobID.String())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Status != entities.BookingJobStatusCompleted {
		t.Fatalf("expected job to complete, got status %s (error: %v)", loaded.Status, loaded.ErrorMessage)
	}
	if booker.booked == nil {
		t.Fatal("expected the booker to have been called")
	}
}

func TestProcessFailsWhenLifecycleRulesRejectTheWindow(t *testing.T) {
	now := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)
	// Business hours [12, 13) never contain the 09:00 slot the availability
	// rule generates, so ValidateBooking always rejects it.
	rules := lifecycle.NewRules(&processFakeAppointmentRepo{}, processFakeClock{now: now}, lifecycle.Config{
		MinAdvanceBookingHours: 0,
		MaxAdvanceBookingDays:  30,
		MinDurationMinutes:     15,
		MaxDurationMinutes:     60,
		AllowWeekends:          true,
		BusinessHourStart:      12,
		BusinessHourEnd:        13,
	}, nil)

	booker := &processFakeBooker{}
	pool, queueService := newTestPool(t, now, booker, rules)

	job, err := queueService.Submit(context.Background(), entities.BookingRequest{
		PatientID: uuid.New(), Specialty: "Cardiology", PreferredDate: now,
		DurationMinutes: 30, AppointmentType: entities.AppointmentTypeGeneralConsultation,
	}, entities.JobPriorityStandard, 0)
	if err != nil {
		t.Fatalf("unexpected submit error: %v", err)
	}

	pool.process(context.Background(), job, "test-worker")

	loaded, err := queueService.Load(context.Background(), job.JobID.String())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Status != entities.BookingJobStatusFailed {
		t.Fatalf("expected the job to fail when the chosen slot violates business hours, got %s", loaded.Status)
	}
	if booker.booked != nil {
		t.Fatal("expected the booker to never be called once lifecycle validation rejects the slot")
	}
}
