package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/infra/queuebackend"
)

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func TestSubmitAndDequeue(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	req := entities.BookingRequest{PatientID: uuid.New(), Specialty: "Cardiology", DurationMinutes: 30}
	job, err := svc.Submit(ctx, req, entities.JobPriorityStandard, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != entities.BookingJobStatusQueued {
		t.Fatalf("expected Queued, got %s", job.Status)
	}

	dequeued, ok, err := svc.Dequeue(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a job to be dequeued")
	}
	if dequeued.JobID != job.JobID {
		t.Fatalf("expected job %s, got %s", job.JobID, dequeued.JobID)
	}
}

func TestDequeuePriorityOrder(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	req := entities.BookingRequest{PatientID: uuid.New()}
	standard, _ := svc.Submit(ctx, req, entities.JobPriorityStandard, 3)
	emergency, _ := svc.Submit(ctx, req, entities.JobPriorityEmergency, 3)

	first, _, _ := svc.Dequeue(ctx)
	if first.JobID != emergency.JobID {
		t.Fatalf("expected emergency job to dequeue first, got %s", first.JobID)
	}
	second, _, _ := svc.Dequeue(ctx)
	if second.JobID != standard.JobID {
		t.Fatalf("expected standard job to dequeue second, got %s", second.JobID)
	}
}

func TestDequeueEmpty(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	_, ok, err := svc.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected no job on an empty queue")
	}
}

func TestRequeueReappears(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	req := entities.BookingRequest{PatientID: uuid.New()}
	job, _ := svc.Submit(ctx, req, entities.JobPriorityStandard, 3)
	dequeued, _, _ := svc.Dequeue(ctx)
	if dequeued.JobID != job.JobID {
		t.Fatalf("unexpected dequeue result")
	}

	dequeued.Status = entities.BookingJobStatusQueued
	if err := svc.Requeue(ctx, dequeued); err != nil {
		t.Fatalf("unexpected error requeuing: %v", err)
	}

	again, ok, err := svc.Dequeue(ctx)
	if err != nil || !ok {
		t.Fatalf("expected requeued job to be dequeued again, ok=%v err=%v", ok, err)
	}
	if again.JobID != job.JobID {
		t.Fatalf("expected requeued job id to match, got %s", again.JobID)
	}
}

func TestRecordOutcome(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	if err := svc.RecordOutcome(context.Background(), "completed", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelRemovesPendingJobAndMarksCancelled(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	job, _ := svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	if err := svc.Cancel(ctx, job.JobID.String()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := svc.Load(ctx, job.JobID.String())
	if err != nil {
		t.Fatalf("unexpected error reloading job: %v", err)
	}
	if reloaded.Status != entities.BookingJobStatusCancelled {
		t.Fatalf("expected Cancelled, got %s", reloaded.Status)
	}

	// The cancelled job must no longer be in the pending index.
	if _, ok, err := svc.Dequeue(ctx); err != nil || ok {
		t.Fatalf("expected the cancelled job to have left the pending index, ok=%v err=%v", ok, err)
	}
}

func TestCancelRejectsTerminalJob(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	job, _ := svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	if err := svc.Cancel(ctx, job.JobID.String()); err != nil {
		t.Fatalf("unexpected error on first cancel: %v", err)
	}
	if err := svc.Cancel(ctx, job.JobID.String()); err == nil {
		t.Fatal("expected an error cancelling an already-terminal job")
	}
}

func TestStatsReportsPendingDepthAndCounters(t *testing.T) {
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: time.Now()})
	ctx := context.Background()

	svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	if err := svc.RecordOutcome(ctx, "completed", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Pending != 2 {
		t.Fatalf("expected 2 pending jobs, got %d", stats.Pending)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected 1 completed, got %d", stats.Completed)
	}
}

func TestGCExpiredRemovesOnlyOldTerminalJobs(t *testing.T) {
	now := time.Now()
	svc := NewService(queuebackend.NewInProcessBackend(), fakeClock{now: now})
	ctx := context.Background()

	stale, _ := svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	fresh, _ := svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)
	stillQueued, _ := svc.Submit(ctx, entities.BookingRequest{PatientID: uuid.New()}, entities.JobPriorityStandard, 3)

	staleCompletedAt := now.Add(-48 * time.Hour)
	stale.Status = entities.BookingJobStatusCompleted
	stale.CompletedAt = &staleCompletedAt
	if err := svc.Save(ctx, stale); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	freshCompletedAt := now.Add(-time.Minute)
	fresh.Status = entities.BookingJobStatusCompleted
	fresh.CompletedAt = &freshCompletedAt
	if err := svc.Save(ctx, fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed, err := svc.GCExpired(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected exactly 1 job removed, got %d", removed)
	}

	if _, err := svc.Load(ctx, stale.JobID.String()); err == nil {
		t.Fatal("expected the stale completed job to have been deleted")
	}
	if _, err := svc.Load(ctx, fresh.JobID.String()); err != nil {
		t.Fatalf("expected the recently completed job to survive gc: %v", err)
	}
	if _, err := svc.Load(ctx, stillQueued.JobID.String()); err != nil {
		t.Fatalf("expected the still-queued job to survive gc: %v", err)
	}
}
