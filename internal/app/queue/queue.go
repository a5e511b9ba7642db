// Package queue implements the booking job queue (§4.G): durable job
// storage plus a priority-stable pending index, backed by
// ports.QueueBackend (go-redis sorted set or the in-process fallback).
// Grounded on spec.md §6's literal keyspace and §5's stable-sort priority
// rule {Emergency=0, Urgent=1, Standard=2, Flexible=3}.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	apperrors "telemed-booking-core/pkg/errors"
)

// Service is the typed facade over ports.QueueBackend used by the ops
// surface (to enqueue) and the worker pool (to dequeue/persist).
type Service struct {
	backend ports.QueueBackend
	clock   ports.Clock
}

func NewService(backend ports.QueueBackend, clock ports.Clock) *Service {
	return &Service{backend: backend, clock: clock}
}

// Submit persists a new job Queued and enqueues it under its priority
// rank, preserving FIFO order within equal priority via the backend's
// monotonic sequence.
func (s *Service) Submit(ctx context.Context, req entities.BookingRequest, priority entities.JobPriority, maxRetries int) (*entities.BookingJob, error) {
	now := s.clock.Now()
	job := &entities.BookingJob{
		JobID:      uuid.New(),
		PatientID:  req.PatientID,
		Request:    req,
		Status:     entities.BookingJobStatusQueued,
		Priority:   priority,
		MaxRetries: maxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.persist(ctx, job); err != nil {
		return nil, err
	}
	if err := s.backend.Enqueue(ctx, job.JobID.String(), priority.PriorityRank()); err != nil {
		return nil, apperrors.NewExternalServiceError("enqueue booking job", err)
	}
	return job, nil
}

// Dequeue pops the next job id in priority/FIFO order and loads its
// current state. Returns ok=false when the queue is empty.
func (s *Service) Dequeue(ctx context.Context) (*entities.BookingJob, bool, error) {
	jobID, ok, err := s.backend.Dequeue(ctx)
	if err != nil {
		return nil, false, apperrors.NewExternalServiceError("dequeue booking job", err)
	}
	if !ok {
		return nil, false, nil
	}
	job, err := s.Load(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// Requeue re-adds an already-persisted job to the pending index under its
// priority rank, used by the worker pool's retry path (Retrying -> Queued).
func (s *Service) Requeue(ctx context.Context, job *entities.BookingJob) error {
	if err := s.persist(ctx, job); err != nil {
		return err
	}
	if err := s.backend.Enqueue(ctx, job.JobID.String(), job.Priority.PriorityRank()); err != nil {
		return apperrors.NewExternalServiceError("requeue booking job", err)
	}
	return nil
}

// Load fetches a job's current persisted state by id.
func (s *Service) Load(ctx context.Context, jobID string) (*entities.BookingJob, error) {
	raw, err := s.backend.LoadJob(ctx, jobID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("load booking job", err)
	}
	var job entities.BookingJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, apperrors.NewDecodeError("decode booking job", err)
	}
	return &job, nil
}

// Save overwrites a job's persisted state, used by the worker pool after
// every pipeline transition so a crash between steps loses at most one
// step's progress.
func (s *Service) Save(ctx context.Context, job *entities.BookingJob) error {
	return s.persist(ctx, job)
}

// RecordOutcome increments the daily completed/failed counter for
// observability, matching booking_stats:{date}:{completed|failed}.
func (s *Service) RecordOutcome(ctx context.Context, outcome string, at time.Time) error {
	return s.backend.IncrementStat(ctx, at.Format("2006-01-02"), outcome)
}

// QueueStats is a point-in-time snapshot of the pending index depth plus
// the day's completed/failed counters (§4.G stats operation).
type QueueStats struct {
	Date      string
	Pending   int
	Completed int
	Failed    int
}

// Cancel marks a non-terminal job Cancelled and removes it from the
// pending index if it is still sitting there (§4.G cancel operation, §8
// Scenario 6). A job already being processed is still marked Cancelled;
// the worker pool reads the stored status before each step transition from
// Processing through AlternativeGeneration and abandons a job it finds
// Cancelled. A job already
// Completed/Failed/Cancelled cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, jobID string) error {
	job, err := s.Load(ctx, jobID)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return apperrors.NewValidationError("status", "job is already in a terminal state")
	}
	if _, err := s.backend.RemoveFromPending(ctx, jobID); err != nil {
		return apperrors.NewExternalServiceError("remove booking job from pending index", err)
	}
	now := s.clock.Now()
	job.Status = entities.BookingJobStatusCancelled
	job.UpdatedAt = now
	job.CompletedAt = &now
	return s.persist(ctx, job)
}

// Stats returns today's pending depth and completed/failed counters.
func (s *Service) Stats(ctx context.Context) (QueueStats, error) {
	date := s.clock.Now().Format("2006-01-02")

	pending, err := s.backend.PendingCount(ctx)
	if err != nil {
		return QueueStats{}, apperrors.NewExternalServiceError("read pending queue depth", err)
	}
	completed, err := s.backend.Stat(ctx, date, "completed")
	if err != nil {
		return QueueStats{}, apperrors.NewExternalServiceError("read completed stat", err)
	}
	failed, err := s.backend.Stat(ctx, date, "failed")
	if err != nil {
		return QueueStats{}, apperrors.NewExternalServiceError("read failed stat", err)
	}
	return QueueStats{Date: date, Pending: pending, Completed: completed, Failed: failed}, nil
}

// GCExpired deletes every terminal job whose completed_at predates
// retentionCutoff, returning the number removed (spec.md §4.G gc_expired:
// "remove jobs whose terminal completed_at is older than retention
// window"). Run periodically by the scheduler's health task (§4.H) so the
// job store doesn't grow without bound.
func (s *Service) GCExpired(ctx context.Context, retentionCutoff time.Time) (int, error) {
	ids, err := s.backend.ListJobIDs(ctx)
	if err != nil {
		return 0, apperrors.NewExternalServiceError("list booking jobs", err)
	}

	removed := 0
	for _, jobID := range ids {
		job, err := s.Load(ctx, jobID)
		if err != nil || !job.IsTerminal() || job.CompletedAt == nil || job.CompletedAt.After(retentionCutoff) {
			continue
		}
		if err := s.backend.DeleteJob(ctx, jobID); err != nil {
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *Service) persist(ctx context.Context, job *entities.BookingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return apperrors.NewDecodeError("encode booking job", err)
	}
	if err := s.backend.SaveJob(ctx, job.JobID.String(), payload); err != nil {
		return apperrors.NewExternalServiceError("save booking job", err)
	}
	return nil
}
