package ports

import "context"

// QueueBackend is the persistence surface for the job queue (G), shaped
// around the Redis keyspace in spec.md §6: booking_job:{id},
// booking_jobs:pending, booking_stats:{date}:{completed|failed}.
// Implementations: internal/infra/queuebackend (Redis-backed and an
// in-process fallback satisfying the same contract).
type QueueBackend interface {
	SaveJob(ctx context.Context, jobID string, payload []byte) error
	Enqueue(ctx context.Context, jobID string, priorityRank int) error
	// Dequeue pops the highest-priority, oldest-enqueued job ID, or ("",
	// false, nil) if the queue is empty.
	Dequeue(ctx context.Context) (jobID string, ok bool, err error)
	LoadJob(ctx context.Context, jobID string) ([]byte, error)
	IncrementStat(ctx context.Context, date, outcome string) error
	// RemoveFromPending removes jobID from the pending index if present,
	// reporting whether it was found there. A job already popped off the
	// pending index (dequeued for processing) reports false, not an error.
	RemoveFromPending(ctx context.Context, jobID string) (bool, error)
	// PendingCount reports the current size of the pending index.
	PendingCount(ctx context.Context) (int, error)
	// Stat reads back one day's counter for outcome ("completed" or
	// "failed"), 0 if never incremented.
	Stat(ctx context.Context, date, outcome string) (int, error)
	// ListJobIDs returns every job id with a stored payload, for the
	// gc_expired retention sweep.
	ListJobIDs(ctx context.Context) ([]string, error)
	// DeleteJob removes a job's stored payload entirely.
	DeleteJob(ctx context.Context, jobID string) error
}
