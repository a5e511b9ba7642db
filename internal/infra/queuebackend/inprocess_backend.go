package queuebackend

import (
	"context"
	"sort"
	"sync"

	apperrors "telemed-booking-core/pkg/errors"
)

type pendingEntry struct {
	jobID        string
	priorityRank int
	sequence     int64
}

// InProcessBackend satisfies ports.QueueBackend with a mutex-guarded map
// and slice, for unit tests and no-queue-backend deployments. Ordering
// matches RedisBackend's: priority rank ascending, then enqueue sequence.
type InProcessBackend struct {
	mu      sync.Mutex
	jobs    map[string][]byte
	pending []pendingEntry
	stats   map[string]int
	seq     *sequencer
}

func NewInProcessBackend() *InProcessBackend {
	return &InProcessBackend{
		jobs:  make(map[string][]byte),
		stats: make(map[string]int),
		seq:   newSequencer(),
	}
}

func (b *InProcessBackend) SaveJob(ctx context.Context, jobID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jobs[jobID] = payload
	return nil
}

func (b *InProcessBackend) Enqueue(ctx context.Context, jobID string, priorityRank int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, pendingEntry{jobID: jobID, priorityRank: priorityRank, sequence: b.seq.next()})
	sort.SliceStable(b.pending, func(i, j int) bool {
		if b.pending[i].priorityRank != b.pending[j].priorityRank {
			return b.pending[i].priorityRank < b.pending[j].priorityRank
		}
		return b.pending[i].sequence < b.pending[j].sequence
	})
	return nil
}

func (b *InProcessBackend) Dequeue(ctx context.Context) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return "", false, nil
	}
	next := b.pending[0]
	b.pending = b.pending[1:]
	return next.jobID, true, nil
}

func (b *InProcessBackend) LoadJob(ctx context.Context, jobID string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	payload, ok := b.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFound("booking_job", jobID)
	}
	return payload, nil
}

func (b *InProcessBackend) IncrementStat(ctx context.Context, date, outcome string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats[date+":"+outcome]++
	return nil
}

func (b *InProcessBackend) RemoveFromPending(ctx context.Context, jobID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.pending {
		if e.jobID == jobID {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (b *InProcessBackend) PendingCount(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending), nil
}

func (b *InProcessBackend) Stat(ctx context.Context, date, outcome string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats[date+":"+outcome], nil
}

func (b *InProcessBackend) ListJobIDs(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.jobs))
	for id := range b.jobs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *InProcessBackend) DeleteJob(ctx context.Context, jobID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.jobs, jobID)
	return nil
}
