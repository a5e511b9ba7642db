package queuebackend

import "sync/atomic"

// sequencer hands out a monotonically increasing counter so equal-priority
// jobs break ties in enqueue order, both in the Redis sorted-set score and
// the in-process fallback's slice append order.
type sequencer struct {
	counter int64
}

func newSequencer() *sequencer {
	return &sequencer{}
}

func (s *sequencer) next() int64 {
	return atomic.AddInt64(&s.counter, 1)
}
