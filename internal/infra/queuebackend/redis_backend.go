// Package queuebackend implements ports.QueueBackend against the Redis
// keyspace spec.md §6 specifies literally: booking_job:{id} for job
// payloads, booking_jobs:pending as the priority queue, and
// booking_stats:{date}:{completed|failed} as daily counters. An
// in-process fallback satisfies the same contract when no Redis URL is
// configured, so the job queue (G) never has a hard dependency.
package queuebackend

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

const pendingKey = "booking_jobs:pending"

// RedisBackend is the production QueueBackend. Priority ordering is
// implemented with a sorted set scored by (priorityRank, enqueue
// sequence) so Dequeue pops the lowest score — lower priority rank wins
// ties by earlier enqueue order, matching the FIFO-within-priority rule
// in §5.
type RedisBackend struct {
	client *redis.Client
	seq    *sequencer
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, seq: newSequencer()}
}

func (b *RedisBackend) SaveJob(ctx context.Context, jobID string, payload []byte) error {
	return b.client.Set(ctx, "booking_job:"+jobID, payload, 0).Err()
}

func (b *RedisBackend) Enqueue(ctx context.Context, jobID string, priorityRank int) error {
	score := float64(priorityRank)*1e15 + float64(b.seq.next())
	return b.client.ZAdd(ctx, pendingKey, redis.Z{Score: score, Member: jobID}).Err()
}

func (b *RedisBackend) Dequeue(ctx context.Context) (string, bool, error) {
	results, err := b.client.ZPopMin(ctx, pendingKey, 1).Result()
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}
	jobID, _ := results[0].Member.(string)
	return jobID, true, nil
}

func (b *RedisBackend) LoadJob(ctx context.Context, jobID string) ([]byte, error) {
	return b.client.Get(ctx, "booking_job:"+jobID).Bytes()
}

func (b *RedisBackend) IncrementStat(ctx context.Context, date, outcome string) error {
	return b.client.Incr(ctx, "booking_stats:"+date+":"+outcome).Err()
}

func (b *RedisBackend) RemoveFromPending(ctx context.Context, jobID string) (bool, error) {
	removed, err := b.client.ZRem(ctx, pendingKey, jobID).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (b *RedisBackend) PendingCount(ctx context.Context) (int, error) {
	count, err := b.client.ZCard(ctx, pendingKey).Result()
	return int(count), err
}

func (b *RedisBackend) Stat(ctx context.Context, date, outcome string) (int, error) {
	val, err := b.client.Get(ctx, "booking_stats:"+date+":"+outcome).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// ListJobIDs scans the booking_job:* keyspace rather than tracking job ids
// separately, so the gc_expired sweep stays correct even across restarts.
func (b *RedisBackend) ListJobIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := b.client.Scan(ctx, 0, "booking_job:*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), "booking_job:"))
	}
	return ids, iter.Err()
}

func (b *RedisBackend) DeleteJob(ctx context.Context, jobID string) error {
	return b.client.Del(ctx, "booking_job:"+jobID).Err()
}
