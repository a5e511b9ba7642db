// Package scheduler drives the booking core's periodic maintenance tasks
// with robfig/cron: the video coordinator's activate/expire sweep (§4.J),
// the lock manager's expired-lock cleanup (§4.B), and the job queue's
// health/gc_expired sweep (§4.G/§4.H), replacing the ad-hoc interval
// goroutines the Rust source started by hand with cron expressions,
// matching how the rest of the pack schedules recurring work.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"telemed-booking-core/internal/app/queue"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/services/video"
	"telemed-booking-core/internal/infra/logger"
)

// jobRetentionWindow is how long a terminal job's record survives before
// gc_expired reclaims it (spec.md §4.G: "remove jobs whose terminal
// completed_at is older than retention window").
const jobRetentionWindow = 24 * time.Hour

// Scheduler owns one cron.Cron instance running the booking core's
// background sweeps.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

// New builds a Scheduler with the video coordinator's sweep registered
// every 5 minutes, the lock manager's expiry cleanup every minute, and the
// job queue's health/gc_expired sweep on healthCheckIntervalSeconds.
func New(coordinator *video.Coordinator, locks ports.LockManager, queueSvc *queue.Service, healthCheckIntervalSeconds int, log *logger.Logger) (*Scheduler, error) {
	c := cron.New()

	if _, err := c.AddFunc("*/5 * * * *", func() {
		coordinator.Sweep(context.Background())
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc("* * * * *", func() {
		n, err := locks.CleanupExpired(context.Background())
		if err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("lock cleanup sweep failed")
			return
		}
		if n > 0 {
			log.WithFields(map[string]interface{}{"reclaimed": n}).Info("reclaimed expired scheduling locks")
		}
	}); err != nil {
		return nil, err
	}

	if healthCheckIntervalSeconds <= 0 {
		healthCheckIntervalSeconds = 60
	}
	healthSpec := fmt.Sprintf("@every %ds", healthCheckIntervalSeconds)
	if _, err := c.AddFunc(healthSpec, func() {
		ctx := context.Background()
		stats, err := queueSvc.Stats(ctx)
		if err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("queue health check failed")
		} else {
			log.WithFields(map[string]interface{}{
				"pending":   stats.Pending,
				"completed": stats.Completed,
				"failed":    stats.Failed,
			}).Info("queue health check")
		}

		removed, err := queueSvc.GCExpired(ctx, time.Now().Add(-jobRetentionWindow))
		if err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("gc_expired sweep failed")
			return
		}
		if removed > 0 {
			log.WithFields(map[string]interface{}{"removed": removed}).Info("reclaimed expired booking jobs")
		}
	}); err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, log: log}, nil
}

// Start launches the cron scheduler's own goroutine. Non-blocking.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop blocks until any in-flight job finishes, then returns.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
