package video

import (
	"context"
	"time"
)

// sweepLeadWindow is how far ahead of a Confirmed appointment's start
// time the sweep begins auto-activating its video session.
const sweepLeadWindow = 10 * time.Minute

// sweepTimeout marks a Created/Ready session Failed once its scheduled
// start is this far in the past, matching cleanup_expired_sessions.
const sweepTimeout = 30 * time.Minute

// Sweep runs the periodic tasks from §4.J's "every 5 minutes" background
// job: auto-activate sessions nearing their start and fail sessions that
// timed out before ever going Active. It never returns an error — task
// failures are logged and skipped so one bad appointment never blocks the
// rest of the sweep.
func (c *Coordinator) Sweep(ctx context.Context) {
	now := c.clock.Now()

	c.autoActivateReady(ctx, now.Add(sweepLeadWindow))
	c.failExpiredSessions(ctx, now.Add(-sweepTimeout))
	c.orphanSweep(ctx)
}

// orphanSweep mirrors cleanup_orphaned_sessions in the original
// implementation, which itself never went past a comment noting that a
// real orphan query needs a join the row store doesn't expose cheaply.
// Left as a documented no-op rather than invented logic.
func (c *Coordinator) orphanSweep(ctx context.Context) {}

func (c *Coordinator) autoActivateReady(ctx context.Context, threshold time.Time) {
	appts, err := c.appointments.FindConfirmedStartingBefore(ctx, threshold)
	if err != nil {
		c.log.Warn("video sweep: failed to list confirmed appointments nearing start")
		return
	}
	for _, appt := range appts {
		if err := c.activate(ctx, appt); err != nil {
			c.log.WithFields(map[string]interface{}{"appointment_id": appt.ID.String()}).Warn("video sweep: auto-activate failed")
		}
	}
}

func (c *Coordinator) failExpiredSessions(ctx context.Context, threshold time.Time) {
	stale, err := c.videos.ListStale(ctx, threshold)
	if err != nil {
		c.log.Warn("video sweep: failed to list stale sessions")
		return
	}
	for _, session := range stale {
		session.Status = "Failed"
		session.UpdatedAt = c.clock.Now()
		if _, err := c.videos.Update(ctx, session); err != nil {
			c.log.WithFields(map[string]interface{}{"video_session_id": session.ID.String()}).Warn("video sweep: failed to mark session as timed out")
			continue
		}
		if c.metrics != nil {
			c.metrics.RecordVideoEvent("Timeout", true)
		}
	}
}
