// Package worker implements the booking worker pool (§4.H): a fixed set
// of goroutines each pulling jobs from the queue service and driving them
// through the pipeline DoctorMatching -> AvailabilityCheck -> SlotSelection
// -> AppointmentCreation -> AlternativeGeneration -> Completed, publishing
// a progress event at every transition. Grounded on the teacher's
// goroutine-plus-signal-channel shutdown idiom in cmd/api/main.go,
// generalized from "one HTTP server" to "N poller goroutines", and on
// original_source's consistency.rs for the pipeline's step ordering.
package worker

import (
	"context"
	"sync"
	"time"

	"telemed-booking-core/internal/app/queue"
	"telemed-booking-core/internal/domain/entities"
	"telemed-booking-core/internal/domain/ports"
	"telemed-booking-core/internal/domain/services/lifecycle"
	"telemed-booking-core/internal/domain/services/matching"
	"telemed-booking-core/internal/infra/logger"
	"telemed-booking-core/internal/infra/metrics"
	apperrors "telemed-booking-core/pkg/errors"
)

// Config tunes the pool, mirroring config.WorkerPoolConfig.
type Config struct {
	MaxConcurrentJobs   int
	JobTimeout          time.Duration
	RetryDelay          time.Duration
	PollInterval        time.Duration
	GracefulShutdown    time.Duration
}

// Pool runs MaxConcurrentJobs goroutines pulling from the queue until
// Stop is called.
type Pool struct {
	queue     *queue.Service
	matching  *matching.Engine
	booker    ports.Booker
	lifecycle *lifecycle.Rules
	hub       ports.ProgressHub
	clock     ports.Clock
	cfg       Config
	loc       *time.Location
	log       *logger.Logger
	metrics   *metrics.Registry

	stopping chan struct{}
	wg       sync.WaitGroup
}

func NewPool(q *queue.Service, matchingEngine *matching.Engine, booker ports.Booker, rules *lifecycle.Rules, hub ports.ProgressHub, clock ports.Clock, loc *time.Location, cfg Config, log *logger.Logger, reg *metrics.Registry) *Pool {
	return &Pool{
		queue:     q,
		matching:  matchingEngine,
		booker:    booker,
		lifecycle: rules,
		hub:       hub,
		clock:     clock,
		cfg:       cfg,
		loc:       loc,
		log:       log,
		metrics:   reg,
		stopping:  make(chan struct{}),
	}
}

// Start launches the pool's goroutines. It returns immediately.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.MaxConcurrentJobs; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
}

// Stop signals every worker to finish its current job and exit, waiting
// up to cfg.GracefulShutdown before returning regardless.
func (p *Pool) Stop() {
	close(p.stopping)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.cfg.GracefulShutdown):
		p.log.Warn("worker pool: graceful shutdown window elapsed, returning regardless")
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	workerID := "worker-" + time.Now().Format("150405") + "-" + string(rune('a'+id))

	for {
		select {
		case <-p.stopping:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.JobTimeout)
		job, ok, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.log.WithFields(map[string]interface{}{"worker_id": workerID}).Warn("dequeue failed")
			cancel()
			time.Sleep(p.cfg.PollInterval)
			continue
		}
		if !ok {
			cancel()
			time.Sleep(p.cfg.PollInterval)
			continue
		}

		p.process(ctx, job, workerID)
		cancel()
	}
}

// process drives one job through the pipeline. Every step persists the
// job's new status before publishing progress, so the stored status shows
// the last step reached; a retried job starts over from Processing.
func (p *Pool) process(ctx context.Context, job *entities.BookingJob, workerID string) {
	start := p.clock.Now()
	job.WorkerID = &workerID

	outcome := "completed"
	defer func() {
		if p.metrics != nil {
			p.metrics.RecordJobDuration(outcome, p.clock.Now().Sub(start).Seconds())
		}
	}()

	if !p.transition(ctx, job, entities.BookingJobStatusProcessing) {
		outcome = "failed"
		return
	}
	if !p.transition(ctx, job, entities.BookingJobStatusDoctorMatching) {
		outcome = "failed"
		return
	}

	matches, err := p.matching.FindMatches(ctx, job.Request, p.loc, 10)
	if err != nil {
		p.fail(ctx, job, err)
		outcome = p.finalOutcome(job)
		return
	}

	if !p.transition(ctx, job, entities.BookingJobStatusAvailabilityCheck) {
		outcome = "failed"
		return
	}
	if !p.transition(ctx, job, entities.BookingJobStatusSlotSelection) {
		outcome = "failed"
		return
	}

	best, ok := selectBestSlot(matches, job.Request)
	if !ok {
		p.fail(ctx, job, apperrors.ErrSlotNotAvailable)
		outcome = p.finalOutcome(job)
		return
	}

	if p.lifecycle != nil {
		if err := p.lifecycle.ValidateBooking(best.slot.Start, best.slot.End); err != nil {
			p.fail(ctx, job, err)
			outcome = p.finalOutcome(job)
			return
		}
	}

	if !p.transition(ctx, job, entities.BookingJobStatusAppointmentCreation) {
		outcome = "failed"
		return
	}

	appt, err := p.booker.BookSlot(ctx, job.Request, best.slot, best.doctorID)
	if err != nil {
		p.fail(ctx, job, err)
		outcome = p.finalOutcome(job)
		return
	}

	if !p.transition(ctx, job, entities.BookingJobStatusAlternativeGeneration) {
		outcome = "failed"
		return
	}

	now := p.clock.Now()
	job.Status = entities.BookingJobStatusCompleted
	job.CompletedAt = &now
	job.UpdatedAt = now
	_ = p.queue.Save(ctx, job)
	p.publish(job, "Booking completed: appointment "+appt.ID.String())
	_ = p.queue.RecordOutcome(ctx, "completed", now)
}

type bestSlot struct {
	slot     entities.AvailableSlot
	doctorID string
}

// priorityBonus is step 3's per-priority scoring term (§4.H's pipeline
// step 3 slot-scoring formula).
func priorityBonus(p entities.SlotPriority) float64 {
	switch p {
	case entities.SlotPriorityEmergency:
		return 0.3
	case entities.SlotPriorityPreferred:
		return 0.2
	case entities.SlotPriorityAvailable:
		return 0.1
	case entities.SlotPriorityLimited:
		return 0.05
	case entities.SlotPriorityWaitList:
		return -0.1
	default:
		return 0
	}
}

// scoreSlot implements the pipeline's step 3 formula: 0 base, +0.4 if the
// slot falls strictly inside the requested preferred window, +priority
// bonus, +0.1 for the 09:00-11:00 window when priority isn't Emergency.
func scoreSlot(slot entities.AvailableSlot, req entities.BookingRequest) float64 {
	score := 0.0
	if req.PreferredTimeStart != nil && req.PreferredTimeEnd != nil {
		minutes := slot.Start.Hour()*60 + slot.Start.Minute()
		if minutes > req.PreferredTimeStart.MinutesSinceMidnight() && minutes < req.PreferredTimeEnd.MinutesSinceMidnight() {
			score += 0.4
		}
	}
	score += priorityBonus(slot.Priority)
	if slot.Priority != entities.SlotPriorityEmergency && slot.Start.Hour() >= 9 && slot.Start.Hour() < 11 {
		score += 0.1
	}
	return score
}

// selectBestSlot scores every candidate slot across every matched doctor
// and returns the highest scorer, breaking ties by earliest start time.
func selectBestSlot(matches []matching.Match, req entities.BookingRequest) (bestSlot, bool) {
	var best bestSlot
	var bestScore float64
	found := false

	for _, m := range matches {
		for _, slot := range m.Slots {
			score := scoreSlot(slot, req)
			if !found || score > bestScore ||
				(score == bestScore && slot.Start.Before(best.slot.Start)) {
				found = true
				bestScore = score
				best = bestSlot{slot: slot, doctorID: m.Doctor.ID.String()}
			}
		}
	}
	return best, found
}

// transition moves job to next, persisting and publishing. It returns
// false without touching the stored job if that job has been Cancelled in
// the meantime, false and marks the job Failed if the DAG forbids the
// move, and false if the persist fails.
func (p *Pool) transition(ctx context.Context, job *entities.BookingJob, next entities.BookingJobStatus) bool {
	if stored, err := p.queue.Load(ctx, job.JobID.String()); err == nil && stored.Status == entities.BookingJobStatusCancelled {
		job.Status = stored.Status
		job.CompletedAt = stored.CompletedAt
		p.log.WithFields(map[string]interface{}{"job_id": job.JobID.String()}).Warn("job was cancelled, abandoning it")
		return false
	}
	if !job.CanTransitionTo(next) {
		p.fail(ctx, job, apperrors.NewValidationError("status", "illegal job transition"))
		return false
	}
	job.Status = next
	job.UpdatedAt = p.clock.Now()
	if err := p.queue.Save(ctx, job); err != nil {
		p.log.WithFields(map[string]interface{}{"job_id": job.JobID.String()}).Warn("failed to persist job transition")
		return false
	}
	p.publish(job, "transitioned to "+string(next))
	return true
}

// fail marks job Failed, or Retrying + re-enqueues if retry_count allows
// per job.CanRetry, matching the propagation policy for retryable errors.
func (p *Pool) fail(ctx context.Context, job *entities.BookingJob, cause error) {
	msg := cause.Error()
	job.ErrorMessage = &msg
	job.UpdatedAt = p.clock.Now()

	if apperrors.IsRetryable(cause) && job.RetryCount < job.MaxRetries {
		job.Status = entities.BookingJobStatusFailed
		_ = p.queue.Save(ctx, job)
		job.Status = entities.BookingJobStatusRetrying
		job.RetryCount++
		_ = p.queue.Save(ctx, job)
		p.publish(job, "retrying after error: "+msg)

		time.AfterFunc(p.cfg.RetryDelay, func() {
			job.Status = entities.BookingJobStatusQueued
			job.UpdatedAt = p.clock.Now()
			_ = p.queue.Requeue(context.Background(), job)
		})
		return
	}

	now := p.clock.Now()
	job.Status = entities.BookingJobStatusFailed
	job.CompletedAt = &now
	_ = p.queue.Save(ctx, job)
	p.publish(job, "failed: "+msg)
	_ = p.queue.RecordOutcome(ctx, "failed", now)
}

func (p *Pool) finalOutcome(job *entities.BookingJob) string {
	if job.Status == entities.BookingJobStatusRetrying {
		return "retrying"
	}
	return "failed"
}

// progressPercentage mirrors §8 Scenario 1's pipeline progression
// (0, 10, 25, 40, 60, 80, 90, 100), one value per named pipeline stage.
var progressPercentage = map[entities.BookingJobStatus]int{
	entities.BookingJobStatusQueued:              0,
	entities.BookingJobStatusProcessing:          10,
	entities.BookingJobStatusDoctorMatching:      25,
	entities.BookingJobStatusAvailabilityCheck:   40,
	entities.BookingJobStatusSlotSelection:       60,
	entities.BookingJobStatusAppointmentCreation: 80,
	entities.BookingJobStatusAlternativeGeneration: 90,
	entities.BookingJobStatusCompleted:           100,
	entities.BookingJobStatusFailed:              100,
	entities.BookingJobStatusCancelled:           100,
	entities.BookingJobStatusRetrying:            10,
}

func (p *Pool) publish(job *entities.BookingJob, message string) {
	pct := progressPercentage[job.Status]
	remaining := p.cfg.JobTimeout.Seconds() * float64(100-pct) / 100
	p.hub.Publish(ports.ProgressEvent{
		JobID:                     job.JobID.String(),
		Status:                    string(job.Status),
		Message:                   message,
		Timestamp:                 p.clock.Now().Unix(),
		ProgressPercentage:        pct,
		CurrentStep:               string(job.Status),
		EstimatedRemainingSeconds: int(remaining),
	})
}
