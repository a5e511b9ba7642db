// Package metrics registers the prometheus collectors backing §4.K's
// "metrics" responsibility, the worker pool's job-duration instrumentation
// and the video coordinator's lifecycle-event counter, scraped by the ops
// surface's /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry owns every collector the booking core exposes. A single
// instance is constructed at startup and threaded through the services
// and worker pool that report against it.
type Registry struct {
	AppointmentsTransitioned *prometheus.CounterVec
	BookingJobDuration       *prometheus.HistogramVec
	ActiveSchedulingLocks    prometheus.Gauge
	VideoLifecycleEvents     *prometheus.CounterVec
}

// NewRegistry constructs and registers all collectors against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		AppointmentsTransitioned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointments_transitioned_total",
			Help: "Count of appointment status transitions attempted, labeled by outcome.",
		}, []string{"from", "to", "allowed"}),
		BookingJobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booking_job_duration_seconds",
			Help:    "Wall-clock duration of one worker run of a booking job, labeled by how the run ended.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		ActiveSchedulingLocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_scheduling_locks",
			Help: "Current count of unexpired scheduling locks held by this process.",
		}),
		VideoLifecycleEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "video_lifecycle_events_total",
			Help: "Count of video session lifecycle actions, labeled by action and success.",
		}, []string{"action", "success"}),
	}

	reg.MustRegister(m.AppointmentsTransitioned, m.BookingJobDuration, m.ActiveSchedulingLocks, m.VideoLifecycleEvents)
	return m
}

// RecordTransition increments the transition counter for a validated or
// rejected status change.
func (m *Registry) RecordTransition(from, to string, allowed bool) {
	label := "false"
	if allowed {
		label = "true"
	}
	m.AppointmentsTransitioned.WithLabelValues(from, to, label).Inc()
}

// RecordJobDuration observes one worker run's wall-clock duration under
// the outcome label the worker pool passes ("completed", "failed" or
// "retrying").
func (m *Registry) RecordJobDuration(outcome string, seconds float64) {
	m.BookingJobDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordVideoEvent increments the video lifecycle event counter for a
// coordinator action.
func (m *Registry) RecordVideoEvent(action string, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	m.VideoLifecycleEvents.WithLabelValues(action, label).Inc()
}

// SetActiveLocks reports the current unexpired-lock gauge value. Nothing
// in this module calls it, so the gauge stays at zero.
func (m *Registry) SetActiveLocks(n float64) {
	m.ActiveSchedulingLocks.Set(n)
}
