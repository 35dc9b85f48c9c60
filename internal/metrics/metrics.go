// Package metrics exposes Prometheus collectors for the resolution core and
// the session broker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Grid fetch metrics
	GridFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_grid_fetches_total",
			Help: "Grid fetches against schedule providers",
		},
		[]string{"provider", "result"},
	)

	GridFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attendance_grid_fetch_duration_seconds",
			Help:    "Provider fetch duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	// Cache metrics
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_cache_requests_total",
			Help: "Grid cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	CacheFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_cache_fallbacks_total",
			Help: "Fallback servings after a primary source failure",
		},
		[]string{"kind"},
	)

	// Resolver metrics
	SlotResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_slot_resolutions_total",
			Help: "Current-slot resolutions by result",
		},
		[]string{"result"},
	)

	// Session broker metrics
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_session_events_total",
			Help: "Session lifecycle events broadcast to subscribers",
		},
		[]string{"type"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "attendance_active_sessions",
			Help: "Currently open attendance sessions",
		},
	)

	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "attendance_subscribers",
			Help: "Connected session-event subscribers",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		},
	)

	// Attendance gateway metrics
	AttendanceCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_commits_total",
			Help: "Attendance record commits by status",
		},
		[]string{"status"},
	)

	VerificationCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_verification_calls_total",
			Help: "Face verification service calls by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		GridFetches,
		GridFetchDuration,
		CacheRequests,
		CacheFallbacks,
		SlotResolutions,
		SessionEvents,
		ActiveSessions,
		Subscribers,
		EventsDropped,
		AttendanceCommits,
		VerificationCalls,
	)
}
