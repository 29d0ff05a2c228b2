// Package metrics provides Prometheus metrics for the consultation backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsCreated counts consultation requests by kind.
	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_requests_created_total",
			Help: "Total number of consultation requests created",
		},
		[]string{"kind"},
	)

	// RequestsDecided counts accept/reject decisions.
	RequestsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_requests_decided_total",
			Help: "Total number of consultation requests accepted or rejected",
		},
		[]string{"decision"},
	)

	// JoinAttempts counts join calls by outcome code.
	JoinAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_join_attempts_total",
			Help: "Total number of meeting join attempts",
		},
		[]string{"role", "outcome"},
	)

	// MeetingTransitions tracks meeting status changes.
	MeetingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_meeting_transitions_total",
			Help: "Total number of meeting status transitions",
		},
		[]string{"from_status", "to_status"},
	)

	// MeetingDuration observes the length of completed meetings.
	MeetingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "openconsult_meeting_duration_seconds",
			Help:    "Duration of completed meetings",
			Buckets: []float64{60, 300, 600, 900, 1800, 2700, 3600, 5400},
		},
	)

	// ExpiredMeetings counts meetings cancelled by the sweeper.
	ExpiredMeetings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_meetings_expired_total",
			Help: "Total number of meetings cancelled by the expiry sweeper",
		},
		[]string{"reason"},
	)

	// CredentialIssueDuration tracks transport credential issuance time.
	CredentialIssueDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openconsult_credential_issue_duration_seconds",
			Help:    "Duration of transport credential issuance",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		},
		[]string{"provider"},
	)

	// SignalingConnections tracks open relay websockets.
	SignalingConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "openconsult_signaling_connections",
			Help: "Number of currently open signaling websocket connections",
		},
	)

	// HTTPRequests counts API requests by route and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openconsult_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPLatency observes API request latency.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openconsult_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordTransition records a meeting status change.
func RecordTransition(from, to string) {
	if from == to {
		return
	}
	MeetingTransitions.WithLabelValues(from, to).Inc()
}

// RecordHTTP records one served request.
func RecordHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
