// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ScheduleAttemptsTotal tracks scheduling attempts by outcome status.
	ScheduleAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_attempts_total",
			Help: "Scheduling attempts by outcome",
		},
		[]string{"status"},
	)

	// ConflictsDetectedTotal tracks calendar conflicts surfaced to users.
	ConflictsDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_detected_total",
			Help: "Calendar conflicts surfaced during scheduling attempts",
		},
	)

	// SlotsSuggested tracks how many alternative slots each conflict produced.
	SlotsSuggested = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schedule_slots_suggested",
			Help:    "Alternative slots offered per conflicted attempt",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		},
	)

	// ParseDuration tracks NL parser latency.
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parser_request_duration_seconds",
			Help:    "Natural-language parse latency",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20},
		},
		[]string{"provider", "status"},
	)

	// ParseRequestsTotal tracks NL parser calls.
	ParseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_requests_total",
			Help: "Natural-language parse calls",
		},
		[]string{"provider", "status"},
	)

	// ReschedulesTotal tracks reschedule negotiations by kind and result.
	ReschedulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reschedules_total",
			Help: "Reschedule negotiations by kind and result",
		},
		[]string{"kind", "result"},
	)

	// MessagesTotal tracks chat messages published.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total chat messages published",
		},
		[]string{"tenant_id", "role"},
	)

	// ConversationsTotal tracks conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"tenant_id"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordParse records metrics for one NL parser call.
func RecordParse(provider, status string, duration float64) {
	ParseDuration.WithLabelValues(provider, status).Observe(duration)
	ParseRequestsTotal.WithLabelValues(provider, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
