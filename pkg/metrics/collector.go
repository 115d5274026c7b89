// Package metrics exposes Prometheus collectors for the moderation bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of handled updates labeled by action and status",
		},
		[]string{"action", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
	reportTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_transitions_total",
			Help: "Total number of report status transitions",
		},
		[]string{"to"},
	)
	punishmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punishments_total",
			Help: "Total number of applied punishments by kind",
		},
		[]string{"kind"},
	)
	punishmentsLiftedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punishments_lifted_total",
			Help: "Total number of lifted punishments",
		},
	)
	deliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "report_delivery_failures_total",
			Help: "Total number of failed report deliveries to the moderation channel",
		},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of live conversation sessions",
		},
	)
)

// RecordUpdate increments update counters and records handling duration.
func RecordUpdate(action, status string, duration time.Duration) {
	if action == "" {
		action = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	updatesTotal.WithLabelValues(action, status).Inc()
	updateDurationSeconds.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordReportTransition counts report lifecycle transitions.
func RecordReportTransition(to string) {
	reportTransitionsTotal.WithLabelValues(to).Inc()
}

// RecordPunishment counts an applied punishment.
func RecordPunishment(kind string) {
	punishmentsTotal.WithLabelValues(kind).Inc()
}

// RecordLift counts a lifted punishment.
func RecordLift() {
	punishmentsLiftedTotal.Inc()
}

// RecordDeliveryFailure counts a failed report delivery.
func RecordDeliveryFailure() {
	deliveryFailuresTotal.Inc()
}

// SessionOpened increments the live session gauge.
func SessionOpened() {
	activeSessions.Inc()
}

// SessionClosed decrements the live session gauge.
func SessionClosed() {
	activeSessions.Dec()
}
