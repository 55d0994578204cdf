// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_received_total",
			Help: "Total number of notifications admitted from the push channel",
		},
		[]string{"notification_type"},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of inbound messages dropped before reaching the store",
		},
		[]string{"reason"},
	)

	NotificationsDisplayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_displayed_total",
			Help: "Total number of notifications that completed a display cycle",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_queue_depth",
			Help: "Number of notifications waiting to be displayed",
		},
	)

	ChannelReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "push_channel_reconnects_total",
			Help: "Number of reconnect attempts made by the ingestion channel",
		},
	)

	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_errors_total",
			Help: "Errors handled at component boundaries",
		},
		[]string{"category", "error_code"},
	)
)

// ErrorCounter adapts the counters to the errors.Counter interface.
type ErrorCounter struct{}

func (ErrorCounter) IncError(category, code string) {
	PipelineErrors.WithLabelValues(category, code).Inc()
}

// Drop reasons
const (
	DropReasonDuplicate = "duplicate"
	DropReasonMalformed = "malformed"
	DropReasonSchema    = "schema_invalid"
)
