package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics tracks the publisher's per-event outcomes.
type OutboxMetrics struct {
	published    *prometheus.CounterVec
	retried      *prometheus.CounterVec
	deadLettered *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewOutboxMetrics registers the outbox publisher metrics on reg.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_outbox_published_total",
		Help: "Outbox events delivered to Pub/Sub.",
	}, []string{"event_type"})
	retried := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_outbox_retry_total",
		Help: "Outbox publish attempts that failed and will be retried.",
	}, []string{"event_type"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bakery_outbox_dead_lettered_total",
		Help: "Outbox events moved to the DLQ.",
	}, []string{"event_type", "reason"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bakery_outbox_publish_latency_seconds",
		Help:    "Time from event creation to successful publish.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"event_type"})
	reg.MustRegister(published, retried, deadLettered, latency)
	return &OutboxMetrics{
		published:    published,
		retried:      retried,
		deadLettered: deadLettered,
		latency:      latency,
	}
}

// ObservePublished counts a delivered event and records how long it waited.
func (m *OutboxMetrics) ObservePublished(eventType string, lag time.Duration) {
	if m == nil || m.published == nil {
		return
	}
	label := normalizeLabel(eventType, "unknown")
	m.published.WithLabelValues(label).Inc()
	if lag > 0 {
		m.latency.WithLabelValues(label).Observe(lag.Seconds())
	}
}

// IncRetry counts a failed attempt that stays in the outbox.
func (m *OutboxMetrics) IncRetry(eventType string) {
	if m == nil || m.retried == nil {
		return
	}
	m.retried.WithLabelValues(normalizeLabel(eventType, "unknown")).Inc()
}

// IncDeadLettered counts an event moved to the DLQ.
func (m *OutboxMetrics) IncDeadLettered(eventType, reason string) {
	if m == nil || m.deadLettered == nil {
		return
	}
	m.deadLettered.WithLabelValues(normalizeLabel(eventType, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}
