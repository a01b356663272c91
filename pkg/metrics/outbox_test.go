package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.ObservePublished("order_created", 2*time.Second)
	m.ObservePublished("order_created", 0)
	m.IncRetry("coupon_applied")
	m.IncDeadLettered("user_registered", "max_attempts")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "bakery_outbox_published_total", "event_type", "order_created"); err != nil {
		t.Fatalf("fetch published: %v", err)
	} else if got != 2 {
		t.Fatalf("expected published=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "bakery_outbox_retry_total", "event_type", "coupon_applied"); err != nil {
		t.Fatalf("fetch retry: %v", err)
	} else if got != 1 {
		t.Fatalf("expected retry=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "bakery_outbox_dead_lettered_total", "reason", "max_attempts"); err != nil {
		t.Fatalf("fetch dead lettered: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dead_lettered=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "bakery_outbox_publish_latency_seconds", "event_type", "order_created"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got != 2 {
		t.Fatalf("expected latency sum 2, got %f", got)
	}
}

func TestOutboxMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewOutboxMetrics(nil)
	m.ObservePublished("order_created", time.Second)
	m.IncRetry("order_created")
	m.IncDeadLettered("order_created", "non_retryable")
	var nilMetrics *OutboxMetrics
	nilMetrics.IncRetry("order_created")
}
