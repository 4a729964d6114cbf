package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOutboxMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)
	m.IncRow("order_placed", "published")
	m.IncRow("order_placed", "published")
	m.IncRow("order_placed", "parked")
	m.ObserveBatch(40 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	rows := findMetricFamily(mfs, "hn_outbox_rows_total")
	if rows == nil {
		t.Fatalf("rows metric missing")
	}
	counts := map[string]float64{}
	for _, metric := range rows.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" {
				counts[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	if counts["published"] != 2 || counts["parked"] != 1 {
		t.Fatalf("unexpected outcome counts: %v", counts)
	}
	batch := findMetricFamily(mfs, "hn_outbox_batch_duration_seconds")
	if batch == nil || batch.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected one batch observation")
	}
}

func TestOutboxMetricsNilSafe(t *testing.T) {
	var m *OutboxMetrics
	m.IncRow("order_placed", "retry")
	m.ObserveBatch(time.Second)
	NewOutboxMetrics(nil).IncRow("", "")
}
