package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestConsumerMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsumerMetrics(reg)
	m.IncMessage("analytics", "handled")
	m.IncMessage("analytics", "retry")
	m.IncMessage("analytics", "retry")

	mfs, err := reg.Gather()
	require.NoError(t, err)
	family := findMetricFamily(mfs, "hn_consumer_messages_total")
	require.NotNil(t, family)

	counts := map[string]float64{}
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" {
				counts[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(1), counts["handled"])
	require.Equal(t, float64(2), counts["retry"])
}

func TestConsumerMetricsNilSafe(t *testing.T) {
	var m *ConsumerMetrics
	m.IncMessage("analytics", "dropped")
	NewConsumerMetrics(nil).IncMessage("", "")
}
