package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics counts Pub/Sub deliveries handled by a subscriber.
type ConsumerMetrics struct {
	messages *prometheus.CounterVec
}

func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	m := &ConsumerMetrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consumer",
			Name:      "messages_total",
			Help:      "Pub/Sub deliveries by consumer and outcome.",
		}, []string{"consumer", "outcome"}),
	}
	reg.MustRegister(m.messages)
	return m
}

// IncMessage counts one delivery. outcome is handled, duplicate, dropped or retry.
func (m *ConsumerMetrics) IncMessage(consumer, outcome string) {
	if m == nil || m.messages == nil {
		return
	}
	m.messages.WithLabelValues(normalizeLabel(consumer), normalizeLabel(outcome)).Inc()
}
