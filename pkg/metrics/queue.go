package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics tracks work queue depth and processing outcomes.
type QueueMetrics struct {
	depth     *prometheus.GaugeVec
	processed *prometheus.CounterVec
	deadLet   prometheus.Counter
}

// NewQueueMetrics registers the work queue metrics on the provided registerer.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	if reg == nil {
		return &QueueMetrics{}
	}
	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Queue items by status.",
	}, []string{"status"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "queue_processed_total",
		Help: "Processed queue items by outcome.",
	}, []string{"outcome"})
	deadLet := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "queue_dead_lettered_total",
		Help: "Items moved to the dead letter state.",
	})
	reg.MustRegister(depth, processed, deadLet)
	return &QueueMetrics{
		depth:     depth,
		processed: processed,
		deadLet:   deadLet,
	}
}

// SetDepth publishes the current count of items in the given status.
func (m *QueueMetrics) SetDepth(status string, count int64) {
	if m == nil || m.depth == nil {
		return
	}
	m.depth.WithLabelValues(normalizeLabel(status)).Set(float64(count))
}

// IncProcessed counts one processed item with the given outcome.
func (m *QueueMetrics) IncProcessed(outcome string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDeadLettered counts one item parked after exhausting attempts.
func (m *QueueMetrics) IncDeadLettered() {
	if m == nil || m.deadLet == nil {
		return
	}
	m.deadLet.Inc()
}
