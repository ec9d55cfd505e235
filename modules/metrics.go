package modules

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

type queueMetrics struct {
	dispatched *metrics.Counter
	delivered  *metrics.Counter
	failed     *metrics.Counter
}

func newQueueMetrics(queueName string) *queueMetrics {
	return &queueMetrics{
		dispatched: metrics.GetOrCreateCounter(fmt.Sprintf(`detect_queue_dispatched_total{queue=%q}`, queueName)),
		delivered:  metrics.GetOrCreateCounter(fmt.Sprintf(`detect_queue_delivered_total{queue=%q}`, queueName)),
		failed:     metrics.GetOrCreateCounter(fmt.Sprintf(`detect_queue_failed_total{queue=%q}`, queueName)),
	}
}
