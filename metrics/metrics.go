// Package metrics exposes the metrics of the detection queues, the logger and
// the host in the Prometheus text format.
package metrics

import (
	"io"
	"sync"

	vm "github.com/VictoriaMetrics/metrics"

	"github.com/Kaccad/Juicyscore-test/log"
)

var registerOnce sync.Once

// Register registers the log and host metrics. Queue metrics are registered
// by the queues themselves. It is safe to call Register multiple times.
func Register() {
	registerOnce.Do(func() {
		registerLogMetrics()
		registerHostMetrics()
		log.Debugf("metrics: registered log and host metrics")
	})
}

// WritePrometheus writes all metrics, including process metrics, to w.
func WritePrometheus(w io.Writer) {
	vm.WritePrometheus(w, true)
}

func registerLogMetrics() {
	vm.GetOrCreateGauge(`detect_logs_total{level="warning"}`, func() float64 {
		return float64(log.TotalWarningLogLines())
	})
	vm.GetOrCreateGauge(`detect_logs_total{level="error"}`, func() float64 {
		return float64(log.TotalErrorLogLines())
	})
	vm.GetOrCreateGauge(`detect_logs_total{level="critical"}`, func() float64 {
		return float64(log.TotalCriticalLogLines())
	})
}
