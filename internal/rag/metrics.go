package rag

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments pipeline operations.
type Metrics struct {
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	confidence prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// newMetrics registers pipeline metrics on the default registerer.
// Registration happens once per process; all Service instances share the
// collectors.
func newMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "ragd_operation_duration_seconds",
				Help:    "Duration of pipeline operations.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"operation"}),
			operations: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ragd_operations_total",
				Help: "Total pipeline operations by outcome.",
			}, []string{"operation", "status"}),
			confidence: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "ragd_answer_confidence",
				Help:    "Confidence scores of synthesized answers.",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
			}),
		}
	})
	return metricsInst
}

func (m *Metrics) observe(operation string, start time.Time, err error) {
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Inc()
}
