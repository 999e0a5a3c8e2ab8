package embeddings

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the embedding chain.
type Metrics struct {
	duration     *prometheus.HistogramVec
	errors       *prometheus.CounterVec
	fallthroughs *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// newMetrics registers embedding metrics on the default registerer.
// Registration happens once per process; all Service instances share the
// collectors.
func newMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = &Metrics{
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "ragd_embedding_duration_seconds",
				Help:    "Duration of embedding generation by provider and operation.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			}, []string{"provider", "operation"}),
			errors: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ragd_embedding_errors_total",
				Help: "Total embedding generation errors by provider and operation.",
			}, []string{"provider", "operation"}),
			fallthroughs: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "ragd_embedding_fallthrough_total",
				Help: "Times a provider failed and the chain fell through to the next one.",
			}, []string{"provider"}),
		}
	})
	return metricsInst
}

func (m *Metrics) observe(provider, operation string, d time.Duration, err error) {
	m.duration.WithLabelValues(provider, operation).Observe(d.Seconds())
	if err != nil {
		m.errors.WithLabelValues(provider, operation).Inc()
	}
}
