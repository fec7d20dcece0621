package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "quotes"

// SyncMetrics exports sync round measurements to Prometheus.
// It implements ports.SyncRecorder.
type SyncMetrics struct {
	rounds     *prometheus.CounterVec
	duration   prometheus.Histogram
	localCount prometheus.Gauge
}

// NewSyncMetrics creates the sync collectors and registers them with reg.
func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	m := &SyncMetrics{
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_rounds_total",
			Help:      "Sync rounds by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "sync_round_duration_seconds",
			Help:      "Duration of sync rounds.",
			Buckets:   prometheus.DefBuckets,
		}),
		localCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "local_count",
			Help:      "Number of quotes in the local collection.",
		}),
	}

	for _, c := range []prometheus.Collector{m.rounds, m.duration, m.localCount} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering sync metrics: %w", err)
		}
	}

	return m, nil
}

// RecordRound counts one round under outcome and observes its duration.
func (m *SyncMetrics) RecordRound(outcome string, d time.Duration) {
	m.rounds.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// SetQuoteCount sets the local collection gauge.
func (m *SyncMetrics) SetQuoteCount(n int) {
	m.localCount.Set(float64(n))
}
