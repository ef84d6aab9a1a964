package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports store action outcomes as a counter and a
// latency histogram labelled by operation.
type PrometheusRecorder struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the collectors with reg. A nil reg uses a
// fresh registry so tests can build many recorders.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusRecorder{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pokemontodo",
			Subsystem: "store",
			Name:      "actions_total",
			Help:      "Store actions by operation and result.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pokemontodo",
			Subsystem: "store",
			Name:      "action_duration_seconds",
			Help:      "Store action latency including the network round trip.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.actions, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.actions.WithLabelValues(operation, result).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// MultiRecorder fans an observation out to several recorders.
type MultiRecorder []MetricsRecorder

func (m MultiRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		if r != nil {
			r.Observe(ctx, operation, success, duration)
		}
	}
}
