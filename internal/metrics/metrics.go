package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics contains Prometheus metrics for the chat room.
type Metrics struct {
	// Reaper
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	evictions     prometheus.Counter
	participants  prometheus.Gauge

	// Request-side operations
	operations *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		sweeps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatroom_reaper_sweeps_total",
				Help: "Total number of inactivity sweeps",
			},
			[]string{"result"},
		),

		sweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatroom_reaper_sweep_duration_seconds",
				Help:    "Duration of inactivity sweeps",
				Buckets: prometheus.DefBuckets,
			},
		),

		evictions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "chatroom_reaper_evictions_total",
				Help: "Total number of participants evicted for inactivity",
			},
		),

		participants: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "chatroom_participants",
				Help: "Participants present after the last sweep",
			},
		),

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatroom_operations_total",
				Help: "Total number of chat operations by outcome",
			},
			[]string{"operation", "result"},
		),
	}
}

// RecordSweep records one sweep outcome.
func (m *Metrics) RecordSweep(started time.Time, evicted, remaining int, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.sweeps.WithLabelValues(result).Inc()
	m.sweepDuration.Observe(time.Since(started).Seconds())
	m.evictions.Add(float64(evicted))
	if remaining >= 0 {
		m.participants.Set(float64(remaining))
	}
}

// RecordOperation counts a chat operation; result is a short outcome label
// such as "ok", "invalid", "conflict", "not_found", "forbidden" or "error".
func (m *Metrics) RecordOperation(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}
