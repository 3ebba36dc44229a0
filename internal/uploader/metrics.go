package uploader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments the manager with Prometheus collectors. A nil
// *Metrics disables instrumentation; every method is nil-safe.
type Metrics struct {
	submitted prometheus.Counter
	started   prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
	retried   prometheus.Counter
	cancelled prometheus.Counter
	active    prometheus.Gauge
	duration  prometheus.Histogram
}

// NewMetrics registers the upload collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_tasks_submitted_total",
			Help: "Tasks accepted by Submit",
		}),
		started: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_transfers_started_total",
			Help: "Transfer attempts admitted, including retries",
		}),
		completed: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_tasks_completed_total",
			Help: "Tasks that finished successfully",
		}),
		failed: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_tasks_failed_total",
			Help: "Tasks that exhausted retries or hit permanent errors",
		}),
		retried: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_transfers_retried_total",
			Help: "Transient failures scheduled for another attempt",
		}),
		cancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "uploadq_tasks_cancelled_total",
			Help: "Tasks cancelled before completion",
		}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Name: "uploadq_active_uploads",
			Help: "Transfers currently in flight",
		}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "uploadq_transfer_duration_seconds",
			Help:    "Wall time of successful transfers",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) taskSubmitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
}

func (m *Metrics) transferStarted() {
	if m == nil {
		return
	}
	m.started.Inc()
	m.active.Inc()
}

func (m *Metrics) transferUnwound() {
	if m == nil {
		return
	}
	m.active.Dec()
}

func (m *Metrics) taskCompleted(duration time.Duration) {
	if m == nil {
		return
	}
	m.completed.Inc()
	m.duration.Observe(duration.Seconds())
}

func (m *Metrics) taskFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

func (m *Metrics) transferRetried() {
	if m == nil {
		return
	}
	m.retried.Inc()
}

func (m *Metrics) taskCancelled() {
	if m == nil {
		return
	}
	m.cancelled.Inc()
}
