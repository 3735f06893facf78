package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "outage_notifier"

// Metrics holds the Prometheus counters, histograms, and gauges for the poller.
type Metrics struct {
	Cycles        *prometheus.CounterVec // labels: outcome={ok,fetch_error,state_error,missing_data,delivery_error}
	CycleDuration prometheus.Histogram
	FetchDuration prometheus.Histogram
	PollerRunning prometheus.Gauge
	LastCycle     prometheus.Gauge

	// Notification metrics.
	Notifications           *prometheus.CounterVec // labels: action
	NotificationsSuppressed prometheus.Counter
	DeliveryAttempts        *prometheus.CounterVec // labels: outcome={success,error}
	StateErrors             *prometheus.CounterVec // labels: op={load,save,corrupt}

	// Signal gauges, 1 while the signal is present.
	EmergencyActive prometheus.Gauge
	ScheduledActive prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Polling cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-decide-deliver cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Provider document fetch duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the poller is active, 0 when shut down.",
		}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last successful cycle.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Delivered notifications by action kind.",
		}, []string{"action"}),
		NotificationsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Notifications suppressed as duplicates.",
		}),
		DeliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_attempts_total",
			Help:      "Delivery attempts by outcome, retries included.",
		}, []string{"outcome"}),
		StateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_errors_total",
			Help:      "State store failures by operation.",
		}, []string{"op"}),
		EmergencyActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emergency_active",
			Help:      "1 while the provider declares an emergency outage for the address.",
		}),
		ScheduledActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduled_outage_active",
			Help:      "1 while a scheduled outage is in progress for the address.",
		}),
	}
}

// NewMetrics creates and registers all poller metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Cycles,
		m.CycleDuration,
		m.FetchDuration,
		m.PollerRunning,
		m.LastCycle,
		m.Notifications,
		m.NotificationsSuppressed,
		m.DeliveryAttempts,
		m.StateErrors,
		m.EmergencyActive,
		m.ScheduledActive,
	}
}
