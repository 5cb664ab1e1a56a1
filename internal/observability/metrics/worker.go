package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics covers the detection event consumer.
type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	eventsTotal *prometheus.CounterVec
	eventLag    prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "defex",
			Subsystem: "worker",
			Name:      "detection_events_total",
			Help:      "Total consumed detection events by status.",
		},
		[]string{"service", "status"},
	)
	eventLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "defex",
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between detection completion and event consumption.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(eventsTotal, eventLag)

	return &WorkerMetrics{
		service:     service,
		registry:    registry,
		eventsTotal: eventsTotal,
		eventLag:    eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) EventConsumed(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(m.service, status).Inc()
}

func (m *WorkerMetrics) ObserveEventLag(lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.Observe(lag.Seconds())
}
