package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PipelineMetrics struct {
	service string

	inspectionsTotal   *prometheus.CounterVec
	inspectionDuration *prometheus.HistogramVec
	stepFailuresTotal  *prometheus.CounterVec
	detectionsPerImage prometheus.Histogram
}

func NewPipelineMetrics(registry *prometheus.Registry, service string) *PipelineMetrics {
	inspectionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "defex",
			Subsystem: "pipeline",
			Name:      "inspections_total",
			Help:      "Total inspection requests by terminal status.",
		},
		[]string{"service", "status"},
	)
	inspectionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "defex",
			Subsystem: "pipeline",
			Name:      "inspection_duration_seconds",
			Help:      "End-to-end inspection duration in seconds by terminal status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	stepFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "defex",
			Subsystem: "pipeline",
			Name:      "step_failures_total",
			Help:      "Degraded non-fatal pipeline steps by step name.",
		},
		[]string{"service", "step"},
	)
	detectionsPerImage := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "defex",
			Subsystem: "pipeline",
			Name:      "detections_per_image",
			Help:      "Number of detections reported per inspected image.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(inspectionsTotal, inspectionDuration, stepFailuresTotal, detectionsPerImage)

	return &PipelineMetrics{
		service:            service,
		inspectionsTotal:   inspectionsTotal,
		inspectionDuration: inspectionDuration,
		stepFailuresTotal:  stepFailuresTotal,
		detectionsPerImage: detectionsPerImage,
	}
}

func (m *PipelineMetrics) FinishInspection(status string, duration time.Duration) {
	m.inspectionsTotal.WithLabelValues(m.service, status).Inc()
	m.inspectionDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) StepFailure(step string) {
	m.stepFailuresTotal.WithLabelValues(m.service, step).Inc()
}

func (m *PipelineMetrics) ObserveDetections(count int) {
	m.detectionsPerImage.Observe(float64(count))
}
